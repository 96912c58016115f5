package config

import (
	_ "embed"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/zlend/internal/chain"
	"github.com/vadiminshakov/zlend/internal/domain"
	"github.com/vadiminshakov/zlend/internal/logging"
	"github.com/vadiminshakov/zlend/internal/session"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// PrivateKeyEnv environment variable holding the operator's private key.
const PrivateKeyEnv = "ZLEND_PRIVATE_KEY"

const (
	defaultNetwork        = "linea"
	defaultReceiptTimeout = 3 * time.Minute
	defaultLogFile        = "zlend.log"
	defaultLogLevel       = "info"
	defaultLogMaxSizeMB   = 10
	defaultLogMaxBackups  = 3
	defaultLogMaxAgeDays  = 28
)

//go:embed networks.yaml
var builtinNetworks []byte

// Network one chain with its lending pool deployment.
type Network struct {
	Name               string
	ChainID            int64
	RPCURL             string
	ExplorerURL        string
	Pool               common.Address
	Token              common.Address
	GasLimitMultiplier decimal.Decimal
}

// PoolRef returns the pool and token of the network.
func (n Network) PoolRef() domain.PoolContractRef {
	return domain.PoolContractRef{ChainName: n.Name, Pool: n.Pool, Token: n.Token}
}

// ChainOptions returns client options for the network.
func (n Network) ChainOptions(receiptTimeout time.Duration, logger *zap.Logger) chain.Options {
	return chain.Options{
		Name:               n.Name,
		RPCURL:             n.RPCURL,
		ChainID:            n.ChainID,
		GasLimitMultiplier: n.GasLimitMultiplier,
		ReceiptTimeout:     receiptTimeout,
		Logger:             logger,
	}
}

type Config struct {
	Network        Network
	Approval       session.ApprovalMode
	ReceiptTimeout time.Duration
	Log            logging.Config
}

type ConfigTmp struct {
	Network        string                `yaml:"network,omitempty"`
	Approval       string                `yaml:"approval,omitempty"`
	ReceiptTimeout time.Duration         `yaml:"receipt_timeout,omitempty"`
	Log            LogTmp                `yaml:"log,omitempty"`
	Networks       map[string]NetworkTmp `yaml:"networks,omitempty"`
}

type LogTmp struct {
	Level      string `yaml:"level,omitempty"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
}

type NetworkTmp struct {
	ChainID            int64  `yaml:"chain_id,omitempty"`
	RPC                string `yaml:"rpc,omitempty"`
	Explorer           string `yaml:"explorer,omitempty"`
	Pool               string `yaml:"pool,omitempty"`
	Token              string `yaml:"token,omitempty"`
	GasLimitMultiplier string `yaml:"gas_limit_multiplier,omitempty"`
}

// Overrides command line values; empty fields keep the file or default value.
type Overrides struct {
	ConfigPath string
	Network    string
	RPC        string
	LogFile    string
	LogLevel   string
	Approval   string
}

// BuiltinNetworks returns the embedded network table keyed by name.
func BuiltinNetworks() (map[string]NetworkTmp, error) {
	var builtin ConfigTmp
	if err := yaml.Unmarshal(builtinNetworks, &builtin); err != nil {
		return nil, errors.Wrap(err, "parse built-in networks")
	}
	networks := make(map[string]NetworkTmp, len(builtin.Networks))
	for name, n := range builtin.Networks {
		networks[strings.ToLower(name)] = n
	}
	return networks, nil
}

// NetworkNames returns the sorted names of the embedded networks.
func NetworkNames() []string {
	networks, err := BuiltinNetworks()
	if err != nil {
		return nil
	}
	return sortedKeys(networks)
}

// Load builds the config from the built-in network table, the optional yaml file
// and the command line overrides, in that order.
func Load(o Overrides) (Config, error) {
	networks, err := BuiltinNetworks()
	if err != nil {
		return Config{}, err
	}

	var file ConfigTmp
	if o.ConfigPath != "" {
		data, err := os.ReadFile(o.ConfigPath)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, errors.Wrapf(err, "parse config %s", o.ConfigPath)
		}
	}

	for name, n := range file.Networks {
		name = strings.ToLower(name)
		networks[name] = mergeNetwork(networks[name], n)
	}

	name := strings.ToLower(firstNonEmpty(o.Network, file.Network, defaultNetwork))
	tmp, ok := networks[name]
	if !ok {
		return Config{}, errors.Errorf("unknown network %q, known: %s", name, strings.Join(sortedKeys(networks), ", "))
	}
	if o.RPC != "" {
		tmp.RPC = o.RPC
	}
	network, err := parseNetwork(name, tmp)
	if err != nil {
		return Config{}, err
	}

	approval, err := session.ParseApprovalMode(firstNonEmpty(o.Approval, file.Approval))
	if err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'approval' param")
	}

	receiptTimeout := file.ReceiptTimeout
	if receiptTimeout == 0 {
		receiptTimeout = defaultReceiptTimeout
	}
	if receiptTimeout < 0 {
		return Config{}, errors.Errorf("incorrect 'receipt_timeout' param: %s", receiptTimeout)
	}

	return Config{
		Network:        network,
		Approval:       approval,
		ReceiptTimeout: receiptTimeout,
		Log: logging.Config{
			Level:      firstNonEmpty(o.LogLevel, file.Log.Level, defaultLogLevel),
			File:       firstNonEmpty(o.LogFile, file.Log.File, defaultLogFile),
			MaxSizeMB:  positiveOr(file.Log.MaxSizeMB, defaultLogMaxSizeMB),
			MaxBackups: positiveOr(file.Log.MaxBackups, defaultLogMaxBackups),
			MaxAgeDays: positiveOr(file.Log.MaxAgeDays, defaultLogMaxAgeDays),
		},
	}, nil
}

func parseNetwork(name string, n NetworkTmp) (Network, error) {
	if n.ChainID <= 0 {
		return Network{}, errors.Errorf("network %s: incorrect 'chain_id' param: %d", name, n.ChainID)
	}
	if strings.TrimSpace(n.RPC) == "" {
		return Network{}, errors.Errorf("network %s: 'rpc' param is required", name)
	}
	if !common.IsHexAddress(n.Pool) {
		return Network{}, errors.Errorf("network %s: incorrect 'pool' address %q", name, n.Pool)
	}
	if !common.IsHexAddress(n.Token) {
		return Network{}, errors.Errorf("network %s: incorrect 'token' address %q", name, n.Token)
	}

	multiplier := chain.DefaultGasLimitMultiplier
	if n.GasLimitMultiplier != "" {
		m, err := decimal.NewFromString(n.GasLimitMultiplier)
		if err != nil {
			return Network{}, errors.Wrapf(err, "network %s: incorrect 'gas_limit_multiplier' param", name)
		}
		multiplier = m
	}
	if !multiplier.IsPositive() {
		return Network{}, errors.Errorf("network %s: 'gas_limit_multiplier' must be positive, got %s", name, multiplier)
	}

	return Network{
		Name:               name,
		ChainID:            n.ChainID,
		RPCURL:             strings.TrimSpace(n.RPC),
		ExplorerURL:        strings.TrimSpace(n.Explorer),
		Pool:               common.HexToAddress(n.Pool),
		Token:              common.HexToAddress(n.Token),
		GasLimitMultiplier: multiplier,
	}, nil
}

func mergeNetwork(base, override NetworkTmp) NetworkTmp {
	if override.ChainID != 0 {
		base.ChainID = override.ChainID
	}
	base.RPC = firstNonEmpty(override.RPC, base.RPC)
	base.Explorer = firstNonEmpty(override.Explorer, base.Explorer)
	base.Pool = firstNonEmpty(override.Pool, base.Pool)
	base.Token = firstNonEmpty(override.Token, base.Token)
	base.GasLimitMultiplier = firstNonEmpty(override.GasLimitMultiplier, base.GasLimitMultiplier)
	return base
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func sortedKeys(m map[string]NetworkTmp) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
