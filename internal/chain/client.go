// Package chain is the EVM client the lending agent talks to: it reads balances,
// prepares, signs and submits transactions and waits for their receipts.
package chain

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"time"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/zlend/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultReceiptTimeout      = 3 * time.Minute
	defaultReceiptPollInterval = 2 * time.Second
)

// DefaultGasLimitMultiplier headroom applied to gas estimates when none is configured.
var DefaultGasLimitMultiplier = decimal.RequireFromString("1.2")

// Backend subset of the node API used by Client. *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg gethcore.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*coretypes.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg gethcore.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *coretypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*coretypes.Receipt, error)
}

// Options describes how to construct a Client.
type Options struct {
	// Name chain name used for pool lookup and logs.
	Name   string
	RPCURL string
	// ChainID expected chain id; zero skips the check.
	ChainID             int64
	GasLimitMultiplier  decimal.Decimal
	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
	Logger              *zap.Logger
}

// Client signs and submits transactions for a single account on one chain.
type Client struct {
	name    string
	backend Backend
	key     *ecdsa.PrivateKey
	address common.Address
	opts    Options
	logger  *zap.Logger
	closer  func()
}

// Dial connects to opts.RPCURL and returns a ready-to-use client.
func Dial(ctx context.Context, opts Options, key *ecdsa.PrivateKey) (*Client, error) {
	rpcURL := strings.TrimSpace(opts.RPCURL)
	if rpcURL == "" {
		return nil, errors.New("rpc url is not configured")
	}

	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial rpc")
	}
	eth := ethclient.NewClient(rpcClient)

	c, err := NewClient(eth, opts, key)
	if err != nil {
		eth.Close()
		return nil, err
	}
	c.closer = eth.Close

	if opts.ChainID != 0 {
		id, err := eth.ChainID(ctx)
		if err != nil {
			c.Close()
			return nil, errors.Wrap(err, "get chain id")
		}
		if id.Cmp(big.NewInt(opts.ChainID)) != 0 {
			c.Close()
			return nil, errors.Errorf("rpc serves chain %s, expected %d for %s", id, opts.ChainID, opts.Name)
		}
	}

	return c, nil
}

// NewClient wraps an existing backend.
func NewClient(backend Backend, opts Options, key *ecdsa.PrivateKey) (*Client, error) {
	if backend == nil {
		return nil, errors.New("chain backend is nil")
	}
	if key == nil {
		return nil, errors.New("private key is nil")
	}
	if opts.GasLimitMultiplier.IsZero() {
		opts.GasLimitMultiplier = DefaultGasLimitMultiplier
	}
	if opts.ReceiptTimeout <= 0 {
		opts.ReceiptTimeout = defaultReceiptTimeout
	}
	if opts.ReceiptPollInterval <= 0 {
		opts.ReceiptPollInterval = defaultReceiptPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	address := crypto.PubkeyToAddress(key.PublicKey)
	return &Client{
		name:    opts.Name,
		backend: backend,
		key:     key,
		address: address,
		opts:    opts,
		logger:  logger.With(zap.String("chain", opts.Name), zap.String("address", address.Hex())),
	}, nil
}

// Address account the client signs for.
func (c *Client) Address() common.Address { return c.address }

// ChainName name of the active chain.
func (c *Client) ChainName() string { return c.name }

// Close releases the RPC connection.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
		c.closer = nil
	}
}

// Contract binds abiJSON to address.
func (c *Client) Contract(address common.Address, abiJSON string) (*Contract, error) {
	return NewContract(address, abiJSON)
}

// Call executes a read-only call from the client account at the latest block.
func (c *Client) Call(ctx context.Context, call Call) ([]byte, error) {
	to := call.To
	return c.backend.CallContract(ctx, gethcore.CallMsg{From: c.address, To: &to, Data: call.Data}, nil)
}

// GetBalance returns the client account's balance of token.
func (c *Client) GetBalance(ctx context.Context, token common.Address) (domain.BalanceSnapshot, error) {
	return ReadBalance(ctx, c, token, c.address)
}
