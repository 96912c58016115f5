// Package chaintest provides an in-memory node that emulates one ERC-20 token and
// one lending pool, for driving chain.Client in tests.
package chaintest

import (
	"context"
	"math/big"
	"strings"
	"sync"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/zlend/internal/chain"
)

var (
	erc20ABI = mustParse(chain.ERC20ABI)
	poolABI  = mustParse(chain.PoolABI)
)

func mustParse(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

// Backend implements chain.Backend.
type Backend struct {
	mu sync.Mutex

	chainID  *big.Int
	baseFee  *big.Int
	token    common.Address
	pool     common.Address
	decimals uint8
	symbol   string

	balances   map[common.Address]*big.Int
	allowances map[allowanceKey]*big.Int
	supplied   map[common.Address]*big.Int
	nonces     map[common.Address]uint64
	receipts   map[common.Hash]*coretypes.Receipt
	polls      map[common.Hash]int
	block      int64

	sent []string

	// ReceiptDelay number of receipt polls answered with NotFound per transaction.
	ReceiptDelay int
	// CallErrors fails read calls by method name.
	CallErrors map[string]error
	// SendErrors fails submission by method name.
	SendErrors map[string]error
	// EstimateErrors fails gas estimation by method name.
	EstimateErrors map[string]error
	// NonceErr fails PendingNonceAt.
	NonceErr error
}

// NewBackend creates a node on chainID hosting token and pool.
// A nil baseFee emulates a pre-London chain.
func NewBackend(chainID int64, baseFee *big.Int, token, pool common.Address, decimals uint8, symbol string) *Backend {
	return &Backend{
		chainID:        big.NewInt(chainID),
		baseFee:        baseFee,
		token:          token,
		pool:           pool,
		decimals:       decimals,
		symbol:         symbol,
		balances:       make(map[common.Address]*big.Int),
		allowances:     make(map[allowanceKey]*big.Int),
		supplied:       make(map[common.Address]*big.Int),
		nonces:         make(map[common.Address]uint64),
		receipts:       make(map[common.Hash]*coretypes.Receipt),
		polls:          make(map[common.Hash]int),
		CallErrors:     make(map[string]error),
		SendErrors:     make(map[string]error),
		EstimateErrors: make(map[string]error),
	}
}

// SetBalance sets the token balance of account.
func (b *Backend) SetBalance(account common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] = new(big.Int).Set(amount)
}

// BalanceOf returns the token balance of account.
func (b *Backend) BalanceOf(account common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return get(b.balances, account)
}

// Supplied returns what account has supplied to the pool.
func (b *Backend) Supplied(account common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return get(b.supplied, account)
}

// Allowance returns the allowance owner granted spender.
func (b *Backend) Allowance(owner, spender common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return get(b.allowances, allowanceKey{owner, spender})
}

// SetAllowance sets the allowance owner granted spender.
func (b *Backend) SetAllowance(owner, spender common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allowances[allowanceKey{owner, spender}] = new(big.Int).Set(amount)
}

// Sent returns the method names of submitted transactions in order.
func (b *Backend) Sent() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.sent...)
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) CallContract(_ context.Context, msg gethcore.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.To == nil || *msg.To != b.token || len(msg.Data) < 4 {
		return nil, errors.New("execution reverted")
	}
	method, err := erc20ABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	if err := b.CallErrors[method.Name]; err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "balanceOf":
		return method.Outputs.Pack(get(b.balances, args[0].(common.Address)))
	case "decimals":
		return method.Outputs.Pack(b.decimals)
	case "symbol", "name":
		return method.Outputs.Pack(b.symbol)
	case "allowance":
		key := allowanceKey{args[0].(common.Address), args[1].(common.Address)}
		return method.Outputs.Pack(get(b.allowances, key))
	default:
		return nil, errors.Errorf("%s is not a view method", method.Name)
	}
}

func (b *Backend) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.NonceErr != nil {
		return 0, b.NonceErr
	}
	return b.nonces[account], nil
}

func (b *Backend) HeaderByNumber(context.Context, *big.Int) (*coretypes.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := &coretypes.Header{Number: big.NewInt(b.block)}
	if b.baseFee != nil {
		h.BaseFee = new(big.Int).Set(b.baseFee)
	}
	return h, nil
}

func (b *Backend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(3_000_000_000), nil
}

func (b *Backend) EstimateGas(_ context.Context, msg gethcore.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if name, ok := methodName(msg.Data); ok {
		if err := b.EstimateErrors[name]; err != nil {
			return 0, err
		}
	}
	return 100_000, nil
}

func (b *Backend) SendTransaction(_ context.Context, tx *coretypes.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	from, err := coretypes.Sender(coretypes.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return errors.Wrap(err, "invalid sender")
	}
	if tx.Nonce() != b.nonces[from] {
		return errors.Errorf("nonce too low: have %d, want %d", tx.Nonce(), b.nonces[from])
	}
	name, ok := methodName(tx.Data())
	if !ok {
		return errors.New("unknown method")
	}
	if err := b.SendErrors[name]; err != nil {
		return err
	}

	b.nonces[from]++
	b.block++
	b.sent = append(b.sent, name)

	status := coretypes.ReceiptStatusSuccessful
	if err := b.apply(from, tx); err != nil {
		status = coretypes.ReceiptStatusFailed
	}
	b.receipts[tx.Hash()] = &coretypes.Receipt{
		TxHash:      tx.Hash(),
		Status:      status,
		BlockNumber: big.NewInt(b.block),
		GasUsed:     21_000,
	}
	return nil
}

func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*coretypes.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	receipt, ok := b.receipts[hash]
	if !ok {
		return nil, gethcore.NotFound
	}
	if b.polls[hash] < b.ReceiptDelay {
		b.polls[hash]++
		return nil, gethcore.NotFound
	}
	return receipt, nil
}

func (b *Backend) apply(from common.Address, tx *coretypes.Transaction) error {
	to := tx.To()
	if to == nil {
		return errors.New("contract creation is not supported")
	}
	data := tx.Data()

	switch *to {
	case b.token:
		method, err := erc20ABI.MethodById(data[:4])
		if err != nil || method.Name != "approve" {
			return errors.New("unsupported token call")
		}
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return err
		}
		b.allowances[allowanceKey{from, args[0].(common.Address)}] = new(big.Int).Set(args[1].(*big.Int))
		return nil

	case b.pool:
		method, err := poolABI.MethodById(data[:4])
		if err != nil {
			return err
		}
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return err
		}
		if args[0].(common.Address) != b.token {
			return errors.New("asset not listed")
		}
		amount := args[1].(*big.Int)
		if amount.Sign() == 0 {
			return errors.New("invalid amount")
		}

		switch method.Name {
		case "supply":
			onBehalfOf := args[2].(common.Address)
			key := allowanceKey{from, b.pool}
			if get(b.allowances, key).Cmp(amount) < 0 {
				return errors.New("insufficient allowance")
			}
			if get(b.balances, from).Cmp(amount) < 0 {
				return errors.New("insufficient balance")
			}
			b.allowances[key] = new(big.Int).Sub(get(b.allowances, key), amount)
			b.balances[from] = new(big.Int).Sub(get(b.balances, from), amount)
			b.supplied[onBehalfOf] = new(big.Int).Add(get(b.supplied, onBehalfOf), amount)
			return nil
		case "withdraw":
			recipient := args[2].(common.Address)
			if get(b.supplied, from).Cmp(amount) < 0 {
				return errors.New("not enough supplied")
			}
			b.supplied[from] = new(big.Int).Sub(get(b.supplied, from), amount)
			b.balances[recipient] = new(big.Int).Add(get(b.balances, recipient), amount)
			return nil
		}
	}
	return errors.New("unknown contract")
}

func methodName(data []byte) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	if m, err := erc20ABI.MethodById(data[:4]); err == nil {
		return m.Name, true
	}
	if m, err := poolABI.MethodById(data[:4]); err == nil {
		return m.Name, true
	}
	return "", false
}

func get[K comparable](m map[K]*big.Int, key K) *big.Int {
	if v, ok := m[key]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}
