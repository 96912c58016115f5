// Package lending drives supply and withdraw of one token against one lending pool.
package lending

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/zlend/internal/chain"
	"github.com/vadiminshakov/zlend/internal/domain"
	"go.uber.org/zap"
)

// referralCode passed to the pool on supply. Zero means no referral.
const referralCode uint16 = 0

// Chain client operations needed to manage a position.
type Chain interface {
	chain.Caller
	Address() common.Address
	ChainName() string
	Contract(address common.Address, abiJSON string) (*chain.Contract, error)
	PrepareTransaction(ctx context.Context) (chain.TxFields, error)
	SendTransaction(ctx context.Context, fields chain.TxFields, call chain.Call) (*chain.Outcome, error)
}

// Position supplies tokens to a pool and withdraws them for the client's account.
// It keeps no state besides its immutable references.
type Position struct {
	client Chain
	ref    domain.PoolContractRef
	token  *chain.Contract
	pool   *chain.Contract
	logger *zap.Logger
}

// NewPosition resolves the token and pool contracts of ref on the client's chain.
func NewPosition(client Chain, ref domain.PoolContractRef, logger *zap.Logger) (*Position, error) {
	if client == nil {
		return nil, errors.New("chain client is nil")
	}
	if ref.ChainName != client.ChainName() {
		return nil, &domain.ChainQueryError{
			Op:  "resolve pool",
			Err: errors.Errorf("pool is configured for %s, client is on %s", ref.ChainName, client.ChainName()),
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	token, err := client.Contract(ref.Token, chain.ERC20ABI)
	if err != nil {
		return nil, &domain.ChainQueryError{Op: "resolve token contract", Err: err}
	}
	pool, err := client.Contract(ref.Pool, chain.PoolABI)
	if err != nil {
		return nil, &domain.ChainQueryError{Op: "resolve pool contract", Err: err}
	}

	return &Position{
		client: client,
		ref:    ref,
		token:  token,
		pool:   pool,
		logger: logger.With(zap.String("pool", ref.Pool.Hex()), zap.String("token", ref.Token.Hex())),
	}, nil
}

// Ref returns the pool and token the position works with.
func (p *Position) Ref() domain.PoolContractRef {
	return p.ref
}

// Allowance returns how much the pool may currently pull from the account.
func (p *Position) Allowance(ctx context.Context) (*big.Int, error) {
	allowance, err := chain.ReadAllowance(ctx, p.client, p.ref.Token, p.client.Address(), p.ref.Pool)
	if err != nil {
		return nil, &domain.ChainQueryError{Op: "allowance", Err: err}
	}
	return allowance, nil
}

// Approve grants the pool the right to transfer amount tokens from the account.
// Supply reverts on-chain unless the allowance covers the supplied amount, so
// callers must run Approve (or check Allowance) before Supply.
func (p *Position) Approve(ctx context.Context, amount *big.Int) (*chain.Outcome, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, &domain.TransactionError{Op: "approve", Err: domain.ErrInvalidAmount}
	}
	call, err := p.token.Pack("approve", p.ref.Pool, amount)
	if err != nil {
		return nil, &domain.TransactionError{Op: "approve", Err: err}
	}
	p.logger.Info("approving pool", zap.Stringer("amount", amount))
	return p.submit(ctx, "approve", call)
}

// Supply deposits amount into the pool on behalf of the client account.
func (p *Position) Supply(ctx context.Context, amount domain.TransferAmount) (*chain.Outcome, error) {
	if amount.IsZero() {
		return nil, &domain.TransactionError{Op: "supply", Err: domain.ErrInvalidAmount}
	}
	call, err := p.pool.Pack("supply", p.ref.Token, amount.BaseUnits(), p.client.Address(), referralCode)
	if err != nil {
		return nil, &domain.TransactionError{Op: "supply", Err: err}
	}
	p.logger.Info("supplying to pool", zap.Stringer("amount", amount))
	return p.submit(ctx, "supply", call)
}

// Withdraw pulls funds back from the pool. The amount is the account's token balance
// read right before the call, so nothing computed at supply time is reused.
func (p *Position) Withdraw(ctx context.Context) (*chain.Outcome, error) {
	balance, err := chain.ReadOne[*big.Int](ctx, p.token, p.client, "balanceOf", p.client.Address())
	if err != nil {
		return nil, &domain.TransactionError{Op: "withdraw", Err: errors.Wrap(err, "read balance")}
	}

	call, err := p.pool.Pack("withdraw", p.ref.Token, balance, p.client.Address())
	if err != nil {
		return nil, &domain.TransactionError{Op: "withdraw", Err: err}
	}
	p.logger.Info("withdrawing from pool", zap.Stringer("amount", balance))
	return p.submit(ctx, "withdraw", call)
}

func (p *Position) submit(ctx context.Context, op string, call chain.Call) (*chain.Outcome, error) {
	fields, err := p.client.PrepareTransaction(ctx)
	if err != nil {
		return nil, &domain.TransactionError{Op: op, Err: errors.Wrap(err, "prepare")}
	}
	outcome, err := p.client.SendTransaction(ctx, fields, call)
	if err != nil {
		return outcome, &domain.TransactionError{Op: op, Err: err}
	}
	return outcome, nil
}
