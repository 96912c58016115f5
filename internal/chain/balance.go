package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/zlend/internal/domain"
)

// ReadBalance fetches owner's balance of an ERC-20 token with its decimals and symbol.
func ReadBalance(ctx context.Context, caller Caller, token, owner common.Address) (domain.BalanceSnapshot, error) {
	erc20, err := NewContract(token, ERC20ABI)
	if err != nil {
		return domain.BalanceSnapshot{}, err
	}

	amount, err := ReadOne[*big.Int](ctx, erc20, caller, "balanceOf", owner)
	if err != nil {
		return domain.BalanceSnapshot{}, errors.Wrap(err, "read balance")
	}
	decimals, err := ReadOne[uint8](ctx, erc20, caller, "decimals")
	if err != nil {
		return domain.BalanceSnapshot{}, errors.Wrap(err, "read decimals")
	}
	symbol, err := ReadOne[string](ctx, erc20, caller, "symbol")
	if err != nil {
		return domain.BalanceSnapshot{}, errors.Wrap(err, "read symbol")
	}

	return domain.NewBalanceSnapshot(amount, decimals, symbol), nil
}

// ReadAllowance returns how much spender may transfer from owner.
func ReadAllowance(ctx context.Context, caller Caller, token, owner, spender common.Address) (*big.Int, error) {
	erc20, err := NewContract(token, ERC20ABI)
	if err != nil {
		return nil, err
	}
	allowance, err := ReadOne[*big.Int](ctx, erc20, caller, "allowance", owner, spender)
	if err != nil {
		return nil, errors.Wrap(err, "read allowance")
	}
	return allowance, nil
}
