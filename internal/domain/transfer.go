package domain

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// TransferAmount validated amount in base units: 0 < amount <= snapshot balance.
// The zero value is not a valid amount; use NewTransferAmount.
type TransferAmount struct {
	v *big.Int
}

// NewTransferAmount validates baseUnits against the snapshot it was derived from.
func NewTransferAmount(baseUnits *big.Int, snapshot BalanceSnapshot) (TransferAmount, error) {
	if baseUnits == nil || baseUnits.Sign() <= 0 {
		return TransferAmount{}, ErrInvalidAmount
	}
	if snapshot.AmountBaseUnits == nil || baseUnits.Cmp(snapshot.AmountBaseUnits) > 0 {
		return TransferAmount{}, ErrExceedsBalance
	}
	if _, overflow := uint256.FromBig(baseUnits); overflow {
		return TransferAmount{}, errors.Wrap(ErrInvalidAmount, "does not fit uint256")
	}
	return TransferAmount{v: new(big.Int).Set(baseUnits)}, nil
}

// BaseUnits returns a copy of the amount in base units.
func (a TransferAmount) BaseUnits() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}

// IsZero reports whether a is the zero value.
func (a TransferAmount) IsZero() bool {
	return a.v == nil || a.v.Sign() == 0
}

// Human returns the amount in human-decimal form for the given decimals.
func (a TransferAmount) Human(decimals uint8) decimal.Decimal {
	return ToHuman(a.v, decimals)
}

func (a TransferAmount) String() string {
	return a.BaseUnits().String()
}

// MaxUint256 largest value an ERC-20 allowance can hold.
func MaxUint256() *big.Int {
	return new(uint256.Int).SetAllOne().ToBig()
}
