package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot on-chain balance of one token for one address at fetch time.
type BalanceSnapshot struct {
	// AmountBaseUnits balance in indivisible token units.
	AmountBaseUnits *big.Int
	// Decimals number of decimal places of the token.
	Decimals uint8
	// Symbol token symbol shown to the operator.
	Symbol string
}

// NewBalanceSnapshot creates a new BalanceSnapshot. A nil amount is treated as zero.
func NewBalanceSnapshot(amount *big.Int, decimals uint8, symbol string) BalanceSnapshot {
	v := new(big.Int)
	if amount != nil {
		v.Set(amount)
	}
	return BalanceSnapshot{
		AmountBaseUnits: v,
		Decimals:        decimals,
		Symbol:          symbol,
	}
}

// Human returns the balance in human-decimal form.
func (b BalanceSnapshot) Human() decimal.Decimal {
	return ToHuman(b.AmountBaseUnits, b.Decimals)
}

// IsEmpty reports whether the snapshot holds no tokens.
func (b BalanceSnapshot) IsEmpty() bool {
	return b.AmountBaseUnits == nil || b.AmountBaseUnits.Sign() == 0
}

// String formats the balance with six decimal places and the symbol.
func (b BalanceSnapshot) String() string {
	return b.Human().StringFixed(6) + " " + b.Symbol
}
