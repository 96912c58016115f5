package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Slippage tolerated adverse price movement in percent, strictly inside (0, 100).
type Slippage struct {
	percent decimal.Decimal
}

// NewSlippage validates percent.
func NewSlippage(percent decimal.Decimal) (Slippage, error) {
	if !percent.IsPositive() {
		return Slippage{}, ErrInvalidSlippage
	}
	// anything with fewer than three integer digits is below 100
	switch digits := IntegerDigits(percent); {
	case digits > 3:
		return Slippage{}, ErrInvalidSlippage
	case digits == 3 && percent.GreaterThanOrEqual(hundred):
		return Slippage{}, ErrInvalidSlippage
	}
	return Slippage{percent: percent}, nil
}

// Percent returns the slippage in percent.
func (s Slippage) Percent() decimal.Decimal {
	return s.percent
}
