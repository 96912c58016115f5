// Package domain defines the value types shared by the lending agent.
package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToHuman converts a base-unit integer into a human-decimal amount: amount / 10^decimals.
// The conversion is exact for any amount size.
func ToHuman(amountBaseUnits *big.Int, decimals uint8) decimal.Decimal {
	if amountBaseUnits == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amountBaseUnits, -int32(decimals))
}

// ToBaseUnits converts a human-decimal amount into base units, rounding toward zero.
// Digits beyond the token precision are dropped, not rejected.
func ToBaseUnits(humanAmount decimal.Decimal, decimals uint8) *big.Int {
	return humanAmount.Shift(int32(decimals)).Truncate(0).BigInt()
}

// MaxIntegerDigits decimal digits of 2^256-1; no token amount has more.
const MaxIntegerDigits = 78

// IntegerDigits returns the position of the leading digit relative to the decimal point:
// 3 for 123.4, 1 for 1.5, 0 for 0.5, -2 for 0.001. It only reads the coefficient length
// and the exponent, so it stays cheap for inputs like 1e99999999 where rescaling is not.
func IntegerDigits(d decimal.Decimal) int {
	if d.IsZero() {
		return 0
	}
	return d.NumDigits() + int(d.Exponent())
}
