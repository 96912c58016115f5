package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransferAmount(t *testing.T) {
	snapshot := NewBalanceSnapshot(big.NewInt(1_000_000), 6, "USDC")

	tests := []struct {
		name    string
		amount  *big.Int
		wantErr error
	}{
		{name: "within balance", amount: big.NewInt(500_000)},
		{name: "whole balance", amount: big.NewInt(1_000_000)},
		{name: "zero", amount: big.NewInt(0), wantErr: ErrInvalidAmount},
		{name: "negative", amount: big.NewInt(-1), wantErr: ErrInvalidAmount},
		{name: "nil", amount: nil, wantErr: ErrInvalidAmount},
		{name: "above balance", amount: big.NewInt(1_000_001), wantErr: ErrExceedsBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTransferAmount(tt.amount, snapshot)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.amount.String(), got.String())
		})
	}
}

func TestNewTransferAmount_Uint256Overflow(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 256)
	snapshot := NewBalanceSnapshot(new(big.Int).Mul(huge, big.NewInt(2)), 18, "ETH")

	_, err := NewTransferAmount(huge, snapshot)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTransferAmount_BaseUnitsIsCopy(t *testing.T) {
	snapshot := NewBalanceSnapshot(big.NewInt(10), 0, "X")
	amount, err := NewTransferAmount(big.NewInt(7), snapshot)
	require.NoError(t, err)

	amount.BaseUnits().SetInt64(1)
	assert.Equal(t, "7", amount.String())
	assert.True(t, amount.Human(0).Equal(decimal.NewFromInt(7)))
}

func TestMaxUint256(t *testing.T) {
	expected := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	assert.Equal(t, 0, expected.Cmp(MaxUint256()))
}

func TestNewSlippage(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{name: "typical", value: "0.5", ok: true},
		{name: "just below hundred", value: "99.99", ok: true},
		{name: "zero", value: "0"},
		{name: "hundred", value: "100"},
		{name: "negative", value: "-1"},
		{name: "three digits", value: "150"},
		{name: "huge exponent", value: "1e99999999"},
		{name: "tiny exponent", value: "1e-99999999", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSlippage(decimal.RequireFromString(tt.value))
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidSlippage)
				return
			}
			require.NoError(t, err)
			assert.True(t, s.Percent().Equal(decimal.RequireFromString(tt.value)))
		})
	}
}

func TestNewPoolContractRef(t *testing.T) {
	ref, err := NewPoolContractRef("linea",
		"0x2f9bB73a8e98793e26Cb2F6C4ad037BDf1C6B269",
		"0x176211869cA2b568f2A7D4EE941E073a821EE1ff")
	require.NoError(t, err)
	assert.Equal(t, "linea", ref.ChainName)
	assert.Equal(t, common.HexToAddress("0x176211869cA2b568f2A7D4EE941E073a821EE1ff"), ref.Token)

	_, err = NewPoolContractRef("linea", "not-an-address", "0x176211869cA2b568f2A7D4EE941E073a821EE1ff")
	assert.Error(t, err)

	_, err = NewPoolContractRef("", "0x2f9bB73a8e98793e26Cb2F6C4ad037BDf1C6B269", "0x176211869cA2b568f2A7D4EE941E073a821EE1ff")
	assert.Error(t, err)
}

func TestErrorTaxonomy(t *testing.T) {
	inputErr := &InputError{Input: "abc", Err: ErrInvalidNumber}
	assert.True(t, IsInputError(inputErr))
	assert.ErrorIs(t, inputErr, ErrInvalidNumber)

	txErr := &TransactionError{Op: "supply", Err: assert.AnError}
	assert.False(t, IsInputError(txErr))
	assert.ErrorIs(t, txErr, assert.AnError)
	assert.Contains(t, txErr.Error(), "supply")

	queryErr := &ChainQueryError{Op: "balance", Err: assert.AnError}
	assert.ErrorIs(t, queryErr, assert.AnError)
}
