package prompt

import (
	"io"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/zlend/internal/domain"
	"go.uber.org/zap"
)

// scriptedConsole replays prepared answers and records everything shown.
type scriptedConsole struct {
	answers []string
	asked   int
	infos   []string
	warns   []string
	errors  []string
}

func (c *scriptedConsole) ReadLine(string) (string, error) {
	if c.asked >= len(c.answers) {
		return "", io.EOF
	}
	line := c.answers[c.asked]
	c.asked++
	return line, nil
}

func (c *scriptedConsole) Info(msg string)  { c.infos = append(c.infos, msg) }
func (c *scriptedConsole) Warn(msg string)  { c.warns = append(c.warns, msg) }
func (c *scriptedConsole) Error(msg string) { c.errors = append(c.errors, msg) }

func tenEth() domain.BalanceSnapshot {
	amount, _ := new(big.Int).SetString("10000000000000000000", 10)
	return domain.NewBalanceSnapshot(amount, 18, "ETH")
}

func TestRequestAmount_WithinBalance(t *testing.T) {
	console := &scriptedConsole{answers: []string{"5"}}
	p := NewAmountPrompt(console, zap.NewNop())

	amount, err := p.RequestAmount(tenEth())
	require.NoError(t, err)
	assert.Equal(t, "5000000000000000000", amount.String())
	assert.Equal(t, []string{"Your balance: 10.000000 ETH"}, console.infos)
	assert.Empty(t, console.errors)
}

func TestRequestAmount_ExceedsBalanceThenValid(t *testing.T) {
	console := &scriptedConsole{answers: []string{"15", "10"}}
	p := NewAmountPrompt(console, zap.NewNop())

	amount, err := p.RequestAmount(tenEth())
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000000", amount.String())
	assert.Equal(t, 2, console.asked)
	require.Len(t, console.errors, 2)
	assert.Contains(t, console.errors[0], "exceeds the balance by 5")
	assert.Contains(t, console.errors[1], "Maximum allowed amount is 10")
}

func TestRequestAmount_NonPositiveRejected(t *testing.T) {
	console := &scriptedConsole{answers: []string{"-3", "0", "1"}}
	p := NewAmountPrompt(console, zap.NewNop())

	amount, err := p.RequestAmount(tenEth())
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", amount.String())
	assert.Equal(t, 3, console.asked)
	require.Len(t, console.errors, 2)
	for _, msg := range console.errors {
		assert.Contains(t, msg, "Invalid amount")
	}
}

func TestRequestAmount_InvalidNumberRejected(t *testing.T) {
	console := &scriptedConsole{answers: []string{"abc", "", "1,5", " 2.5 "}}
	p := NewAmountPrompt(console, zap.NewNop())

	amount, err := p.RequestAmount(tenEth())
	require.NoError(t, err)
	assert.Equal(t, "2500000000000000000", amount.String())
	require.Len(t, console.errors, 3)
	for _, msg := range console.errors {
		assert.Contains(t, msg, "Invalid number")
	}
}

func TestRequestAmount_EmptyBalance(t *testing.T) {
	empty := domain.NewBalanceSnapshot(big.NewInt(0), 18, "ETH")

	t.Run("valid positive input is fatal", func(t *testing.T) {
		console := &scriptedConsole{answers: []string{"1", "unreachable"}}
		p := NewAmountPrompt(console, zap.NewNop())

		amount, err := p.RequestAmount(empty)
		assert.ErrorIs(t, err, domain.ErrEmptyBalance)
		assert.True(t, amount.IsZero())
		assert.Equal(t, 1, console.asked)
	})

	t.Run("zero and garbage are re-prompted before the fatal check", func(t *testing.T) {
		console := &scriptedConsole{answers: []string{"0", "x", "-1", "0.5"}}
		p := NewAmountPrompt(console, zap.NewNop())

		_, err := p.RequestAmount(empty)
		assert.ErrorIs(t, err, domain.ErrEmptyBalance)
		assert.Equal(t, 4, console.asked)
		assert.Len(t, console.errors, 4)
		assert.Contains(t, console.errors[3], "No tokens available")
	})
}

func TestRequestAmount_TruncatesExcessPrecision(t *testing.T) {
	snapshot := domain.NewBalanceSnapshot(big.NewInt(5_000_000), 6, "USDC")
	console := &scriptedConsole{answers: []string{"0.0000001", "1.2345678"}}
	p := NewAmountPrompt(console, zap.NewNop())

	amount, err := p.RequestAmount(snapshot)
	require.NoError(t, err)
	assert.Equal(t, "1234567", amount.String())
	require.Len(t, console.errors, 1)
	assert.Contains(t, console.errors[0], "precision")
}

func TestRequestAmount_ExtremeExponentsRejected(t *testing.T) {
	console := &scriptedConsole{answers: []string{"1e99999999", "1e-99999999", "-1e99999999", "5"}}
	p := NewAmountPrompt(console, zap.NewNop())

	amount, err := p.RequestAmount(tenEth())
	require.NoError(t, err)
	assert.Equal(t, "5000000000000000000", amount.String())
	assert.Equal(t, 4, console.asked)

	require.Len(t, console.errors, 4)
	assert.Contains(t, console.errors[0], "exceeds the balance")
	assert.Contains(t, console.errors[1], "Maximum allowed amount is 10")
	assert.Contains(t, console.errors[2], "precision")
	assert.Contains(t, console.errors[3], "greater than zero")
}

func TestRequestAmount_InputClosed(t *testing.T) {
	console := &scriptedConsole{answers: []string{"abc"}}
	p := NewAmountPrompt(console, zap.NewNop())

	_, err := p.RequestAmount(tenEth())
	assert.ErrorIs(t, err, io.EOF)
}

func TestRequestAmount_NeverExceedsBalance(t *testing.T) {
	snapshot := domain.NewBalanceSnapshot(big.NewInt(123_456_789), 6, "USDC")
	inputs := []string{"0.000001", "1", "99.999999", "123.456789", "100.0000009", "50.5"}

	for _, in := range inputs {
		console := &scriptedConsole{answers: []string{in}}
		amount, err := NewAmountPrompt(console, nil).RequestAmount(snapshot)
		require.NoError(t, err, in)

		expected := domain.ToBaseUnits(decimal.RequireFromString(in), 6)
		assert.Equal(t, expected.String(), amount.String(), in)
		assert.Positive(t, amount.BaseUnits().Sign(), in)
		assert.LessOrEqual(t, amount.BaseUnits().Cmp(snapshot.AmountBaseUnits), 0, in)
	}
}

func TestRequestSlippage(t *testing.T) {
	console := &scriptedConsole{answers: []string{"abc", "0", "100", "-5", "0.5"}}
	p := NewAmountPrompt(console, zap.NewNop())

	slippage, err := p.RequestSlippage()
	require.NoError(t, err)
	assert.True(t, slippage.Percent().Equal(decimal.RequireFromString("0.5")))
	assert.Len(t, console.errors, 1)
	assert.Len(t, console.warns, 3)
}

func TestRequestSlippage_InputClosed(t *testing.T) {
	console := &scriptedConsole{}
	_, err := NewAmountPrompt(console, zap.NewNop()).RequestSlippage()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRequestSlippage_ExtremeExponents(t *testing.T) {
	console := &scriptedConsole{answers: []string{"1e99999999", "1e-99999999"}}
	p := NewAmountPrompt(console, zap.NewNop())

	slippage, err := p.RequestSlippage()
	require.NoError(t, err)
	assert.Equal(t, int32(-99999999), slippage.Percent().Exponent())
	assert.Len(t, console.warns, 1)
}
