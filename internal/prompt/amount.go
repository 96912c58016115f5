// Package prompt turns operator input into validated amounts.
package prompt

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/zlend/internal/domain"
	"go.uber.org/zap"
)

// Console line-based operator I/O.
type Console interface {
	ReadLine(prompt string) (string, error)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// AmountPrompt asks the operator for amounts until a valid one is entered.
type AmountPrompt struct {
	console Console
	logger  *zap.Logger
}

// NewAmountPrompt creates a new AmountPrompt.
func NewAmountPrompt(console Console, logger *zap.Logger) *AmountPrompt {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmountPrompt{console: console, logger: logger}
}

// RequestAmount blocks until the operator enters an amount that fits the snapshot.
//
// Malformed, non-positive and over-balance input is reported and asked again.
// An empty balance is only detected once a valid positive number was entered;
// it ends the loop with domain.ErrEmptyBalance.
func (p *AmountPrompt) RequestAmount(snapshot domain.BalanceSnapshot) (domain.TransferAmount, error) {
	balance := snapshot.Human()
	p.console.Info(fmt.Sprintf("Your balance: %s", snapshot))

	question := fmt.Sprintf("Enter amount of %s to transfer: ", snapshot.Symbol)
	for {
		line, err := p.console.ReadLine(question)
		if err != nil {
			return domain.TransferAmount{}, errors.Wrap(err, "read amount")
		}

		amount, err := p.checkAmount(line, snapshot, balance)
		if err == nil {
			return amount, nil
		}
		if errors.Is(err, domain.ErrEmptyBalance) {
			p.console.Error("No tokens available on your account")
			return domain.TransferAmount{}, err
		}
		if !domain.IsInputError(err) {
			return domain.TransferAmount{}, err
		}

		p.logger.Debug("amount rejected", zap.String("input", line), zap.Error(err))
		p.reportAmountError(err, line, balance)
	}
}

func (p *AmountPrompt) checkAmount(line string, snapshot domain.BalanceSnapshot, balance decimal.Decimal) (domain.TransferAmount, error) {
	value, err := parseNumber(line)
	if err != nil {
		return domain.TransferAmount{}, err
	}
	if !value.IsPositive() {
		return domain.TransferAmount{}, &domain.InputError{Input: line, Err: domain.ErrInvalidAmount}
	}
	if snapshot.IsEmpty() {
		return domain.TransferAmount{}, domain.ErrEmptyBalance
	}
	// bound the magnitude before GreaterThan, which rescales both operands
	switch digits := domain.IntegerDigits(value); {
	case digits > domain.MaxIntegerDigits:
		return domain.TransferAmount{}, &domain.InputError{Input: line, Err: domain.ErrExceedsBalance}
	case digits <= -int(snapshot.Decimals):
		return domain.TransferAmount{}, &domain.InputError{Input: line, Err: domain.ErrBelowPrecision}
	case value.GreaterThan(balance):
		return domain.TransferAmount{}, &domain.InputError{Input: line, Err: domain.ErrExceedsBalance}
	}

	baseUnits := domain.ToBaseUnits(value, snapshot.Decimals)
	if baseUnits.Sign() == 0 {
		return domain.TransferAmount{}, &domain.InputError{Input: line, Err: domain.ErrBelowPrecision}
	}

	amount, err := domain.NewTransferAmount(baseUnits, snapshot)
	if err != nil {
		return domain.TransferAmount{}, &domain.InputError{Input: line, Err: err}
	}
	return amount, nil
}

func (p *AmountPrompt) reportAmountError(err error, line string, balance decimal.Decimal) {
	switch {
	case errors.Is(err, domain.ErrExceedsBalance):
		value, _ := parseNumber(line)
		if domain.IntegerDigits(value) > domain.MaxIntegerDigits {
			p.console.Error(fmt.Sprintf("Entered amount exceeds the balance by more than 10^%d", domain.MaxIntegerDigits))
		} else {
			p.console.Error(fmt.Sprintf("Entered amount exceeds the balance by %s", value.Sub(balance)))
		}
		p.console.Error(fmt.Sprintf("Maximum allowed amount is %s", balance))
	case errors.Is(err, domain.ErrBelowPrecision):
		p.console.Error("Amount is smaller than the token precision, enter a larger amount.")
	case errors.Is(err, domain.ErrInvalidNumber):
		p.console.Error("Invalid number, please enter a decimal amount.")
	default:
		p.console.Error("Invalid amount, it must be greater than zero.")
	}
}

// RequestSlippage blocks until the operator enters a percentage inside (0, 100).
func (p *AmountPrompt) RequestSlippage() (domain.Slippage, error) {
	for {
		line, err := p.console.ReadLine("Enter allowed slippage in %: ")
		if err != nil {
			return domain.Slippage{}, errors.Wrap(err, "read slippage")
		}

		value, err := parseNumber(line)
		if err != nil {
			p.console.Error("Invalid number, please enter a decimal amount.")
			continue
		}
		slippage, err := domain.NewSlippage(value)
		if err != nil {
			p.console.Warn("Slippage must be greater than 0 and less than 100.")
			continue
		}
		return slippage, nil
	}
}

func parseNumber(line string) (decimal.Decimal, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return decimal.Zero, &domain.InputError{Input: line, Err: domain.ErrInvalidNumber}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &domain.InputError{Input: line, Err: domain.ErrInvalidNumber}
	}
	return d, nil
}
