package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// Input errors. These are recovered by re-prompting the operator.
var (
	ErrInvalidNumber   = errors.New("invalid number")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrExceedsBalance  = errors.New("amount exceeds balance")
	ErrBelowPrecision  = errors.New("amount is below token precision")
	ErrInvalidSlippage = errors.New("slippage must be between 0 and 100")
)

// ErrEmptyBalance no tokens available to transfer. Fatal for the run.
var ErrEmptyBalance = errors.New("no tokens available")

// InputError malformed or out-of-range operator input.
type InputError struct {
	Input string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.Input)
}

func (e *InputError) Unwrap() error { return e.Err }

// ChainQueryError read-only chain call failed (balance fetch, contract resolution).
type ChainQueryError struct {
	Op  string
	Err error
}

func (e *ChainQueryError) Error() string {
	return fmt.Sprintf("chain query %s: %v", e.Op, e.Err)
}

func (e *ChainQueryError) Unwrap() error { return e.Err }

// TransactionError transaction preparation or submission failed.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// IsInputError reports whether err is recoverable by asking the operator again.
func IsInputError(err error) bool {
	var inputErr *InputError
	return errors.As(err, &inputErr)
}
