package chain

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Call target and calldata of a contract invocation.
type Call struct {
	To     common.Address
	Data   []byte
	Method string
}

// Caller executes read-only contract calls.
type Caller interface {
	Call(ctx context.Context, call Call) ([]byte, error)
}

// Contract deployed contract with its ABI.
type Contract struct {
	Address common.Address
	abi     abi.ABI
}

// NewContract parses abiJSON and binds it to address.
func NewContract(address common.Address, abiJSON string) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, errors.Wrap(err, "parse ABI")
	}
	return &Contract{Address: address, abi: parsed}, nil
}

// Pack encodes a call of method with args.
func (c *Contract) Pack(method string, args ...any) (Call, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return Call{}, errors.Wrapf(err, "pack %s", method)
	}
	return Call{To: c.Address, Data: data, Method: method}, nil
}

// Unpack decodes the return data of method.
func (c *Contract) Unpack(method string, data []byte) ([]any, error) {
	out, err := c.abi.Unpack(method, data)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	return out, nil
}

// Read packs, calls and unpacks a view method.
func (c *Contract) Read(ctx context.Context, caller Caller, method string, args ...any) ([]any, error) {
	call, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	raw, err := caller.Call(ctx, call)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s", method)
	}
	return c.Unpack(method, raw)
}

// ReadOne is Read for methods with a single return value of type T.
func ReadOne[T any](ctx context.Context, c *Contract, caller Caller, method string, args ...any) (T, error) {
	var zero T
	out, err := c.Read(ctx, caller, method, args...)
	if err != nil {
		return zero, err
	}
	if len(out) != 1 {
		return zero, errors.Errorf("%s returned %d values", method, len(out))
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, errors.Errorf("%s returned unexpected type %T", method, out[0])
	}
	return v, nil
}
