package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// PoolContractRef lending pool and the token it accepts on one chain.
type PoolContractRef struct {
	ChainName string
	Pool      common.Address
	Token     common.Address
}

// NewPoolContractRef builds a ref from hex addresses.
func NewPoolContractRef(chainName, pool, token string) (PoolContractRef, error) {
	if strings.TrimSpace(chainName) == "" {
		return PoolContractRef{}, errors.New("chain name is required")
	}
	if !common.IsHexAddress(pool) {
		return PoolContractRef{}, errors.Errorf("invalid pool address %q", pool)
	}
	if !common.IsHexAddress(token) {
		return PoolContractRef{}, errors.Errorf("invalid token address %q", token)
	}
	return PoolContractRef{
		ChainName: chainName,
		Pool:      common.HexToAddress(pool),
		Token:     common.HexToAddress(token),
	}, nil
}
