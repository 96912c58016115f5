package chain

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// ParsePrivateKey decodes a hex private key (optionally 0x-prefixed) and derives its address.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, common.Address, error) {
	key := strings.TrimSpace(hexKey)
	if len(key) >= 2 && (key[:2] == "0x" || key[:2] == "0X") {
		key = key[2:]
	}
	if key == "" {
		return nil, common.Address{}, errors.New("private key is empty")
	}

	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, common.Address{}, errors.Wrap(err, "decode private key")
	}

	pub, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, common.Address{}, errors.New("error casting public key to ECDSA")
	}

	return privateKey, crypto.PubkeyToAddress(*pub), nil
}
