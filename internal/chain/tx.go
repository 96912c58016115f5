package chain

import (
	"context"
	"math/big"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/zlend/pkg/retrier"
	"go.uber.org/zap"
)

// TxFields fields shared by every transaction of the account.
type TxFields struct {
	ChainID *big.Int
	Nonce   uint64
	// GasTipCap and GasFeeCap are set on EIP-1559 chains.
	GasTipCap *big.Int
	GasFeeCap *big.Int
	// GasPrice is set on chains without a base fee.
	GasPrice *big.Int
}

// IsDynamicFee reports whether the fields describe an EIP-1559 transaction.
func (f TxFields) IsDynamicFee() bool {
	return f.GasFeeCap != nil
}

// Outcome mined transaction receipt summary.
type Outcome struct {
	Hash        common.Hash
	BlockNumber *big.Int
	GasUsed     uint64
	Status      uint64
}

// PrepareTransaction resolves nonce, chain id and fees for the next transaction.
func (c *Client) PrepareTransaction(ctx context.Context) (TxFields, error) {
	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return TxFields{}, errors.Wrap(err, "get chain id")
	}
	nonce, err := c.backend.PendingNonceAt(ctx, c.address)
	if err != nil {
		return TxFields{}, errors.Wrap(err, "get nonce")
	}
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return TxFields{}, errors.Wrap(err, "get latest header")
	}

	fields := TxFields{ChainID: chainID, Nonce: nonce}
	if head.BaseFee == nil {
		price, err := c.backend.SuggestGasPrice(ctx)
		if err != nil {
			return TxFields{}, errors.Wrap(err, "suggest gas price")
		}
		fields.GasPrice = price
		return fields, nil
	}

	tip, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return TxFields{}, errors.Wrap(err, "suggest gas tip")
	}
	fields.GasTipCap = tip
	// fee cap = 2 * baseFee + tip
	fields.GasFeeCap = new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
	return fields, nil
}

// SendTransaction estimates gas for call, signs it with fields and waits until it is mined.
// A reverted transaction is returned as an error together with its outcome.
func (c *Client) SendTransaction(ctx context.Context, fields TxFields, call Call) (*Outcome, error) {
	if fields.ChainID == nil {
		return nil, errors.New("transaction fields are not prepared")
	}

	to := call.To
	gas, err := c.backend.EstimateGas(ctx, gethcore.CallMsg{
		From:      c.address,
		To:        &to,
		Data:      call.Data,
		GasPrice:  fields.GasPrice,
		GasTipCap: fields.GasTipCap,
		GasFeeCap: fields.GasFeeCap,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "estimate gas for %s", call.Method)
	}
	gasLimit := uint64(decimal.NewFromInt(int64(gas)).Mul(c.opts.GasLimitMultiplier).Ceil().IntPart())

	var tx *coretypes.Transaction
	if fields.IsDynamicFee() {
		tx = coretypes.NewTx(&coretypes.DynamicFeeTx{
			ChainID:   fields.ChainID,
			Nonce:     fields.Nonce,
			GasTipCap: fields.GasTipCap,
			GasFeeCap: fields.GasFeeCap,
			Gas:       gasLimit,
			To:        &to,
			Data:      call.Data,
		})
	} else {
		tx = coretypes.NewTx(&coretypes.LegacyTx{
			Nonce:    fields.Nonce,
			GasPrice: fields.GasPrice,
			Gas:      gasLimit,
			To:       &to,
			Data:     call.Data,
		})
	}

	signed, err := coretypes.SignTx(tx, coretypes.LatestSignerForChainID(fields.ChainID), c.key)
	if err != nil {
		return nil, errors.Wrap(err, "sign transaction")
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return nil, errors.Wrapf(err, "send %s transaction", call.Method)
	}
	c.logger.Info("transaction submitted",
		zap.String("method", call.Method),
		zap.String("hash", signed.Hash().Hex()),
		zap.Uint64("nonce", fields.Nonce),
		zap.Uint64("gas_limit", gasLimit))

	receipt, err := c.waitMined(ctx, signed.Hash())
	if err != nil {
		return nil, errors.Wrapf(err, "wait for %s", signed.Hash().Hex())
	}

	outcome := &Outcome{
		Hash:        receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
		Status:      receipt.Status,
	}
	if receipt.Status != coretypes.ReceiptStatusSuccessful {
		return outcome, errors.Errorf("%s transaction %s reverted", call.Method, receipt.TxHash.Hex())
	}

	c.logger.Info("transaction mined",
		zap.String("method", call.Method),
		zap.String("hash", receipt.TxHash.Hex()),
		zap.Stringer("block", receipt.BlockNumber),
		zap.Uint64("gas_used", receipt.GasUsed))
	return outcome, nil
}

func (c *Client) waitMined(ctx context.Context, hash common.Hash) (*coretypes.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ReceiptTimeout)
	defer cancel()

	poll := retrier.New(
		retrier.WithInitialInterval(c.opts.ReceiptPollInterval),
		retrier.WithMaxInterval(4*c.opts.ReceiptPollInterval),
		retrier.WithMaxRetries(-1),
		retrier.WithRetryIf(func(err error) bool { return errors.Is(err, gethcore.NotFound) }),
	)

	return retrier.DoWithData(ctx, poll, func(ctx context.Context) (*coretypes.Receipt, error) {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt == nil {
			return nil, gethcore.NotFound
		}
		return receipt, nil
	})
}
