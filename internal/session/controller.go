// Package session runs one operator session: load the account, read the balance,
// confirm an amount, supply it to the pool and optionally withdraw.
package session

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/zlend/internal/chain"
	"github.com/vadiminshakov/zlend/internal/domain"
	"github.com/vadiminshakov/zlend/internal/lending"
	"github.com/vadiminshakov/zlend/internal/prompt"
	"go.uber.org/zap"
)

// ApprovalMode how the pool allowance is handled before supply.
type ApprovalMode string

const (
	// ApprovalExact approves the transfer amount when the allowance is short.
	ApprovalExact ApprovalMode = "exact"
	// ApprovalUnlimited approves 2^256-1 when the allowance is short.
	ApprovalUnlimited ApprovalMode = "unlimited"
	// ApprovalNone never approves; supply relies on an existing allowance.
	ApprovalNone ApprovalMode = "none"
)

// ParseApprovalMode validates s.
func ParseApprovalMode(s string) (ApprovalMode, error) {
	switch mode := ApprovalMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case ApprovalExact, ApprovalUnlimited, ApprovalNone:
		return mode, nil
	case "":
		return ApprovalExact, nil
	default:
		return "", errors.Errorf("unknown approval mode %q", s)
	}
}

// ChainClient connected chain client used by a session.
type ChainClient interface {
	lending.Chain
	GetBalance(ctx context.Context, token common.Address) (domain.BalanceSnapshot, error)
	Close()
}

// DialFunc connects to the chain with the operator's key.
type DialFunc func(ctx context.Context, key *ecdsa.PrivateKey) (ChainClient, error)

// Console operator I/O used by a session.
type Console interface {
	prompt.Console
	Secret(prompt string) (string, error)
	Confirm(question string) (bool, error)
}

// Config session settings.
type Config struct {
	Pool domain.PoolContractRef
	// PrivateKey preset key; when empty the operator is asked for it.
	PrivateKey string
	Approval   ApprovalMode
	// ExplorerURL base URL used to print transaction links.
	ExplorerURL string
}

// Controller sequences a single run. It is not reusable.
type Controller struct {
	cfg     Config
	console Console
	dial    DialFunc
	logger  *zap.Logger
	phase   Phase
}

// New creates a controller for one run.
func New(cfg Config, console Console, dial DialFunc, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Approval == "" {
		cfg.Approval = ApprovalExact
	}
	return &Controller{
		cfg:     cfg,
		console: console,
		dial:    dial,
		logger:  logger.With(zap.String("session", uuid.NewString())),
		phase:   PhaseIdle,
	}
}

// Phase returns the phase reached so far.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Run executes the session. A returned error means the run failed and the process
// should exit non-zero; a failed withdraw is logged but not returned.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("session started",
		zap.String("chain", c.cfg.Pool.ChainName),
		zap.String("pool", c.cfg.Pool.Pool.Hex()),
		zap.String("token", c.cfg.Pool.Token.Hex()),
		zap.String("approval", string(c.cfg.Approval)))

	key, err := c.acquireKey()
	if err != nil {
		return c.fail("failed to load private key", err)
	}

	client, err := c.dial(ctx, key)
	if err != nil {
		return c.fail("failed to connect to chain", &domain.ChainQueryError{Op: "connect", Err: err})
	}
	defer client.Close()

	position, err := lending.NewPosition(client, c.cfg.Pool, c.logger)
	if err != nil {
		return c.fail("failed to resolve pool contracts", err)
	}

	snapshot, err := client.GetBalance(ctx, c.cfg.Pool.Token)
	if err != nil {
		return c.fail("failed to fetch balance", &domain.ChainQueryError{Op: "balance", Err: err})
	}
	c.advance(PhaseBalanceFetched)
	c.logger.Info("balance fetched",
		zap.String("balance", snapshot.String()),
		zap.Stringer("base_units", snapshot.AmountBaseUnits))

	amount, err := prompt.NewAmountPrompt(c.console, c.logger).RequestAmount(snapshot)
	if err != nil {
		return c.fail("failed to get transfer amount", err)
	}
	c.advance(PhaseAmountConfirmed)
	c.logger.Info("amount confirmed",
		zap.String("amount", amount.Human(snapshot.Decimals).String()+" "+snapshot.Symbol),
		zap.Stringer("base_units", amount))

	if err := c.ensureApproval(ctx, position, amount); err != nil {
		return c.fail("approval failed", err)
	}

	c.logger.Info("supplying to pool")
	outcome, err := position.Supply(ctx, amount)
	if err != nil {
		return c.fail("supply failed", err)
	}
	c.report("supply", outcome)
	c.advance(PhaseSupplied)

	withdraw, err := c.console.Confirm("Withdraw from the pool?")
	if err != nil {
		c.logger.Warn("no withdraw answer, finishing", zap.Error(err))
		withdraw = false
	}
	if !withdraw {
		c.logger.Info("session finished without withdraw")
		c.advance(PhaseEnded)
		return nil
	}

	c.advance(PhaseWithdrawRequested)
	c.logger.Info("withdrawing from pool")
	outcome, err = position.Withdraw(ctx)
	if err != nil {
		// last step of the run, the supplied funds stay in the pool
		c.logger.Error("withdraw failed", zap.Error(err))
		c.console.Error(fmt.Sprintf("Withdraw failed: %v", err))
		c.advance(PhaseEnded)
		return nil
	}
	c.report("withdraw", outcome)
	c.advance(PhaseWithdrawn)
	c.advance(PhaseEnded)
	c.logger.Info("session finished")
	return nil
}

func (c *Controller) acquireKey() (*ecdsa.PrivateKey, error) {
	if preset := strings.TrimSpace(c.cfg.PrivateKey); preset != "" {
		key, address, err := chain.ParsePrivateKey(preset)
		if err != nil {
			return nil, errors.Wrap(err, "configured private key")
		}
		c.logger.Info("account loaded", zap.String("address", address.Hex()))
		return key, nil
	}

	for {
		secret, err := c.console.Secret("Enter private key: ")
		if err != nil {
			return nil, errors.Wrap(err, "read private key")
		}
		key, address, err := chain.ParsePrivateKey(secret)
		if err != nil {
			c.logger.Error("invalid private key", zap.Error(err))
			c.console.Error("Invalid private key, try again.")
			continue
		}
		c.logger.Info("account loaded", zap.String("address", address.Hex()))
		return key, nil
	}
}

func (c *Controller) ensureApproval(ctx context.Context, position *lending.Position, amount domain.TransferAmount) error {
	if c.cfg.Approval == ApprovalNone {
		c.logger.Warn("approval disabled, supply relies on an existing allowance")
		return nil
	}

	allowance, err := position.Allowance(ctx)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount.BaseUnits()) >= 0 {
		c.logger.Info("allowance covers amount, approval skipped", zap.Stringer("allowance", allowance))
		return nil
	}

	value := amount.BaseUnits()
	if c.cfg.Approval == ApprovalUnlimited {
		value = domain.MaxUint256()
	}
	outcome, err := position.Approve(ctx, value)
	if err != nil {
		return err
	}
	c.report("approve", outcome)
	return nil
}

func (c *Controller) report(op string, outcome *chain.Outcome) {
	if outcome == nil {
		return
	}
	c.logger.Info(op+" succeeded",
		zap.String("hash", outcome.Hash.Hex()),
		zap.Stringer("block", outcome.BlockNumber))

	link := outcome.Hash.Hex()
	if base := strings.TrimRight(c.cfg.ExplorerURL, "/"); base != "" {
		link = base + "/tx/" + link
	}
	msg := fmt.Sprintf("%s succeeded: %s", op, link)
	c.console.Info(msg)
}

func (c *Controller) fail(msg string, err error) error {
	c.logger.Error(msg, zap.Error(err), zap.Stringer("phase", c.phase))
	if !errors.Is(err, domain.ErrEmptyBalance) {
		c.console.Error(fmt.Sprintf("%s: %v", msg, err))
	}
	c.advance(PhaseEnded)
	return errors.Wrap(err, msg)
}

func (c *Controller) advance(next Phase) {
	if !c.phase.CanAdvanceTo(next) {
		c.logger.DPanic("illegal phase transition", zap.Stringer("from", c.phase), zap.Stringer("to", next))
		return
	}
	c.logger.Info("phase changed", zap.Stringer("from", c.phase), zap.Stringer("to", next))
	c.phase = next
}
