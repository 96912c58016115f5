package cli

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vadiminshakov/zlend/config"
	"github.com/vadiminshakov/zlend/internal/chain"
	"github.com/vadiminshakov/zlend/internal/console"
	"github.com/vadiminshakov/zlend/internal/logging"
	"github.com/vadiminshakov/zlend/internal/session"
	"github.com/vadiminshakov/zlend/internal/setup"
)

const (
	Major  = "0"
	Minor  = "1"
	Fix    = "0"
	Verbal = "Linea"
)

var overrides config.Overrides //nolint:gochecknoglobals

var rootCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:           "zlend",
	Short:         "Supply a stablecoin to a lending pool and optionally withdraw it.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

var versionCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "version",
	Short: "Describes version.",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("Version: %s.%s.%s %s\n", Major, Minor, Fix, Verbal)
	},
}

var initOut string //nolint:gochecknoglobals

var initCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "init",
	Short: "Write a config file interactively.",
	RunE: func(_ *cobra.Command, _ []string) error {
		return setup.RunTUI(initOut)
	},
}

func init() { //nolint:gochecknoinits
	flags := rootCmd.Flags()
	flags.StringVar(&overrides.ConfigPath, "config", "", "path to yaml config")
	flags.StringVar(&overrides.Network, "network", "", "network name from the network table, default linea")
	flags.StringVar(&overrides.RPC, "rpc", "", "RPC endpoint, overrides the network default")
	flags.StringVar(&overrides.LogFile, "log-file", "", "log file path, default zlend.log")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&overrides.Approval, "approval", "", "approval mode: exact, unlimited, none")

	initCmd.Flags().StringVar(&initOut, "out", "config.gen.yaml", "where to write the config")

	rootCmd.AddCommand(versionCmd, initCmd)
}

// Run enters into the cobra command.
func Run() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err)
		return err
	}
	return nil
}

func run(ctx context.Context) error {
	cfg, err := config.Load(overrides)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer closeLog()

	term := console.NewTerminal()
	term.Banner("ZLEND", fmt.Sprintf("%s pool %s", cfg.Network.Name, cfg.Network.Pool.Hex()))

	dial := func(ctx context.Context, key *ecdsa.PrivateKey) (session.ChainClient, error) {
		client, err := chain.Dial(ctx, cfg.Network.ChainOptions(cfg.ReceiptTimeout, logger), key)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	controller := session.New(session.Config{
		Pool:        cfg.Network.PoolRef(),
		PrivateKey:  os.Getenv(config.PrivateKeyEnv),
		Approval:    cfg.Approval,
		ExplorerURL: cfg.Network.ExplorerURL,
	}, term, dial, logger)

	if err := controller.Run(ctx); err != nil {
		// already logged and shown by the session
		return &reportedError{err: err}
	}
	return nil
}

// reportedError wraps a failure the operator has already seen.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// reportError prints err to w unless it was already shown.
func reportError(w io.Writer, err error) {
	var reported *reportedError
	if err == nil || errors.As(err, &reported) {
		return
	}
	_, _ = fmt.Fprintln(w, err)
}
