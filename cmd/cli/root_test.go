package cli

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Flags(t *testing.T) {
	for _, name := range []string{"config", "network", "rpc", "log-file", "log-level", "approval"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), name)
	}

	require.NoError(t, rootCmd.ParseFlags([]string{"--network", "linea", "--approval", "unlimited", "--rpc", "http://127.0.0.1:8545"}))
	assert.Equal(t, "linea", overrides.Network)
	assert.Equal(t, "unlimited", overrides.Approval)
	assert.Equal(t, "http://127.0.0.1:8545", overrides.RPC)
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"init"})
	require.NoError(t, err)
	assert.Equal(t, "init", cmd.Name())
	assert.Equal(t, "config.gen.yaml", cmd.Flags().Lookup("out").DefValue)

	cmd, _, err = rootCmd.Find([]string{"version"})
	require.NoError(t, err)
	assert.Equal(t, "version", cmd.Name())
}

func TestReportError(t *testing.T) {
	var out bytes.Buffer

	reportError(&out, errors.New("failed to load config: unknown network"))
	assert.Equal(t, "failed to load config: unknown network\n", out.String())

	out.Reset()
	sessionErr := errors.Wrap(&reportedError{err: errors.New("supply failed")}, "run")
	reportError(&out, sessionErr)
	assert.Empty(t, out.String())
	assert.EqualError(t, sessionErr, "run: supply failed")

	reportError(&out, nil)
	assert.Empty(t, out.String())
}
