package setup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/zlend/config"
	"github.com/vadiminshakov/zlend/internal/session"
)

func TestSave_DefaultsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.gen.yaml")

	require.NoError(t, Save(path, BuildConfig(DefaultAnswers())))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "networks:")

	cfg, err := config.Load(config.Overrides{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "linea", cfg.Network.Name)
	assert.Equal(t, session.ApprovalExact, cfg.Approval)
	assert.Equal(t, "zlend.log", cfg.Log.File)
}

func TestSave_CustomRPC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.gen.yaml")
	a := DefaultAnswers()
	a.Network = "Linea"
	a.RPC = " https://linea.drpc.org "
	a.Approval = string(session.ApprovalUnlimited)
	a.LogLevel = "debug"

	require.NoError(t, Save(path, BuildConfig(a)))

	cfg, err := config.Load(config.Overrides{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "https://linea.drpc.org", cfg.Network.RPCURL)
	assert.Equal(t, int64(59144), cfg.Network.ChainID)
	assert.Equal(t, session.ApprovalUnlimited, cfg.Approval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSave_RejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.gen.yaml")
	a := DefaultAnswers()
	a.Approval = "sometimes"

	assert.Error(t, Save(path, BuildConfig(a)))
}

func TestValidateRPC(t *testing.T) {
	assert.NoError(t, validateRPC(""))
	assert.NoError(t, validateRPC("https://rpc.linea.build"))
	assert.NoError(t, validateRPC("wss://linea.drpc.org"))
	assert.Error(t, validateRPC("ftp://example.com"))
	assert.Error(t, validateRPC("rpc.linea.build"))
}
