package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-calc/api"
	"github.com/momentics/hioload-calc/internal/config"
	"github.com/momentics/hioload-calc/server"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, server.DefaultConfig(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calcd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
local_path: /tmp/calc.sock
port: 9000
backlog: 16
drain_pending: true
read_timeout: 2s
log_format: json
`), 0o600))

	t.Setenv("CALCD_PORT", "9100")
	t.Setenv("CALCD_WRITE_TIMEOUT", "750ms")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/calc.sock", cfg.LocalPath)
	assert.Equal(t, 9100, cfg.Port, "env overrides file")
	assert.Equal(t, 16, cfg.Backlog)
	assert.True(t, cfg.DrainPending)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.WriteTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 100, cfg.MaxEvents, "untouched fields keep defaults")
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calcd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prot: 1\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Equal(t, api.ErrCodeUsage, api.CodeOf(err))
}

func TestLoadEnvError(t *testing.T) {
	t.Setenv("CALCD_PORT", "not-an-int")
	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
	assert.Equal(t, api.ErrCodeUsage, api.CodeOf(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, api.ErrCodeUsage, api.CodeOf(err))
}
