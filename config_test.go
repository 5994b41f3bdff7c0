package unitconverter_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unitconverter"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{unitconverter.EnvDBPath, unitconverter.EnvListenAddr, unitconverter.EnvLogLevel} {
		if v, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, v) })
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := unitconverter.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, unitconverter.DefaultConfig(), cfg)

	cfg, err = unitconverter.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, unitconverter.DefaultConfig(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: /var/lib/conv.db\nlog_level: debug\n"), 0o600))

	cfg, err := unitconverter.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/conv.db", cfg.DBPath)
	assert.Equal(t, unitconverter.DefaultListenAddr, cfg.ListenAddr)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: 0.0.0.0:9000\n"), 0o600))
	t.Setenv(unitconverter.EnvListenAddr, "127.0.0.1:9100")
	t.Setenv(unitconverter.EnvDBPath, ":memory:")
	t.Setenv(unitconverter.EnvLogLevel, "WARN")

	cfg, err := unitconverter.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.ListenAddr)
	assert.Equal(t, ":memory:", cfg.DBPath)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestLoadConfigInvalid(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("listen_addr: [unclosed\n"), 0o600))
	_, err := unitconverter.LoadConfig(bad)
	require.Error(t, err)

	level := filepath.Join(dir, "level.yaml")
	require.NoError(t, os.WriteFile(level, []byte("log_level: verbose\n"), 0o600))
	_, err = unitconverter.LoadConfig(level)
	require.ErrorIs(t, err, unitconverter.ErrInvalidConfig)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("listen_addr: \"\"\n"), 0o600))
	_, err = unitconverter.LoadConfig(empty)
	require.ErrorIs(t, err, unitconverter.ErrInvalidConfig)
}
