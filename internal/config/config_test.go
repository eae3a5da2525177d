package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:8000", cfg.Address)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, JournalMemory, cfg.Journal)
	assert.Equal(t, 256, cfg.JournalDepth)
}

func TestLoadMissingFileIsOptional(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
address: ":9100"
log_level: debug
journal: redis
journal_depth: 64
redis:
  address: "localhost:6379"
  db: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Address)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, JournalRedis, cfg.Journal)
	assert.Equal(t, 64, cfg.JournalDepth)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `address: ":9100"`)
	t.Setenv("NEURO_ADDRESS", ":9200")
	t.Setenv("NEURO_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9200", cfg.Address)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadRejectsUnknownJournal(t *testing.T) {
	path := writeConfig(t, `journal: cassette`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown journal backend")
}

func TestLoadRejectsHalfTLS(t *testing.T) {
	path := writeConfig(t, `tls_cert: /tmp/cert.pem`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "must be set together")
}

func TestLoadRedisJournalNeedsAddress(t *testing.T) {
	path := writeConfig(t, `journal: redis`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "redis journal requires")
}
