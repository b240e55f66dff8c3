package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "ledger.db", cfg.DatabasePath)
	assert.Equal(t, 30*time.Minute, cfg.PasswordTTL)
}

func TestParseJSON_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"database_path": "/tmp/other.db", "password_ttl": "10m"}`), 0o600))

	oldArgs := os.Args
	os.Args = []string{"ledgerkeep", "-c", path}
	t.Cleanup(func() { os.Args = oldArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)

	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.Equal(t, 10*time.Minute, cfg.PasswordTTL)
}

func TestParseJSON_MissingFlagKeepsDefaults(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"ledgerkeep"}
	t.Cleanup(func() { os.Args = oldArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)

	assert.Equal(t, "ledger.db", cfg.DatabasePath)
}

func TestParseFlags_Overrides(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"ledgerkeep", "-d", "/tmp/cli.db", "-p", "5"}
	t.Cleanup(func() { os.Args = oldArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "/tmp/cli.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Minute, cfg.PasswordTTL)
}
