// Package config loads runtime settings for the ledgerkeep CLI.
package config

import "time"

// Config holds runtime settings.
//
// Fields:
//   - DatabasePath: filesystem path of the local SQLite database.
//   - PasswordTTL: idle window after which the in-memory encryption
//     password is wiped and must be re-entered.
type Config struct {
	DatabasePath string
	PasswordTTL  time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "ledger.db"
	c.PasswordTTL = 30 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
