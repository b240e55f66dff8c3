package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/flagx"
	"github.com/ledgerkeep/ledgerkeep/internal/timex"
)

// jsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30m"
// or as integer nanoseconds.
type jsonConfig struct {
	DatabasePath string         `json:"database_path"`
	PasswordTTL  timex.Duration `json:"password_ttl"`
}

// parseJSON overlays cfg with values loaded from the JSON file named by the
// -c/-config flag, if one was given. Read or unmarshal errors panic; the
// process cannot do anything useful with a broken config file.
func parseJSON(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc jsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.PasswordTTL.Duration > 0 {
		cfg.PasswordTTL = time.Duration(jc.PasswordTTL.Duration)
	}
}
