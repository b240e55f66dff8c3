package config

import (
	"flag"
	"os"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   path to the local database file
//	-p int      password idle timeout in minutes
//
// The function filters os.Args to only the flags it knows about, using
// flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database file")
	passwordTTL := fs.Int("p", int(cfg.PasswordTTL.Minutes()), "password idle timeout (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PasswordTTL = time.Duration(*passwordTTL) * time.Minute
}
