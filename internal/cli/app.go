package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/ledgerkeep/ledgerkeep/internal/backend"
	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logging"
	"github.com/ledgerkeep/ledgerkeep/internal/session"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/internal/syncer"

	_ "modernc.org/sqlite"
)

// App is the interactive shell. All state lives in the injected
// collaborators; the App itself only drives prompts and prints results.
type App struct {
	config   *config.Config
	store    *store.Store
	registry *backend.Registry
	session  *session.Session
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	reg := backend.NewRegistry()
	engine := syncer.NewEngine(st, reg, log)
	sess := session.New(engine, log, cfg.PasswordTTL)

	a := &App{
		config:   cfg,
		store:    st,
		registry: reg,
		session:  sess,
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
	a.restoreConnection(ctx)
	return a, nil
}

// restoreConnection reconnects to the previously configured backend, if any.
// Failures are logged and ignored: the user can always run "connect" again.
func (a *App) restoreConnection(ctx context.Context) {
	raw, err := a.store.KV.Get(ctx, store.KeyBackendConfig)
	if err != nil || raw == nil {
		return
	}
	var cfg backend.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		a.log.Warn(ctx, "saved connection config is unreadable", "error", err)
		return
	}
	if _, err := a.registry.CreateAndInitialize(ctx, &cfg); err != nil {
		a.log.Warn(ctx, "could not restore backend connection", "type", cfg.Type, "error", err)
		return
	}
	a.session.SetConnected(true)
	a.log.Info(ctx, "restored backend connection", "type", cfg.Type)
}

func (a *App) Run(ctx context.Context) {
	defer a.store.Close()
	a.Root(ctx)
}
