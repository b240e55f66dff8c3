// Package session holds the thin orchestration state between the UI and the
// sync engine: connection status, last sync outcome, and the in-memory
// encryption password with its inactivity expiry. It owns no merge logic.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/logging"
	"github.com/ledgerkeep/ledgerkeep/internal/syncer"
)

// Status is the user-visible sync state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusError   Status = "error"
)

// DefaultPasswordTTL is how long the encryption password survives without a
// sync-triggering action before it is wiped and must be re-entered.
const DefaultPasswordTTL = 30 * time.Minute

// Syncer is the slice of the engine the session drives.
type Syncer interface {
	Sync(ctx context.Context, password string) syncer.Result
	ForceUpload(ctx context.Context, password string) syncer.Result
	ForceDownload(ctx context.Context, password string) syncer.Result
}

// Session is safe for concurrent use. The password is only ever mutated by
// explicit set/clear calls and the expiry timer; engine runs read it once on
// entry.
type Session struct {
	engine Syncer
	log    logging.Logger
	ttl    time.Duration

	mu          sync.Mutex
	status      Status
	isConnected bool
	lastSyncAt  time.Time
	lastError   string
	password    string
	expiry      *time.Timer
}

func New(engine Syncer, log logging.Logger, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultPasswordTTL
	}
	return &Session{engine: engine, log: log, ttl: ttl, status: StatusIdle}
}

// SetPassword stores the encryption password in memory only and arms the
// inactivity timer.
func (s *Session) SetPassword(password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.password = password
	s.touchLocked()
}

// Password returns the held password and whether one is set.
func (s *Session) Password() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.password, s.password != ""
}

// ClearPassword wipes the held password immediately.
func (s *Session) ClearPassword() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearPasswordLocked()
}

func (s *Session) clearPasswordLocked() {
	s.password = ""
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
}

// touchLocked re-arms the expiry timer. Called on every sync-triggering
// action so an active user never has to re-enter the password.
func (s *Session) touchLocked() {
	if s.expiry != nil {
		s.expiry.Stop()
	}
	if s.password == "" {
		return
	}
	s.expiry = time.AfterFunc(s.ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.log.Info(context.Background(), "encryption password expired after inactivity")
		s.clearPasswordLocked()
	})
}

func (s *Session) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isConnected = connected
}

func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isConnected
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) LastSyncAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSyncAt, !s.lastSyncAt.IsZero()
}

func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// run sequences one engine entry point: read the password, flip the status,
// invoke, and map the result to user-facing state.
func (s *Session) run(ctx context.Context, op func(ctx context.Context, password string) syncer.Result) syncer.Result {
	s.mu.Lock()
	password := s.password
	s.touchLocked()
	s.status = StatusSyncing
	s.mu.Unlock()

	res := op(ctx, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Success {
		s.status = StatusSynced
		s.lastSyncAt = res.Timestamp
		s.lastError = ""
	} else {
		s.status = StatusError
		s.lastError = res.Message
		if res.AuthFailed {
			// saved config stays; reconnecting is one command away
			s.isConnected = false
		}
	}
	return res
}

func (s *Session) Sync(ctx context.Context) syncer.Result {
	return s.run(ctx, s.engine.Sync)
}

func (s *Session) ForceUpload(ctx context.Context) syncer.Result {
	return s.run(ctx, s.engine.ForceUpload)
}

func (s *Session) ForceDownload(ctx context.Context) syncer.Result {
	return s.run(ctx, s.engine.ForceDownload)
}
