package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/logging"
	"github.com/ledgerkeep/ledgerkeep/internal/syncer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine records what it was called with and returns a canned result.
type fakeEngine struct {
	result       syncer.Result
	lastPassword string
	calls        int
}

func (f *fakeEngine) call(_ context.Context, password string) syncer.Result {
	f.lastPassword = password
	f.calls++
	return f.result
}

func (f *fakeEngine) Sync(ctx context.Context, pw string) syncer.Result          { return f.call(ctx, pw) }
func (f *fakeEngine) ForceUpload(ctx context.Context, pw string) syncer.Result   { return f.call(ctx, pw) }
func (f *fakeEngine) ForceDownload(ctx context.Context, pw string) syncer.Result { return f.call(ctx, pw) }

func newSession(t *testing.T, engine Syncer, ttl time.Duration) *Session {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return New(engine, log, ttl)
}

func TestSession_SuccessfulSyncUpdatesStatus(t *testing.T) {
	engine := &fakeEngine{result: syncer.Result{Success: true, Message: "sync complete", Timestamp: time.Now()}}
	s := newSession(t, engine, time.Hour)
	s.SetPassword("pw")

	assert.Equal(t, StatusIdle, s.Status())

	res := s.Sync(context.Background())
	require.True(t, res.Success)

	assert.Equal(t, StatusSynced, s.Status())
	assert.Equal(t, "pw", engine.lastPassword)
	assert.Empty(t, s.LastError())

	at, ok := s.LastSyncAt()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now(), at, time.Minute)
}

func TestSession_FailedSyncRecordsError(t *testing.T) {
	engine := &fakeEngine{result: syncer.Result{Success: false, Message: "network error"}}
	s := newSession(t, engine, time.Hour)
	s.SetPassword("pw")

	res := s.Sync(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, StatusError, s.Status())
	assert.Equal(t, "network error", s.LastError())

	_, ok := s.LastSyncAt()
	assert.False(t, ok, "no successful sync yet")
}

func TestSession_AuthFailureDropsConnectedFlag(t *testing.T) {
	engine := &fakeEngine{result: syncer.Result{Success: false, Message: "authentication error", AuthFailed: true}}
	s := newSession(t, engine, time.Hour)
	s.SetConnected(true)
	s.SetPassword("pw")

	res := s.Sync(context.Background())
	assert.False(t, res.Success)
	assert.False(t, s.IsConnected(), "auth failure should require a reconnect")
	assert.Equal(t, StatusError, s.Status())
}

func TestSession_PasswordLifecycle(t *testing.T) {
	s := newSession(t, &fakeEngine{}, time.Hour)

	_, ok := s.Password()
	assert.False(t, ok)

	s.SetPassword("secret")
	pw, ok := s.Password()
	assert.True(t, ok)
	assert.Equal(t, "secret", pw)

	s.ClearPassword()
	_, ok = s.Password()
	assert.False(t, ok)
}

func TestSession_PasswordAutoExpires(t *testing.T) {
	s := newSession(t, &fakeEngine{result: syncer.Result{Success: true}}, 30*time.Millisecond)
	s.SetPassword("secret")

	require.Eventually(t, func() bool {
		_, ok := s.Password()
		return !ok
	}, time.Second, 5*time.Millisecond, "password should expire after the idle window")
}

func TestSession_ActivityResetsExpiry(t *testing.T) {
	engine := &fakeEngine{result: syncer.Result{Success: true, Timestamp: time.Now()}}
	s := newSession(t, engine, 60*time.Millisecond)
	s.SetPassword("secret")

	// keep touching the session more often than the TTL
	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		s.Sync(context.Background())
	}

	_, ok := s.Password()
	assert.True(t, ok, "active use must keep the password alive")
}

func TestSession_ForceVariantsUseSameSequencing(t *testing.T) {
	engine := &fakeEngine{result: syncer.Result{Success: true, Timestamp: time.Now()}}
	s := newSession(t, engine, time.Hour)
	s.SetPassword("pw")

	s.ForceUpload(context.Background())
	s.ForceDownload(context.Background())
	assert.Equal(t, 2, engine.calls)
	assert.Equal(t, StatusSynced, s.Status())
}

func TestSession_ConnectedFlag(t *testing.T) {
	s := newSession(t, &fakeEngine{}, time.Hour)
	assert.False(t, s.IsConnected())
	s.SetConnected(true)
	assert.True(t, s.IsConnected())
	s.SetConnected(false)
	assert.False(t, s.IsConnected())
}
