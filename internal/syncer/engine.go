// Package syncer implements the reconciliation engine between the local
// store and the active remote backend.
//
// A sync runs snapshot → fetch → merge → apply → upload. The snapshot taken
// up front is the undo point: no step before the single apply transaction
// touches the local tables, and an upload failure rolls the apply back, so a
// failed sync always leaves local data exactly as it was.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/backend"
	"github.com/ledgerkeep/ledgerkeep/internal/common"
	"github.com/ledgerkeep/ledgerkeep/internal/cryptox"
	"github.com/ledgerkeep/ledgerkeep/internal/logging"
	"github.com/ledgerkeep/ledgerkeep/internal/models"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
)

// snapshotKeep is how many rollback snapshots survive pruning after a
// successful sync.
const snapshotKeep = 5

// Result is what every engine entry point returns. Routine failures are
// reported here, never raised as errors past the engine boundary.
type Result struct {
	Success          bool
	Message          string
	Timestamp        time.Time
	ConflictDetected bool

	// AuthFailed marks an authentication failure so the UI can drop the
	// connected flag and prompt a reconnect. The saved config is kept.
	AuthFailed bool

	// ReloadRequired is set after a force download: in-memory state upstream
	// of the store is stale and the app must re-read everything.
	ReloadRequired bool
}

// Engine reconciles the local store with the active backend. All collaborators
// are injected so tests can swap in fakes; the engine holds no globals.
type Engine struct {
	store    *store.Store
	registry *backend.Registry
	log      logging.Logger

	inFlight atomic.Bool
}

func NewEngine(st *store.Store, reg *backend.Registry, log logging.Logger) *Engine {
	return &Engine{store: st, registry: reg, log: log}
}

func fail(err error) Result {
	return Result{
		Success:    false,
		Message:    err.Error(),
		AuthFailed: errors.Is(err, common.ErrAuthentication),
	}
}

// begin acquires the single-flight guard and resolves the backend and
// password. Two syncs must never interleave: a second one could snapshot over
// a snapshot or upload a stale merge.
func (e *Engine) begin(password string) (backend.Backend, func(), error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, nil, common.ErrSyncInProgress
	}
	release := func() { e.inFlight.Store(false) }

	b := e.registry.Active()
	if b == nil {
		release()
		return nil, nil, common.ErrNoBackend
	}
	if password == "" {
		release()
		return nil, nil, common.ErrNoPassword
	}
	return b, release, nil
}

func (e *Engine) ensureAuthenticated(ctx context.Context, b backend.Backend) error {
	if b.IsAuthenticated() {
		return nil
	}
	return b.Authenticate(ctx)
}

// fetchRemote downloads and decrypts the remote backup body. A missing remote
// blob is a first-ever sync and comes back as an empty body.
func (e *Engine) fetchRemote(ctx context.Context, b backend.Backend, password string) (*models.BackupBody, error) {
	blob, err := b.Download(ctx)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		e.log.Info(ctx, "no remote backup yet, treating remote as empty")
		body := models.NewBackupBody()
		return body, nil
	}

	var payload cryptox.Payload
	if err := json.Unmarshal(blob, &payload); err != nil {
		return nil, common.ErrDecryption
	}
	plaintext, err := cryptox.Decrypt(&payload, password)
	if err != nil {
		return nil, err
	}

	var body models.BackupBody
	if err := json.Unmarshal(plaintext, &body); err != nil {
		return nil, common.ErrDecryption
	}
	return &body, nil
}

func encryptBody(body *models.BackupBody, password string) ([]byte, error) {
	plaintext, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal backup body: %w", err)
	}
	payload, err := cryptox.Encrypt(plaintext, password)
	if err != nil {
		return nil, err
	}
	return json.Marshal(payload)
}

// Sync runs the full reconciliation pipeline.
func (e *Engine) Sync(ctx context.Context, password string) Result {
	b, release, err := e.begin(password)
	if err != nil {
		return fail(err)
	}
	defer release()

	if err := e.ensureAuthenticated(ctx, b); err != nil {
		e.log.Warn(ctx, "sync aborted: authentication", "err", err)
		return fail(err)
	}

	snapshotID, err := e.store.Snapshots.Create(ctx)
	if err != nil {
		return fail(fmt.Errorf("snapshot: %w", err))
	}
	e.log.Debug(ctx, "snapshot created", "id", snapshotID)

	remote, err := e.fetchRemote(ctx, b, password)
	if err != nil {
		e.log.Warn(ctx, "sync aborted: fetch", "err", err)
		return fail(err)
	}

	local, err := e.store.Dump(ctx)
	if err != nil {
		return fail(err)
	}

	merged, conflict := mergeBodies(local, remote)
	state := models.ConflictNone
	if conflict {
		state = models.ConflictDetected
		e.log.Warn(ctx, "merge conflict detected, local copies kept")
	}

	prior, err := e.store.Metadata(ctx)
	if err != nil {
		return fail(err)
	}

	if err := e.store.ApplyMerged(ctx, merged, state); err != nil {
		return fail(fmt.Errorf("apply merged state: %w", err))
	}

	blob, err := encryptBody(merged, password)
	if err != nil {
		e.rollback(ctx, snapshotID, prior)
		return fail(err)
	}
	if err := b.Upload(ctx, blob); err != nil {
		e.log.Warn(ctx, "sync aborted: upload, rolling back merge", "err", err)
		e.rollback(ctx, snapshotID, prior)
		return fail(err)
	}

	if err := e.store.Snapshots.Prune(ctx, snapshotKeep); err != nil {
		e.log.Warn(ctx, "snapshot prune failed", "err", err)
	}

	e.log.Info(ctx, "sync finished", "last_sync_version", merged.MaxVersion(), "conflict", conflict)
	return Result{
		Success:          true,
		Message:          "sync complete",
		Timestamp:        time.Now(),
		ConflictDetected: conflict,
	}
}

// rollback restores the pre-sync snapshot and sync metadata after a failure
// that happened once local state was already mutated.
func (e *Engine) rollback(ctx context.Context, snapshotID string, prior models.SyncMetadata) {
	if err := e.store.Snapshots.Restore(ctx, snapshotID); err != nil {
		e.log.Error(ctx, "rollback failed; local state left merged", "snapshot", snapshotID, "err", err)
		return
	}
	if err := e.store.MarkSynced(ctx, prior.LastSyncVersion, prior.ConflictState); err != nil {
		e.log.Error(ctx, "rollback metadata restore failed", "err", err)
	}
}

// ForceUpload pushes the local state as-is, overwriting the remote blob and
// bypassing fetch and merge entirely. Local tables are not touched.
func (e *Engine) ForceUpload(ctx context.Context, password string) Result {
	b, release, err := e.begin(password)
	if err != nil {
		return fail(err)
	}
	defer release()

	if err := e.ensureAuthenticated(ctx, b); err != nil {
		return fail(err)
	}

	local, err := e.store.Dump(ctx)
	if err != nil {
		return fail(err)
	}
	blob, err := encryptBody(local, password)
	if err != nil {
		return fail(err)
	}
	if err := b.Upload(ctx, blob); err != nil {
		e.log.Warn(ctx, "force upload failed", "err", err)
		return fail(err)
	}
	if err := e.store.MarkSynced(ctx, local.MaxVersion(), models.ConflictNone); err != nil {
		return fail(err)
	}

	e.log.Info(ctx, "force upload finished")
	return Result{Success: true, Message: "local state uploaded", Timestamp: time.Now()}
}

// ForceDownload overwrites local state with the remote backup as-is,
// bypassing merge. The caller must reload any in-memory state afterwards.
func (e *Engine) ForceDownload(ctx context.Context, password string) Result {
	b, release, err := e.begin(password)
	if err != nil {
		return fail(err)
	}
	defer release()

	if err := e.ensureAuthenticated(ctx, b); err != nil {
		return fail(err)
	}

	if _, err := e.store.Snapshots.Create(ctx); err != nil {
		return fail(fmt.Errorf("snapshot: %w", err))
	}

	blob, err := b.Download(ctx)
	if err != nil {
		return fail(err)
	}
	if blob == nil {
		return fail(errors.New("no remote backup to download"))
	}

	var payload cryptox.Payload
	if err := json.Unmarshal(blob, &payload); err != nil {
		return fail(common.ErrDecryption)
	}
	plaintext, err := cryptox.Decrypt(&payload, password)
	if err != nil {
		return fail(err)
	}
	var body models.BackupBody
	if err := json.Unmarshal(plaintext, &body); err != nil {
		return fail(common.ErrDecryption)
	}

	if err := e.store.ApplyMerged(ctx, &body, models.ConflictNone); err != nil {
		return fail(fmt.Errorf("apply remote state: %w", err))
	}

	e.log.Info(ctx, "force download finished")
	return Result{
		Success:        true,
		Message:        "remote state applied, reload required",
		Timestamp:      time.Now(),
		ReloadRequired: true,
	}
}
