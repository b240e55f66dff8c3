package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerkeep/ledgerkeep/internal/common"
	"github.com/ledgerkeep/ledgerkeep/internal/dbx"
	"github.com/ledgerkeep/ledgerkeep/internal/models"
)

// SnapshotRepo persists full point-in-time copies of the local tables so a
// destructive merge can be undone. Snapshots stay local; they are never
// uploaded.
type SnapshotRepo struct {
	db      *sql.DB
	dump    func(ctx context.Context) (*models.BackupBody, error)
	restore func(ctx context.Context, tx dbx.DBTX, body *models.BackupBody) error
}

// SnapshotInfo describes a stored snapshot.
type SnapshotInfo struct {
	ID        string
	CreatedAt time.Time
}

// Create serializes all local tables into a new snapshot and returns its id.
func (r *SnapshotRepo) Create(ctx context.Context) (string, error) {
	body, err := r.dump(ctx)
	if err != nil {
		return "", fmt.Errorf("snapshot dump: %w", err)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("snapshot marshal: %w", err)
	}

	// created_at is stored as unix nanoseconds: a fixed-width integer keeps
	// newest-first ordering exact, where formatted text can misorder
	// same-second timestamps.
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, created_at, body) VALUES (?, ?, ?)`,
		id, time.Now().UTC().UnixNano(), data)
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return id, nil
}

// Restore overwrites the local tables from the given snapshot in one
// transaction.
func (r *SnapshotRepo) Restore(ctx context.Context, id string) error {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to select snapshot: %w", err)
	}

	var body models.BackupBody
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("snapshot unmarshal: %w", err)
	}

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return r.restore(ctx, tx, &body)
	})
}

// List returns snapshot descriptors, newest first.
func (r *SnapshotRepo) List(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM snapshots ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var result []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		var createdAt int64
		if err := rows.Scan(&info.ID, &createdAt); err != nil {
			return nil, err
		}
		info.CreatedAt = time.Unix(0, createdAt).UTC()
		result = append(result, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Prune deletes all but the newest keep snapshots. At least one snapshot is
// always retained.
func (r *SnapshotRepo) Prune(ctx context.Context, keep int) error {
	if keep < 1 {
		keep = 1
	}
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return nil
}
