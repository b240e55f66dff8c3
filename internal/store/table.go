package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/common"
	"github.com/ledgerkeep/ledgerkeep/internal/dbx"
	"github.com/ledgerkeep/ledgerkeep/internal/models"
)

// record is the constraint for syncable table rows: the Syncable accessors
// plus copy-on-write setters so the store can stamp versions and deletions.
type record[T any] interface {
	models.Syncable
	WithVersion(int64) T
	WithDeleted(bool) T
}

// Table provides the versioned-store discipline for one syncable table.
// Rows are kept as (id, sync_version, deleted, data) where data is the full
// record serialized as JSON; sync_version and deleted are mirrored into
// indexed columns so changed-since scans stay cheap.
type Table[T record[T]] struct {
	db   *sql.DB
	name string
	next func(ctx context.Context, tx dbx.DBTX) (int64, error)
}

func (t *Table[T]) upsert(ctx context.Context, q dbx.DBTX, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", t.name, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, sync_version, deleted, data)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET sync_version = excluded.sync_version,
				deleted = excluded.deleted,
				data = excluded.data`, t.name)
	if _, err := q.ExecContext(ctx, query, rec.RecordID(), rec.Version(), boolToInt(rec.IsDeleted()), data); err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", t.name, err)
	}
	return nil
}

// Save writes the record and bumps its sync version in the same transaction.
// The stored record (with its new version) is returned.
func (t *Table[T]) Save(ctx context.Context, rec T) (T, error) {
	var zero T
	err := dbx.WithTx(ctx, t.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		v, err := t.next(ctx, tx)
		if err != nil {
			return err
		}
		rec = rec.WithVersion(v)
		return t.upsert(ctx, tx, rec)
	})
	if err != nil {
		return zero, err
	}
	return rec, nil
}

// SoftDelete marks the record deleted and bumps its version so the deletion
// propagates on the next sync. Deleting an already-deleted or missing record
// returns common.ErrNotFound.
func (t *Table[T]) SoftDelete(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, t.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rec, err := t.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if rec.IsDeleted() {
			return common.ErrNotFound
		}
		v, err := t.next(ctx, tx)
		if err != nil {
			return err
		}
		return t.upsert(ctx, tx, rec.WithDeleted(true).WithVersion(v))
	})
}

func (t *Table[T]) get(ctx context.Context, q dbx.DBTX, id string) (T, error) {
	var zero T
	var data []byte
	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = ?`, t.name)
	err := q.QueryRowContext(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, common.ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("failed to select from %s: %w", t.name, err)
	}
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return zero, fmt.Errorf("unmarshal %s record: %w", t.name, err)
	}
	return rec, nil
}

// GetByID returns the record with the given id, deleted or not.
func (t *Table[T]) GetByID(ctx context.Context, id string) (T, error) {
	return t.get(ctx, t.db, id)
}

func (t *Table[T]) selectRecords(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", t.name, err)
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec T
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal %s record: %w", t.name, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAll lists the table's records. Soft-deleted rows are included only when
// includeDeleted is set; dumps for sync must include them, listings must not.
func (t *Table[T]) GetAll(ctx context.Context, includeDeleted bool) ([]T, error) {
	query := fmt.Sprintf(`SELECT data FROM %s ORDER BY id`, t.name)
	if !includeDeleted {
		query = fmt.Sprintf(`SELECT data FROM %s WHERE deleted = 0 ORDER BY id`, t.name)
	}
	return t.selectRecords(ctx, query)
}

// ChangedSince lists records with sync_version greater than v, deleted rows
// included. Served by the sync_version index.
func (t *Table[T]) ChangedSince(ctx context.Context, v int64) ([]T, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE sync_version > ? ORDER BY sync_version`, t.name)
	return t.selectRecords(ctx, query, v)
}

// replaceAll swaps the table contents for recs, preserving their versions
// as-is. Only callable inside a transaction: bulk overwrite is reserved for
// the sync apply and snapshot restore paths.
func (t *Table[T]) replaceAll(ctx context.Context, tx dbx.DBTX, recs []T) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, t.name)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", t.name, err)
	}
	for _, rec := range recs {
		if err := t.upsert(ctx, tx, rec); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
