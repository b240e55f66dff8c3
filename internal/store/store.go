// Package store implements the versioned local store on embedded SQLite.
//
// Every syncable table follows the same discipline: each mutation writes the
// row and bumps its sync_version inside one transaction, and deletes only
// set a flag so the deletion can propagate to other devices. The version
// counter lives in the sync_metadata singleton and is strictly monotonic
// across all tables.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/ledgerkeep/ledgerkeep/internal/dbx"
	"github.com/ledgerkeep/ledgerkeep/internal/models"
	"github.com/ledgerkeep/ledgerkeep/internal/store/migrations"
	"github.com/pressly/goose/v3"
)

// Store owns the SQLite handle and the per-table repositories.
type Store struct {
	db *sql.DB

	Accounts     *Table[models.Account]
	Transactions *Table[models.Transaction]
	Budgets      *Table[models.Budget]
	Holdings     *Table[models.Holding]
	Properties   *Table[models.Property]

	Snapshots *SnapshotRepo
	KV        *KVRepo
}

// RunMigrations applies the embedded schema migrations with goose.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatal("failed to set goose dialect:", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the local database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// modernc sqlite serializes writes itself, but a single connection keeps
	// transactions from ever contending on the file lock.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return New(db), nil
}

// New wraps an already-migrated database handle.
func New(db *sql.DB) *Store {
	s := &Store{db: db}
	s.Accounts = &Table[models.Account]{db: db, name: "accounts", next: s.nextVersion}
	s.Transactions = &Table[models.Transaction]{db: db, name: "transactions", next: s.nextVersion}
	s.Budgets = &Table[models.Budget]{db: db, name: "budgets", next: s.nextVersion}
	s.Holdings = &Table[models.Holding]{db: db, name: "holdings", next: s.nextVersion}
	s.Properties = &Table[models.Property]{db: db, name: "properties", next: s.nextVersion}
	s.Snapshots = &SnapshotRepo{db: db, dump: s.Dump, restore: s.restoreTx}
	s.KV = &KVRepo{db: db}
	return s
}

func (s *Store) Close() error {
	return s.db.Close()
}

// nextVersion bumps and returns the global version counter. Must run inside
// the same transaction as the row write it stamps.
func (s *Store) nextVersion(ctx context.Context, tx dbx.DBTX) (int64, error) {
	if _, err := tx.ExecContext(ctx, `UPDATE sync_metadata SET version_counter = version_counter + 1 WHERE id = 1`); err != nil {
		return 0, fmt.Errorf("failed to bump version counter: %w", err)
	}
	var v int64
	if err := tx.QueryRowContext(ctx, `SELECT version_counter FROM sync_metadata WHERE id = 1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read version counter: %w", err)
	}
	return v, nil
}

// Metadata returns the singleton sync bookkeeping row.
func (s *Store) Metadata(ctx context.Context) (models.SyncMetadata, error) {
	var m models.SyncMetadata
	err := s.db.QueryRowContext(ctx,
		`SELECT last_sync_version, conflict_state FROM sync_metadata WHERE id = 1`).
		Scan(&m.LastSyncVersion, &m.ConflictState)
	if err != nil {
		return m, fmt.Errorf("failed to read sync metadata: %w", err)
	}
	return m, nil
}

func (s *Store) setMetadata(ctx context.Context, tx dbx.DBTX, lastSyncVersion int64, state models.ConflictState) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sync_metadata
		SET last_sync_version = ?,
			conflict_state = ?,
			version_counter = max(version_counter, ?)
		WHERE id = 1`, lastSyncVersion, string(state), lastSyncVersion)
	if err != nil {
		return fmt.Errorf("failed to update sync metadata: %w", err)
	}
	return nil
}

// Dump serializes every syncable table, soft-deleted rows included, into a
// backup body.
func (s *Store) Dump(ctx context.Context) (*models.BackupBody, error) {
	body := models.NewBackupBody()

	var err error
	if body.Accounts, err = s.Accounts.GetAll(ctx, true); err != nil {
		return nil, err
	}
	if body.Transactions, err = s.Transactions.GetAll(ctx, true); err != nil {
		return nil, err
	}
	if body.Budgets, err = s.Budgets.GetAll(ctx, true); err != nil {
		return nil, err
	}
	if body.Holdings, err = s.Holdings.GetAll(ctx, true); err != nil {
		return nil, err
	}
	if body.Properties, err = s.Properties.GetAll(ctx, true); err != nil {
		return nil, err
	}
	return body, nil
}

func (s *Store) restoreTx(ctx context.Context, tx dbx.DBTX, body *models.BackupBody) error {
	if err := s.Accounts.replaceAll(ctx, tx, body.Accounts); err != nil {
		return err
	}
	if err := s.Transactions.replaceAll(ctx, tx, body.Transactions); err != nil {
		return err
	}
	if err := s.Budgets.replaceAll(ctx, tx, body.Budgets); err != nil {
		return err
	}
	if err := s.Holdings.replaceAll(ctx, tx, body.Holdings); err != nil {
		return err
	}
	if err := s.Properties.replaceAll(ctx, tx, body.Properties); err != nil {
		return err
	}
	// keep the counter ahead of everything just restored
	_, err := tx.ExecContext(ctx,
		`UPDATE sync_metadata SET version_counter = max(version_counter, ?) WHERE id = 1`,
		body.MaxVersion())
	if err != nil {
		return fmt.Errorf("failed to raise version counter: %w", err)
	}
	return nil
}

// Restore overwrites every syncable table from the body in one transaction.
// Used by plaintext import and by snapshot rollback.
func (s *Store) Restore(ctx context.Context, body *models.BackupBody) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.restoreTx(ctx, tx, body)
	})
}

// ApplyMerged atomically replaces the local tables with the merged record set
// and advances sync metadata. This is the only bulk-overwrite path the sync
// engine uses; readers never observe a half-merged state.
func (s *Store) ApplyMerged(ctx context.Context, body *models.BackupBody, state models.ConflictState) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.restoreTx(ctx, tx, body); err != nil {
			return err
		}
		return s.setMetadata(ctx, tx, body.MaxVersion(), state)
	})
}

// MarkSynced records a successful sync that did not change local tables
// (force upload): only the metadata advances.
func (s *Store) MarkSynced(ctx context.Context, lastSyncVersion int64, state models.ConflictState) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.setMetadata(ctx, tx, lastSyncVersion, state)
	})
}
