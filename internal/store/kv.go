package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Well-known metadata keys.
const (
	KeyBackendConfig = "backend_config"
	KeyPasswordHash  = "password_hash"
	KeyPasswordSalt  = "password_salt"
)

// KVRepo is a small key/value store for non-syncable local state: the
// persisted backend connection config and the local password-check hash.
type KVRepo struct {
	db *sql.DB
}

// Get returns the value for key, or nil if the key is absent.
func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *KVRepo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *KVRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}
