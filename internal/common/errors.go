// Package common defines shared constants and sentinel errors used across
// the ledgerkeep layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Backend errors.
	ErrConfiguration  = errors.New("backend configuration missing or invalid")
	ErrAuthentication = errors.New("authentication failed or session expired")
	ErrNetwork        = errors.New("network error")

	// Crypto errors. Wrong password and corrupted payload are deliberately
	// indistinguishable.
	ErrDecryption = errors.New("could not decrypt: check your password")

	// Sync engine errors.
	ErrSyncInProgress = errors.New("a sync is already in progress")
	ErrNoBackend      = errors.New("no backend connected")
	ErrNoPassword     = errors.New("encryption password not set")
)
