// Package backend defines the uniform interface over remote backup storage
// providers and its implementations. The sync engine only ever sees this
// interface: a provider moves opaque encrypted blobs, nothing more, so the
// engine, crypto and UI never branch on provider type.
package backend

import "context"

// Provider type discriminators, persisted in the connection config.
const (
	TypeS3       = "s3"
	TypeHTTP     = "http"
	TypeLocalDir = "localdir"
)

// Backend is implemented once per remote storage provider.
type Backend interface {
	// Initialize establishes client state from a connection config.
	// Returns common.ErrConfiguration if the config is incomplete.
	Initialize(ctx context.Context, cfg *Config) error

	// Authenticate performs the provider's auth flow (credential check or
	// token refresh). Returns common.ErrAuthentication on failure.
	Authenticate(ctx context.Context) error

	// IsAuthenticated is a cheap local check of session validity (e.g. an
	// unexpired token). It never touches the network.
	IsAuthenticated() bool

	// GetUser returns a display identity for the connected account, or ""
	// if unknown.
	GetUser() string

	// Upload replaces the remote backup blob.
	Upload(ctx context.Context, blob []byte) error

	// Download fetches the remote backup blob. A missing blob (first-ever
	// sync) returns (nil, nil), not an error.
	Download(ctx context.Context) ([]byte, error)

	// SignOut revokes local session state. Best effort: network failures
	// are logged and swallowed.
	SignOut(ctx context.Context)

	// Type returns the provider discriminator.
	Type() string
}

// Config is the tagged-union connection config. Exactly one provider section
// should be set, matching Type.
type Config struct {
	Type string `json:"type"`

	S3       *S3Config       `json:"s3,omitempty"`
	HTTP     *HTTPConfig     `json:"http,omitempty"`
	LocalDir *LocalDirConfig `json:"localdir,omitempty"`
}

// Redacted returns a copy safe for local persistence: credentials that must
// not survive a reload are stripped, everything needed for a silent
// reconnect stays.
func (c *Config) Redacted() *Config {
	out := *c
	if c.HTTP != nil {
		h := *c.HTTP
		h.Password = "" // re-auth uses the refresh token
		out.HTTP = &h
	}
	return &out
}
