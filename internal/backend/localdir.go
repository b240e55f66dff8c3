package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledgerkeep/ledgerkeep/internal/common"
)

const defaultBlobName = "ledgerkeep-backup.json"

// LocalDirConfig points at a directory, typically a mounted cloud-drive
// folder, that holds the single backup blob.
type LocalDirConfig struct {
	Dir      string `json:"dir"`
	Filename string `json:"filename,omitempty"`
}

// LocalDirBackend stores the backup blob as a file in a directory. There is
// no auth flow: if the directory is writable, we are "signed in".
type LocalDirBackend struct {
	path string
}

func (b *LocalDirBackend) Initialize(ctx context.Context, cfg *Config) error {
	if cfg == nil || cfg.LocalDir == nil || cfg.LocalDir.Dir == "" {
		return fmt.Errorf("%w: localdir requires a directory", common.ErrConfiguration)
	}
	name := cfg.LocalDir.Filename
	if name == "" {
		name = defaultBlobName
	}
	if err := os.MkdirAll(cfg.LocalDir.Dir, 0o770); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", common.ErrConfiguration, cfg.LocalDir.Dir, err)
	}
	b.path = filepath.Join(cfg.LocalDir.Dir, name)
	return nil
}

func (b *LocalDirBackend) Authenticate(ctx context.Context) error {
	if b.path == "" {
		return common.ErrAuthentication
	}
	return nil
}

func (b *LocalDirBackend) IsAuthenticated() bool {
	return b.path != ""
}

func (b *LocalDirBackend) GetUser() string {
	if b.path == "" {
		return ""
	}
	return filepath.Dir(b.path)
}

func (b *LocalDirBackend) Upload(ctx context.Context, blob []byte) error {
	if b.path == "" {
		return common.ErrConfiguration
	}
	// write-then-rename so a crash never leaves a torn blob behind
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return fmt.Errorf("write backup blob: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("replace backup blob: %w", err)
	}
	return nil
}

func (b *LocalDirBackend) Download(ctx context.Context) ([]byte, error) {
	if b.path == "" {
		return nil, common.ErrConfiguration
	}
	blob, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup blob: %w", err)
	}
	return blob, nil
}

func (b *LocalDirBackend) SignOut(ctx context.Context) {
	b.path = ""
}

func (b *LocalDirBackend) Type() string { return TypeLocalDir }
