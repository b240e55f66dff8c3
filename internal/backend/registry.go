package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/ledgerkeep/ledgerkeep/internal/common"
)

// New constructs an uninitialized backend for the config's provider type.
func New(cfg *Config) (Backend, error) {
	if cfg == nil {
		return nil, common.ErrConfiguration
	}
	switch cfg.Type {
	case TypeS3:
		return &S3Backend{}, nil
	case TypeHTTP:
		return &HTTPBackend{}, nil
	case TypeLocalDir:
		return &LocalDirBackend{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend type %q", common.ErrConfiguration, cfg.Type)
	}
}

// Registry holds at most one active backend instance. It is passed explicitly
// to whoever needs the active backend; there is no package-level global.
type Registry struct {
	mu     sync.Mutex
	active Backend
}

func NewRegistry() *Registry {
	return &Registry{}
}

// CreateAndInitialize builds a backend from cfg, initializes it, and makes it
// the active one. Used for silent reconnection from persisted config on app
// start as well as for explicit connects.
func (r *Registry) CreateAndInitialize(ctx context.Context, cfg *Config) (Backend, error) {
	b, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := b.Initialize(ctx, cfg); err != nil {
		return nil, err
	}
	r.SetActive(b)
	return b, nil
}

func (r *Registry) SetActive(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = b
}

// Active returns the current backend or nil.
func (r *Registry) Active() Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Registry) ClearActive() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = nil
}
