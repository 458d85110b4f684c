// Package engine wires configuration, the catalog, a storage backend, and
// the fragment/resource caches into one explicit handle passed into every
// compound operation. There is no process-wide "current catalog"; callers
// construct an Engine from config and hand it down.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/tormund/fragvault/backend"
	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/codec"
	"github.com/tormund/fragvault/config"
	"github.com/tormund/fragvault/fragment"
	"github.com/tormund/fragvault/resource"
)

// Engine bundles every dependency a compound operation needs.
type Engine struct {
	Config        config.Config
	Catalog       *catalog.DB
	Backend       backend.Backend
	FragmentCache *fragment.Cache
	ResourceCache *resource.Cache

	// rawBackend is the unwrapped backend, kept so Close can release
	// connection-holding variants (the retry wrapper hides them).
	rawBackend backend.Backend

	// mu serializes writers: one ingest or clean mutating the fragment
	// cache and catalog at a time. Concurrent reads of disjoint compounds
	// do not take it.
	mu sync.Mutex
}

// Open validates cfg, opens (or creates) the catalog at cfg.DataDir, and
// constructs the configured backend wrapped in the retry policy.
func Open(cfg config.Config) (*Engine, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("engine: create data directory: %w", err)
	}

	db, err := catalog.Open(filepath.Join(cfg.DataDir, "catalog.db"))
	if err != nil {
		return nil, err
	}

	be, err := newBackend(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheBytes := cfg.TargetResourceSize * 4
	return &Engine{
		Config:        cfg,
		Catalog:       db,
		Backend:       backend.WithRetry(be, 3),
		rawBackend:    be,
		FragmentCache: fragment.NewCache(),
		ResourceCache: resource.NewCache(cacheBytes),
	}, nil
}

func newBackend(cfg config.Config) (backend.Backend, error) {
	switch cfg.Backend {
	case "memory":
		return backend.NewMemoryBackend(), nil
	case "filesystem":
		return backend.NewFileSystemBackend(cfg.BackendDir)
	case "smb":
		return backend.NewSMBBackend(backend.SMBConfig{
			Address:  cfg.SMBAddress,
			User:     cfg.SMBUser,
			Password: cfg.SMBPassword,
			Domain:   cfg.SMBDomain,
			Share:    cfg.SMBShare,
			Dir:      cfg.SMBDir,
		})
	case "s3":
		return backend.NewS3Backend(context.Background(), backend.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseTLS:    cfg.S3UseTLS,
		})
	default:
		return nil, config.ErrInvalidBackend
	}
}

// Close releases the catalog handle and disconnects backends that hold a
// session (SMB).
func (e *Engine) Close() error {
	if c, ok := e.rawBackend.(io.Closer); ok {
		_ = c.Close()
	}
	return e.Catalog.Close()
}

// Wipe drops the catalog entirely: every compound, fragment, and resource
// row is gone, and with deleteBackendData set every resource's backend blob
// is deleted too before the catalog file itself is removed. The caller must
// not use e again after Wipe returns; a fresh Open is required.
func (e *Engine) Wipe(ctx context.Context, deleteBackendData bool) error {
	if deleteBackendData {
		var keys []string
		if err := e.Catalog.View(func(tx *catalog.Tx) error {
			resources, err := tx.ListResources()
			if err != nil {
				return err
			}
			for _, r := range resources {
				keys = append(keys, r.BackendKey)
			}
			return nil
		}); err != nil {
			return err
		}
		for _, key := range keys {
			if err := e.Backend.Delete(ctx, key); err != nil {
				return err
			}
		}
	}

	dbPath := filepath.Join(e.Config.DataDir, "catalog.db")
	if err := e.Catalog.Close(); err != nil {
		return fmt.Errorf("engine: close catalog before wipe: %w", err)
	}
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("engine: remove catalog: %w", err)
	}
	return nil
}

// EncapsulationSpec returns the configured first-layer codecs.
func (e *Engine) EncapsulationSpec() fragment.EncapsulationSpec {
	return fragment.EncapsulationSpec{
		Compressor: codec.Compressor(e.Config.Compressor),
		Wrapper:    codec.Wrapper(e.Config.Wrapper),
	}
}

// BuildConfig returns the configured second-layer codecs.
func (e *Engine) BuildConfig() resource.BuildConfig {
	return resource.BuildConfig{
		Compressor: codec.Compressor(e.Config.Compressor),
		Wrapper:    codec.Wrapper(e.Config.Wrapper),
	}
}

// WithWriteLock runs fn while holding the engine's single-writer lock.
// Every compound operation that mutates the fragment cache or commits a
// Compound (upload, delete, rename, clean) goes through this; reads
// (download, list, statistic) do not need it since the catalog and
// resource cache are safe for concurrent readers on disjoint compounds.
func (e *Engine) WithWriteLock(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn()
}
