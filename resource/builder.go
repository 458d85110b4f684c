package resource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tormund/fragvault/backend"
	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/codec"
	"github.com/tormund/fragvault/fragment"
)

// BuildConfig names the second-layer codecs a Builder applies when sealing.
type BuildConfig struct {
	Compressor codec.Compressor
	Wrapper    codec.Wrapper
}

// Builder assembles a batch of pending fragments into one resource: it
// frames them, compresses and wraps the frame (compress-then-wrap, never
// the reverse), uploads via a Backend, and commits the Resource and
// fragment rows into a single catalog transaction.
type Builder struct {
	cfg   BuildConfig
	items []fragment.PendingFragment
}

// NewBuilder constructs a Builder over a batch of fragments flushed from a
// fragment.Cache. Items of a failed Seal are not put back into any pending
// buffer.
func NewBuilder(cfg BuildConfig, items []fragment.PendingFragment) *Builder {
	return &Builder{cfg: cfg, items: items}
}

// Empty reports whether the builder has no fragments to seal.
func (b *Builder) Empty() bool { return len(b.items) == 0 }

// Seal frames, compresses, wraps, and uploads the builder's fragments as a
// single resource via be, then writes the Resource, each fragment's row,
// and the resource's reverse index into tx. If the upload fails, no
// catalog writes are attempted and the builder's items are dropped: no
// caller returns them to the pending cache, and compound.Upload discards
// whatever is still pending once its transaction has rolled back.
func (b *Builder) Seal(ctx context.Context, be backend.Backend, tx *catalog.Tx) (*catalog.Resource, error) {
	if b.Empty() {
		return nil, ErrEmptyBuilder
	}

	entries := make([]Entry, len(b.items))
	for i, it := range b.items {
		entries[i] = Entry{Hash: it.Hash, Body: it.Body}
	}

	inner, layout, err := EncodeFrame(entries, b.cfg.Compressor, b.cfg.Wrapper)
	if err != nil {
		return nil, err
	}

	compressed, err := codec.Compress(b.cfg.Compressor, inner)
	if err != nil {
		return nil, fmt.Errorf("resource: compress: %w", err)
	}
	wrapped, err := codec.Wrap(b.cfg.Wrapper, compressed)
	if err != nil {
		return nil, fmt.Errorf("resource: wrap: %w", err)
	}

	key, err := be.Put(ctx, wrapped)
	if err != nil {
		return nil, err
	}

	res := &catalog.Resource{
		ID:             uuid.NewString(),
		BackendKey:     key,
		FragmentLayout: layout,
		Compressor:     string(b.cfg.Compressor),
		Wrapper:        string(b.cfg.Wrapper),
		TotalSize:      int64(len(wrapped)),
		CreatedAt:      time.Now().Unix(),
	}
	if err := tx.PutResource(res); err != nil {
		return nil, fmt.Errorf("resource: commit resource: %w", err)
	}

	hashes := make([]catalog.Hash, len(b.items))
	for i, it := range b.items {
		hashes[i] = it.Hash

		existing, err := tx.GetFragment(it.Hash)
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("resource: lookup fragment: %w", err)
		}
		refcount := it.Refcount
		if existing != nil {
			refcount += existing.Refcount
		}

		frag := &catalog.Fragment{
			Hash:     it.Hash,
			Size:     int64(len(it.Body)),
			Refcount: refcount,
			Ref: catalog.FragmentRef{
				ResourceID: res.ID,
				Offset:     layout[i].Offset,
				Length:     layout[i].Length,
			},
		}
		if err := tx.PutFragment(frag); err != nil {
			return nil, fmt.Errorf("resource: commit fragment: %w", err)
		}
	}

	if err := tx.PutResourceFragments(res.ID, hashes); err != nil {
		return nil, fmt.Errorf("resource: commit reverse index: %w", err)
	}

	return res, nil
}
