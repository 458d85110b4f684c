// Package fragment implements the content-addressed chunking layer: it
// splits a compound's byte stream into fixed-size pieces, applies the
// first-layer encapsulation (compressor + wrapper), hashes the result, and
// deduplicates against the catalog and the pending fragment buffer.
package fragment

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/codec"
)

// DefaultFragmentSize is used when a compound's operator-chosen fragment
// size is not supplied.
const DefaultFragmentSize = 1 << 20

// EncapsulationSpec names the first-layer codecs a pipeline applies to
// every chunk before hashing. Two compounds only dedup against each other
// if both FragmentSize and EncapsulationSpec agree, an operator tuning
// decision the pipeline cannot paper over.
type EncapsulationSpec struct {
	Compressor codec.Compressor
	Wrapper    codec.Wrapper
}

// FlushFunc receives a batch of pending fragments flushed mid-ingest once
// a threshold is crossed, typically to seal them into a resource. Returning
// an error aborts the ingest.
type FlushFunc func(ctx context.Context, items []PendingFragment) error

// Pipeline reads a compound's source stream in fixed-size chunks, applies
// first-layer encapsulation, and deduplicates the result against the
// catalog and a pending fragment buffer.
type Pipeline struct {
	FragmentSize int64
	Spec         EncapsulationSpec
	Cache        *Cache

	// MaxPending and MaxPendingBytes bound the pending buffer during
	// ingest: once either is reached, a prefix of the buffer is handed to
	// Flush instead of accumulating the whole stream in memory. Zero means
	// no bound on that dimension; a nil Flush disables mid-ingest flushing
	// entirely and leaves draining to the caller.
	MaxPending      int
	MaxPendingBytes int64
	Flush           FlushFunc
}

// NewPipeline constructs a Pipeline with the given chunk size, first-layer
// codecs, and pending buffer.
func NewPipeline(fragmentSize int64, spec EncapsulationSpec, cache *Cache) (*Pipeline, error) {
	if fragmentSize <= 0 {
		return nil, ErrInvalidFragmentSize
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Pipeline{FragmentSize: fragmentSize, Spec: spec, Cache: cache}, nil
}

// Ingest reads r in FragmentSize chunks (the final chunk may be short and
// is never padded), encapsulates and hashes each one, and returns the
// ordered fragment hash sequence for the compound being uploaded. New
// bodies are buffered in the pipeline's Cache; hashes that already have a
// Fragment row in the catalog (including a zero-refcount one not yet
// removed by clean) have their refcount bumped instead.
func (p *Pipeline) Ingest(ctx context.Context, r io.Reader, tx *catalog.Tx) ([]catalog.Hash, error) {
	var sequence []catalog.Hash
	buf := make([]byte, p.FragmentSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := io.ReadFull(r, buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			body, hash, encErr := p.encapsulate(chunk)
			if encErr != nil {
				return nil, encErr
			}

			if ferr := p.resolve(tx, hash, body); ferr != nil {
				return nil, ferr
			}
			sequence = append(sequence, hash)

			if ferr := p.flushPending(ctx); ferr != nil {
				return nil, ferr
			}
		}

		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fragment: read source stream: %w", err)
		}
	}

	return sequence, nil
}

// flushPending hands prefixes of the pending buffer to the Flush hook for
// as long as either threshold is exceeded, so a long stream is sealed into
// resources as it is read rather than buffered whole.
func (p *Pipeline) flushPending(ctx context.Context) error {
	if p.Flush == nil {
		return nil
	}
	for (p.MaxPending > 0 && p.Cache.Len() >= p.MaxPending) ||
		(p.MaxPendingBytes > 0 && p.Cache.Size() >= p.MaxPendingBytes) {
		items := p.Cache.FlushUpTo(p.MaxPending, p.MaxPendingBytes)
		if len(items) == 0 {
			return nil
		}
		if err := p.Flush(ctx, items); err != nil {
			return err
		}
	}
	return nil
}

// resolve dedups a single encapsulated chunk: an existing Fragment row,
// whatever its refcount, gets its refcount bumped in place; a new hash is
// buffered in the pending cache for the next resource builder to seal.
func (p *Pipeline) resolve(tx *catalog.Tx, hash catalog.Hash, body []byte) error {
	_, err := tx.GetFragment(hash)
	switch {
	case err == nil:
		_, err := tx.IncrFragmentRefcount(hash, 1)
		return err
	case errors.Is(err, catalog.ErrNotFound):
		p.Cache.Add(hash, body)
		return nil
	default:
		return err
	}
}

// encapsulate applies the pipeline's first-layer compressor then wrapper
// (compress-then-wrap, never the reverse) and hashes the result.
func (p *Pipeline) encapsulate(raw []byte) (body []byte, hash catalog.Hash, err error) {
	compressed, err := codec.Compress(p.Spec.Compressor, raw)
	if err != nil {
		return nil, hash, fmt.Errorf("fragment: compress chunk: %w", err)
	}
	wrapped, err := codec.Wrap(p.Spec.Wrapper, compressed)
	if err != nil {
		return nil, hash, fmt.Errorf("fragment: wrap chunk: %w", err)
	}
	hash = sha256.Sum256(wrapped)
	return wrapped, hash, nil
}
