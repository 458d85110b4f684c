package compound

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/codec"
	"github.com/tormund/fragvault/engine"
)

// Download resolves name's fragment sequence, fetches and unwraps each
// carrying resource (through the engine's resource cache), slices out and
// reverses each fragment's first-layer encapsulation, and writes the
// reconstructed stream to w in source order. It is read-only and
// idempotent: running it twice touches no catalog row. The reconstructed
// stream's SHA-256 is checked against the Compound's TotalHash before
// Download returns; a mismatch surfaces ErrCompoundCorrupt naming the
// compound, not a partial write rollback; the caller already received
// (possibly corrupt) bytes on w by then.
func Download(ctx context.Context, eng *engine.Engine, name string, w io.Writer) error {
	var c *catalog.Compound
	err := eng.Catalog.View(func(tx *catalog.Tx) error {
		got, err := tx.GetCompound(name)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return fmt.Errorf("%w: %q", ErrCompoundNotFound, name)
			}
			return err
		}
		c = got
		return nil
	})
	if err != nil {
		return err
	}

	h := sha256.New()
	for _, hash := range c.FragmentSequence {
		if err := ctx.Err(); err != nil {
			return ErrCancelled
		}

		var raw []byte
		err := eng.Catalog.View(func(tx *catalog.Tx) error {
			f, err := tx.GetFragment(hash)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					return fmt.Errorf("compound: fragment %x missing for %q: %w", hash, name, ErrCompoundCorrupt)
				}
				return err
			}
			body, err := fetchFragmentBody(ctx, eng, tx, f)
			if err != nil {
				return err
			}

			unwrapped, err := codec.Unwrap(codec.Wrapper(c.Wrapper), body)
			if err != nil {
				return &ResourceCorruptError{ResourceID: f.Ref.ResourceID, Err: err}
			}
			decompressed, err := codec.Decompress(codec.Compressor(c.Compressor), unwrapped)
			if err != nil {
				return &ResourceCorruptError{ResourceID: f.Ref.ResourceID, Err: err}
			}
			raw = decompressed
			return nil
		})
		if err != nil {
			return err
		}

		if _, err := w.Write(raw); err != nil {
			return fmt.Errorf("compound: write output for %q: %w", name, err)
		}
		h.Write(raw)
	}

	var got catalog.Hash
	copy(got[:], h.Sum(nil))
	if got != c.TotalHash {
		return fmt.Errorf("%w: %q", ErrCompoundCorrupt, name)
	}
	return nil
}
