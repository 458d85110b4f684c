package compound

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/codec"
	"github.com/tormund/fragvault/engine"
	"github.com/tormund/fragvault/fragment"
	"github.com/tormund/fragvault/resource"
)

// UploadOptions tunes a single upload. Zero-valued size/codec fields fall
// back to the engine's configured defaults.
type UploadOptions struct {
	Overwrite               bool
	Update                  bool
	FragmentSize            int64
	TargetResourceSize      int64
	MaxFragmentsPerResource int
	Compressor              codec.Compressor
	Wrapper                 codec.Wrapper
}

func (o UploadOptions) withDefaults(cfg engineConfig) UploadOptions {
	if o.FragmentSize <= 0 {
		o.FragmentSize = cfg.FragmentSize
	}
	if o.TargetResourceSize <= 0 {
		o.TargetResourceSize = cfg.TargetResourceSize
	}
	if o.MaxFragmentsPerResource <= 0 {
		o.MaxFragmentsPerResource = cfg.MaxFragmentsPerResource
	}
	if o.Compressor == "" {
		o.Compressor = codec.Compressor(cfg.Compressor)
	}
	if o.Wrapper == "" {
		o.Wrapper = codec.Wrapper(cfg.Wrapper)
	}
	return o
}

// engineConfig is the subset of config.Config Upload needs defaults from;
// kept narrow so this file doesn't import engine's config package directly
// for a handful of scalar fields.
type engineConfig struct {
	FragmentSize            int64
	TargetResourceSize      int64
	MaxFragmentsPerResource int
	Compressor              string
	Wrapper                 string
}

// Upload streams r through the fragment pipeline under name, sealing
// fragments into resources as thresholds are crossed, then commits the
// Compound. The whole operation (dedup bookkeeping, every resource seal,
// and the final Compound write) runs inside one catalog transaction, so a
// failure at any point leaves no partial trace: no stray fragment refcount
// bumps, no orphaned Resource rows, no Compound entry.
func Upload(ctx context.Context, eng *engine.Engine, name string, r io.Reader, opts UploadOptions) (*catalog.Compound, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty compound name", ErrUsage)
	}
	opts = opts.withDefaults(engineConfig{
		FragmentSize:            eng.Config.FragmentSize,
		TargetResourceSize:      eng.Config.TargetResourceSize,
		MaxFragmentsPerResource: eng.Config.MaxFragmentsPerResource,
		Compressor:              eng.Config.Compressor,
		Wrapper:                 eng.Config.Wrapper,
	})

	var existing *catalog.Compound
	if err := eng.Catalog.View(func(tx *catalog.Tx) error {
		c, err := tx.GetCompound(name)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil
			}
			return err
		}
		existing = c
		return nil
	}); err != nil {
		return nil, err
	}

	if existing != nil && !opts.Overwrite && !opts.Update {
		return nil, ErrCompoundExists
	}

	if opts.Update && existing != nil {
		buffered, hash, err := bufferAndHash(r)
		if err != nil {
			return nil, err
		}
		if hash == existing.TotalHash {
			return existing, nil
		}
		r = bytes.NewReader(buffered)
	}

	var compound *catalog.Compound
	err := eng.WithWriteLock(func() error {
		return eng.Catalog.Update(func(tx *catalog.Tx) error {
			c, err := uploadInto(ctx, eng, tx, name, r, opts)
			if err != nil {
				return err
			}
			compound = c
			return nil
		})
	})
	if err != nil {
		// The transaction rolled back; pending bodies buffered during the
		// aborted ingest would carry stale reference counts into the next
		// upload, so they are discarded along with it. A retry re-reads
		// the source stream and re-creates them.
		eng.FragmentCache.FlushAll()
		if errors.Is(err, context.Canceled) {
			return nil, ErrCancelled
		}
		return nil, err
	}
	return compound, nil
}

// streamDigest is what the hashing goroutine hands back once the source
// stream is fully read: the whole-stream SHA-256 and the byte count.
type streamDigest struct {
	sum  catalog.Hash
	size int64
	err  error
}

func uploadInto(ctx context.Context, eng *engine.Engine, tx *catalog.Tx, name string, r io.Reader, opts UploadOptions) (*catalog.Compound, error) {
	spec := fragment.EncapsulationSpec{Compressor: opts.Compressor, Wrapper: opts.Wrapper}
	pipeline, err := fragment.NewPipeline(opts.FragmentSize, spec, eng.FragmentCache)
	if err != nil {
		return nil, err
	}

	// Seal resources while the stream is still being read: once the
	// pending buffer crosses either builder threshold, the flushed prefix
	// is framed, uploaded, and committed, so only one resource's worth of
	// fragment bodies is ever held in memory.
	buildCfg := resource.BuildConfig{Compressor: opts.Compressor, Wrapper: opts.Wrapper}
	pipeline.MaxPending = opts.MaxFragmentsPerResource
	pipeline.MaxPendingBytes = opts.TargetResourceSize
	pipeline.Flush = func(ctx context.Context, items []fragment.PendingFragment) error {
		_, err := resource.NewBuilder(buildCfg, items).Seal(ctx, eng.Backend, tx)
		return err
	}

	// Replacing an existing compound releases its old references first, in
	// the same transaction that commits the new ones. Fragments whose count
	// drops to zero stay in the catalog as GC candidates, so the new
	// sequence still dedups against them.
	prior, err := tx.GetCompound(name)
	switch {
	case err == nil:
		for _, h := range prior.FragmentSequence {
			if _, err := tx.IncrFragmentRefcount(h, -1); err != nil && !errors.Is(err, catalog.ErrNotFound) {
				return nil, err
			}
		}
	case errors.Is(err, catalog.ErrNotFound):
	default:
		return nil, err
	}

	// Hash the original stream concurrently with fragmenting it:
	// io.TeeReader duplicates every byte the pipeline reads into the pipe;
	// a goroutine drains the pipe into a running SHA-256.
	pr, pw := io.Pipe()
	digestCh := make(chan streamDigest, 1)
	go func() {
		h := sha256.New()
		n, err := io.Copy(h, pr)
		var sum catalog.Hash
		copy(sum[:], h.Sum(nil))
		digestCh <- streamDigest{sum: sum, size: n, err: err}
	}()

	tee := io.TeeReader(r, pw)
	sequence, ingestErr := pipeline.Ingest(ctx, tee, tx)
	_ = pw.Close()
	if ingestErr != nil {
		_ = pr.CloseWithError(ingestErr)
		<-digestCh
		return nil, ingestErr
	}

	digest := <-digestCh
	if digest.err != nil {
		return nil, fmt.Errorf("compound: hash source stream: %w", digest.err)
	}

	if err := sealAllPending(ctx, eng, tx, buildCfg, opts.MaxFragmentsPerResource, opts.TargetResourceSize); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	compound := &catalog.Compound{
		Name:             name,
		TotalSize:        digest.size,
		TotalHash:        digest.sum,
		FragmentSize:     opts.FragmentSize,
		Compressor:       string(opts.Compressor),
		Wrapper:          string(opts.Wrapper),
		FragmentSequence: sequence,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := tx.PutCompound(compound); err != nil {
		return nil, fmt.Errorf("compound: commit: %w", err)
	}
	return compound, nil
}

// sealAllPending drains what ingest left below both flush thresholds (the
// stream's tail) into freshly sealed resources until nothing is pending. A
// failed seal aborts the upload; Upload discards whatever is still pending
// once the transaction has rolled back.
func sealAllPending(ctx context.Context, eng *engine.Engine, tx *catalog.Tx, cfg resource.BuildConfig, maxFragments int, targetSize int64) error {
	for eng.FragmentCache.Len() > 0 {
		items := eng.FragmentCache.FlushUpTo(maxFragments, targetSize)
		if len(items) == 0 {
			break
		}
		b := resource.NewBuilder(cfg, items)
		if _, err := b.Seal(ctx, eng.Backend, tx); err != nil {
			return fmt.Errorf("compound: seal resource: %w", err)
		}
	}
	return nil
}

// bufferAndHash reads r fully (Update mode's one documented local re-read)
// and returns the buffered bytes alongside their SHA-256.
func bufferAndHash(r io.Reader) ([]byte, catalog.Hash, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, catalog.Hash{}, fmt.Errorf("compound: read source for update check: %w", err)
	}
	return data, sha256.Sum256(data), nil
}
