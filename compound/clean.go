package compound

import (
	"context"
	"errors"

	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/codec"
	"github.com/tormund/fragvault/engine"
	"github.com/tormund/fragvault/fragment"
	"github.com/tormund/fragvault/resource"
)

// CleanReport tallies what a Clean run removed or moved.
type CleanReport struct {
	ResourcesDeleted      int
	FragmentsDeleted      int
	CompoundsDefragmented int
	FragmentsRelocated    int
}

// Clean garbage-collects resources whose fragments are all dead (no live
// Fragment still points at them) and, with defragment set, additionally
// rewrites any compound whose fragments span more than
// Config.DefragmentThreshold distinct resources into freshly packed ones.
// A resource that still carries even one live fragment is never touched
// here, whether or not defragment runs.
func Clean(ctx context.Context, eng *engine.Engine, defragment bool) (CleanReport, error) {
	var report CleanReport
	err := eng.WithWriteLock(func() error {
		return eng.Catalog.Update(func(tx *catalog.Tx) error {
			if defragment {
				if err := defragmentCompounds(ctx, eng, tx, &report); err != nil {
					return err
				}
			}
			return gcDeadResources(ctx, eng, tx, &report)
		})
	})
	return report, err
}

// gcDeadResources deletes every Resource for which no live Fragment's
// current resource_ref still points at it, along with the fragment rows
// it hosted and its backend blob. A fragment with refcount > 0 whose Ref
// was relocated elsewhere (by defragmentCompounds) no longer counts
// towards keeping its old resource alive: every live compound's fragments
// must resolve, but not to any particular resource.
func gcDeadResources(ctx context.Context, eng *engine.Engine, tx *catalog.Tx, report *CleanReport) error {
	resources, err := tx.ListResources()
	if err != nil {
		return err
	}

	for _, res := range resources {
		hashes, err := tx.GetResourceFragments(res.ID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				continue
			}
			return err
		}

		live := false
		for _, h := range hashes {
			f, err := tx.GetFragment(h)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					continue
				}
				return err
			}
			if f.Refcount > 0 && f.Ref.ResourceID == res.ID {
				live = true
				break
			}
		}
		if live {
			continue
		}

		if err := eng.Backend.Delete(ctx, res.BackendKey); err != nil {
			return err
		}
		for _, h := range hashes {
			f, err := tx.GetFragment(h)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					continue
				}
				return err
			}
			if f.Ref.ResourceID != res.ID {
				continue // already relocated to a different resource
			}
			if err := tx.DeleteFragment(h); err != nil {
				return err
			}
			report.FragmentsDeleted++
		}
		if err := tx.DeleteResource(res.ID); err != nil {
			return err
		}
		if err := tx.DeleteResourceFragments(res.ID); err != nil {
			return err
		}
		report.ResourcesDeleted++
	}

	return nil
}

// defragmentCompounds rewrites every live compound whose fragments span
// more than Config.DefragmentThreshold distinct resources, re-sealing
// their fragment bodies into fresh resources of at most
// Config.MaxFragmentsPerResource fragments each (TargetResourceSize is not
// applied here) and updating each Fragment's resource_ref in place. The
// resources those fragments used to live in are left for gcDeadResources to reclaim once nothing points at them any more.
func defragmentCompounds(ctx context.Context, eng *engine.Engine, tx *catalog.Tx, report *CleanReport) error {
	threshold := eng.Config.DefragmentThreshold
	if threshold <= 0 {
		threshold = 8
	}

	compounds, err := tx.ListCompounds()
	if err != nil {
		return err
	}

	for _, c := range compounds {
		spanned := make(map[string]bool)
		for _, h := range c.FragmentSequence {
			f, err := tx.GetFragment(h)
			if err != nil {
				continue
			}
			spanned[f.Ref.ResourceID] = true
		}
		if len(spanned) <= threshold {
			continue
		}

		items, err := pendingBodiesFor(ctx, eng, tx, c.FragmentSequence)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			continue
		}

		cfg := resource.BuildConfig{
			Compressor: codec.Compressor(eng.Config.Compressor),
			Wrapper:    codec.Wrapper(eng.Config.Wrapper),
		}
		maxFragments := eng.Config.MaxFragmentsPerResource

		for len(items) > 0 {
			n := len(items)
			if maxFragments > 0 && n > maxFragments {
				n = maxFragments
			}
			batch := items[:n]
			items = items[n:]

			b := resource.NewBuilder(cfg, batch)
			if _, err := b.Seal(ctx, eng.Backend, tx); err != nil {
				return err
			}
			report.FragmentsRelocated += len(batch)
		}
		report.CompoundsDefragmented++
	}

	return nil
}

// pendingBodiesFor fetches the current body of every distinct fragment
// hash in sequence, in first-occurrence order, with Refcount left at zero
// so resource.Builder.Seal's additive refcount merge (built for
// first-time-ingest accounting) leaves each Fragment's already-correct
// refcount untouched; only its resource_ref moves.
func pendingBodiesFor(ctx context.Context, eng *engine.Engine, tx *catalog.Tx, sequence []catalog.Hash) ([]fragment.PendingFragment, error) {
	seen := make(map[catalog.Hash]bool, len(sequence))
	items := make([]fragment.PendingFragment, 0, len(sequence))
	for _, h := range sequence {
		if seen[h] {
			continue
		}
		seen[h] = true

		f, err := tx.GetFragment(h)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				continue
			}
			return nil, err
		}
		body, err := fetchFragmentBody(ctx, eng, tx, f)
		if err != nil {
			return nil, err
		}
		items = append(items, fragment.PendingFragment{Hash: h, Body: body, Refcount: 0})
	}
	return items, nil
}
