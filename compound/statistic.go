package compound

import (
	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/engine"
)

// Stats summarizes the catalog's contents for the `statistic` CLI
// subcommand: counts and sizes of every mapping, the dedup ratio achieved
// across all cataloged fragments, and the average fill efficiency of
// resources. Fragment rows whose refcount has dropped to zero but which
// Clean has not yet removed are counted like any other.
type Stats struct {
	CompoundCount int
	FragmentCount int
	ResourceCount int

	// TotalLogicalSize is the sum of every Compound's TotalSize: the
	// bytes a caller would see if every compound were downloaded.
	TotalLogicalSize int64

	// TotalFragmentSize is the sum of every distinct Fragment's
	// (post-first-layer) Size, what dedup actually paid to store.
	TotalFragmentSize int64

	// TotalResourceSize is the sum of every Resource's on-backend
	// TotalSize.
	TotalResourceSize int64

	// DedupRatio is the sum of every Fragment's refcount divided by the
	// number of distinct Fragments: 1.00 with no sharing, 2.00 if every
	// fragment is referenced from exactly two positions, etc.
	DedupRatio float64

	// FillEfficiency is the ratio of the fragment body bytes a Resource
	// carries to its on-backend TotalSize, averaged over every Resource.
	// The inner frame adds an 11-byte header and a 40-byte hash-and-length
	// entry per fragment, so with no compression and the identity wrapper
	// the value is below 1.0; values above 1.0 mean second-layer
	// compression shrank the payload below its raw fragment bytes.
	FillEfficiency float64
}

// Statistic reports counts, sizes, dedup ratio, and resource fill
// efficiency across the whole catalog.
func Statistic(eng *engine.Engine) (Stats, error) {
	var stats Stats
	err := eng.Catalog.View(func(tx *catalog.Tx) error {
		compounds, err := tx.ListCompounds()
		if err != nil {
			return err
		}
		stats.CompoundCount = len(compounds)
		for _, c := range compounds {
			stats.TotalLogicalSize += c.TotalSize
		}

		fragments, err := tx.ListFragments()
		if err != nil {
			return err
		}
		stats.FragmentCount = len(fragments)
		var refcountSum int64
		var fragmentBytesByResource = make(map[string]int64)
		for _, f := range fragments {
			stats.TotalFragmentSize += f.Size
			refcountSum += f.Refcount
			fragmentBytesByResource[f.Ref.ResourceID] += f.Size
		}
		if stats.FragmentCount > 0 {
			stats.DedupRatio = float64(refcountSum) / float64(stats.FragmentCount)
		}

		resources, err := tx.ListResources()
		if err != nil {
			return err
		}
		stats.ResourceCount = len(resources)
		var fillSum float64
		for _, r := range resources {
			stats.TotalResourceSize += r.TotalSize
			if r.TotalSize > 0 {
				fillSum += float64(fragmentBytesByResource[r.ID]) / float64(r.TotalSize)
			}
		}
		if stats.ResourceCount > 0 {
			stats.FillEfficiency = fillSum / float64(stats.ResourceCount)
		}

		return nil
	})
	return stats, err
}
