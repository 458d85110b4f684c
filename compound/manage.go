package compound

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/engine"
)

// List returns every Compound in the catalog, sorted by name.
func List(eng *engine.Engine) ([]catalog.Compound, error) {
	var out []catalog.Compound
	err := eng.Catalog.View(func(tx *catalog.Tx) error {
		all, err := tx.ListCompounds()
		if err != nil {
			return err
		}
		out = all
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteOptions tunes Delete's handling of an unknown name.
type DeleteOptions struct {
	// Idempotent makes deleting a non-existent name a no-op instead of a
	// usage error.
	Idempotent bool
}

// Delete removes name's Compound row and decrements the refcount of every
// fragment it referenced. A fragment whose refcount reaches zero is left
// in the catalog as a GC candidate; actual removal, and removal of any
// resource left with no live fragment, happens in Clean, never here.
func Delete(eng *engine.Engine, name string, opts DeleteOptions) error {
	return eng.WithWriteLock(func() error {
		return eng.Catalog.Update(func(tx *catalog.Tx) error {
			c, err := tx.GetCompound(name)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					if opts.Idempotent {
						return nil
					}
					return fmt.Errorf("%w: %q", ErrUsage, name)
				}
				return err
			}

			for _, h := range c.FragmentSequence {
				// Each position in the sequence holds one reference; a
				// hash repeated within the same compound (an internal
				// duplicate chunk) still decrements once per position.
				if _, err := tx.IncrFragmentRefcount(h, -1); err != nil {
					if errors.Is(err, catalog.ErrNotFound) {
						continue
					}
					return err
				}
			}

			return tx.DeleteCompound(name)
		})
	})
}

// Rename moves a Compound from old to new, failing if old does not exist
// or new already does.
func Rename(eng *engine.Engine, old, newName string) error {
	if newName == "" {
		return fmt.Errorf("%w: empty target name", ErrUsage)
	}
	return eng.WithWriteLock(func() error {
		return eng.Catalog.Update(func(tx *catalog.Tx) error {
			c, err := tx.GetCompound(old)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					return fmt.Errorf("%w: %q", ErrCompoundNotFound, old)
				}
				return err
			}
			if _, err := tx.GetCompound(newName); err == nil {
				return fmt.Errorf("%w: %q", ErrCompoundExists, newName)
			} else if !errors.Is(err, catalog.ErrNotFound) {
				return err
			}

			c.Name = newName
			if err := tx.PutCompound(c); err != nil {
				return err
			}
			return tx.DeleteCompound(old)
		})
	})
}
