package catalog

import (
	"fmt"

	"go.etcd.io/bbolt"
)

// Tx is a single catalog transaction, read-write or read-only depending on
// whether it came from DB.Update or DB.View.
type Tx struct {
	btx *bbolt.Tx
}

func (t *Tx) bucket(name []byte) *bbolt.Bucket { return t.btx.Bucket(name) }

// --- Compounds ---------------------------------------------------------

// PutCompound inserts or replaces a Compound by name.
func (t *Tx) PutCompound(c *Compound) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("%w: compound", ErrNilParam)
	}
	data, err := encodeGob(c)
	if err != nil {
		return fmt.Errorf("catalog: encode compound: %w", err)
	}
	return t.bucket(bucketCompounds).Put([]byte(c.Name), data)
}

// GetCompound looks up a Compound by name.
func (t *Tx) GetCompound(name string) (*Compound, error) {
	raw := t.bucket(bucketCompounds).Get([]byte(name))
	if raw == nil {
		return nil, ErrNotFound
	}
	var c Compound
	if err := decodeGob(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: decode compound %q: %v", ErrCorrupt, name, err)
	}
	return &c, nil
}

// DeleteCompound removes a Compound by name. It is a no-op (no error) if
// the name does not exist; callers that need strict semantics check
// existence first via GetCompound.
func (t *Tx) DeleteCompound(name string) error {
	return t.bucket(bucketCompounds).Delete([]byte(name))
}

// ListCompounds returns every Compound in the catalog.
func (t *Tx) ListCompounds() ([]Compound, error) {
	var out []Compound
	err := t.bucket(bucketCompounds).ForEach(func(_, v []byte) error {
		var c Compound
		if err := decodeGob(v, &c); err != nil {
			return fmt.Errorf("%w: decode compound: %v", ErrCorrupt, err)
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

// --- Fragments -----------------------------------------------------------

// PutFragment inserts or replaces a Fragment by hash.
func (t *Tx) PutFragment(f *Fragment) error {
	if f == nil {
		return fmt.Errorf("%w: fragment", ErrNilParam)
	}
	data, err := encodeGob(f)
	if err != nil {
		return fmt.Errorf("catalog: encode fragment: %w", err)
	}
	return t.bucket(bucketFragments).Put(f.Hash[:], data)
}

// GetFragment looks up a Fragment by content hash.
func (t *Tx) GetFragment(hash Hash) (*Fragment, error) {
	raw := t.bucket(bucketFragments).Get(hash[:])
	if raw == nil {
		return nil, ErrNotFound
	}
	var f Fragment
	if err := decodeGob(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: decode fragment %x: %v", ErrCorrupt, hash, err)
	}
	return &f, nil
}

// IncrFragmentRefcount adds delta to a fragment's refcount and persists the
// result, returning the updated Fragment. delta may be negative.
func (t *Tx) IncrFragmentRefcount(hash Hash, delta int64) (*Fragment, error) {
	f, err := t.GetFragment(hash)
	if err != nil {
		return nil, err
	}
	f.Refcount += delta
	if err := t.PutFragment(f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFragment removes a Fragment by hash.
func (t *Tx) DeleteFragment(hash Hash) error {
	return t.bucket(bucketFragments).Delete(hash[:])
}

// ListFragments returns every Fragment in the catalog.
func (t *Tx) ListFragments() ([]Fragment, error) {
	var out []Fragment
	err := t.bucket(bucketFragments).ForEach(func(_, v []byte) error {
		var f Fragment
		if err := decodeGob(v, &f); err != nil {
			return fmt.Errorf("%w: decode fragment: %v", ErrCorrupt, err)
		}
		out = append(out, f)
		return nil
	})
	return out, err
}

// --- Resources -------------------------------------------------------------

// PutResource inserts or replaces a Resource by ID.
func (t *Tx) PutResource(r *Resource) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("%w: resource", ErrNilParam)
	}
	data, err := encodeGob(r)
	if err != nil {
		return fmt.Errorf("catalog: encode resource: %w", err)
	}
	return t.bucket(bucketResources).Put([]byte(r.ID), data)
}

// GetResource looks up a Resource by ID.
func (t *Tx) GetResource(id string) (*Resource, error) {
	raw := t.bucket(bucketResources).Get([]byte(id))
	if raw == nil {
		return nil, ErrNotFound
	}
	var r Resource
	if err := decodeGob(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: decode resource %q: %v", ErrCorrupt, id, err)
	}
	return &r, nil
}

// DeleteResource removes a Resource by ID.
func (t *Tx) DeleteResource(id string) error {
	return t.bucket(bucketResources).Delete([]byte(id))
}

// ListResources returns every Resource in the catalog.
func (t *Tx) ListResources() ([]Resource, error) {
	var out []Resource
	err := t.bucket(bucketResources).ForEach(func(_, v []byte) error {
		var r Resource
		if err := decodeGob(v, &r); err != nil {
			return fmt.Errorf("%w: decode resource: %v", ErrCorrupt, err)
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// --- Resource -> fragment reverse index (for GC) --------------------------

// PutResourceFragments overwrites the set of fragment hashes a resource
// carries, used by garbage collection to find whether any are still live
// without scanning every compound.
func (t *Tx) PutResourceFragments(resourceID string, hashes []Hash) error {
	data, err := encodeGob(hashes)
	if err != nil {
		return fmt.Errorf("catalog: encode resource fragments: %w", err)
	}
	return t.bucket(bucketResourceFragments).Put([]byte(resourceID), data)
}

// GetResourceFragments returns the fragment hashes a resource carries.
func (t *Tx) GetResourceFragments(resourceID string) ([]Hash, error) {
	raw := t.bucket(bucketResourceFragments).Get([]byte(resourceID))
	if raw == nil {
		return nil, ErrNotFound
	}
	var hashes []Hash
	if err := decodeGob(raw, &hashes); err != nil {
		return nil, fmt.Errorf("%w: decode resource fragments %q: %v", ErrCorrupt, resourceID, err)
	}
	return hashes, nil
}

// DeleteResourceFragments removes the reverse-index row for a resource.
func (t *Tx) DeleteResourceFragments(resourceID string) error {
	return t.bucket(bucketResourceFragments).Delete([]byte(resourceID))
}
