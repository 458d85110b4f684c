package compound

import (
	"context"
	"fmt"

	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/codec"
	"github.com/tormund/fragvault/engine"
)

// ResourceCorruptError reports that a specific resource's bytes could not
// be unwrapped or decompressed back into the inner payload its layout
// promises, naming the resource so the operator knows which blob to
// inspect.
type ResourceCorruptError struct {
	ResourceID string
	Err        error
}

func (e *ResourceCorruptError) Error() string {
	return fmt.Sprintf("compound: resource %s corrupt: %v", e.ResourceID, e.Err)
}

func (e *ResourceCorruptError) Unwrap() error { return e.Err }

// fetchResourcePayload returns the unwrapped, decompressed inner payload of
// a resource, consulting the engine's resource cache first so repeat
// offset/length slicing against the same resource is O(1).
func fetchResourcePayload(ctx context.Context, eng *engine.Engine, tx *catalog.Tx, resourceID string) ([]byte, error) {
	if payload, ok := eng.ResourceCache.Get(resourceID); ok {
		return payload, nil
	}

	res, err := tx.GetResource(resourceID)
	if err != nil {
		return nil, fmt.Errorf("compound: resolve resource %s: %w", resourceID, err)
	}

	raw, err := eng.Backend.Get(ctx, res.BackendKey)
	if err != nil {
		return nil, err
	}

	unwrapped, err := codec.Unwrap(codec.Wrapper(res.Wrapper), raw)
	if err != nil {
		return nil, &ResourceCorruptError{ResourceID: resourceID, Err: err}
	}
	inner, err := codec.Decompress(codec.Compressor(res.Compressor), unwrapped)
	if err != nil {
		return nil, &ResourceCorruptError{ResourceID: resourceID, Err: err}
	}

	eng.ResourceCache.Put(resourceID, inner)
	return inner, nil
}

// fetchFragmentBody returns a single fragment's post-first-layer body,
// sliced out of its hosting resource's inner payload by the offset and
// length recorded in the catalog.
func fetchFragmentBody(ctx context.Context, eng *engine.Engine, tx *catalog.Tx, f *catalog.Fragment) ([]byte, error) {
	inner, err := fetchResourcePayload(ctx, eng, tx, f.Ref.ResourceID)
	if err != nil {
		return nil, err
	}
	start := f.Ref.Offset
	end := start + f.Ref.Length
	if start < 0 || end > int64(len(inner)) {
		return nil, &ResourceCorruptError{
			ResourceID: f.Ref.ResourceID,
			Err:        fmt.Errorf("fragment %x declares [%d:%d] past payload of %d bytes", f.Hash, start, end, len(inner)),
		}
	}
	body := make([]byte, f.Ref.Length)
	copy(body, inner[start:end])
	return body, nil
}
