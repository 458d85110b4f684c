// Package backend implements the storage-service contract:
// put/get/list/delete of opaque blobs, keyed by a backend-chosen
// identifier, with byte-exact retrieval and idempotent delete. The variant
// set is closed (Memory, FileSystem, SMB, and S3-compatible object storage)
// and grows by extending it here, never by runtime plugin loading.
package backend

import "context"

// Backend is the storage-service contract every concrete variant
// implements. A backend may constrain which bytes it accepts (e.g. valid
// image files); codec.Wrap exists to satisfy that constraint upstream of
// Put.
type Backend interface {
	// Put stores data and returns the backend-chosen key used to retrieve
	// it again.
	Put(ctx context.Context, data []byte) (key string, err error)

	// Get retrieves the bytes stored under key, byte-exact.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns every key currently stored.
	List(ctx context.Context) ([]string, error)

	// Delete removes the blob stored under key. Deleting a key that does
	// not exist is not an error.
	Delete(ctx context.Context, key string) error
}
