package backend

import "errors"

var (
	// ErrNotFound indicates no blob exists for the given key.
	ErrNotFound = errors.New("backend: key not found")

	// ErrUnavailable indicates a transient failure (network, timeout,
	// throttling) that is worth retrying with backoff.
	ErrUnavailable = errors.New("backend: temporarily unavailable")

	// ErrRejected indicates a permanent failure (bad credentials, payload
	// rejected, quota exhausted) that retrying will not fix.
	ErrRejected = errors.New("backend: request rejected")
)
