// Package compound implements the named-stream layer: it turns a byte
// stream into an ordered fragment sequence on upload,
// reassembles and verifies it on download, and provides the list/delete/
// rename/statistic/clean operations over the catalog's compound mapping.
package compound

import "errors"

var (
	// ErrUsage signals a bad invocation: unknown flags, an unknown name on
	// delete in strict mode. Download reports an unknown name with
	// ErrCompoundNotFound.
	ErrUsage = errors.New("compound: usage error")

	// ErrCompoundExists indicates upload without Overwrite targeted a name
	// that already has a Compound.
	ErrCompoundExists = errors.New("compound: name already exists")

	// ErrCompoundNotFound indicates the named compound does not exist.
	ErrCompoundNotFound = errors.New("compound: not found")

	// ErrCompoundCorrupt indicates the reconstructed stream's hash did not
	// match the Compound's recorded TotalHash.
	ErrCompoundCorrupt = errors.New("compound: total hash mismatch on download")

	// ErrCancelled indicates the caller's context was cancelled mid-upload
	// or mid-download.
	ErrCancelled = errors.New("compound: operation cancelled")
)
