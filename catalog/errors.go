package catalog

import "errors"

var (
	// ErrNotFound indicates no catalog row exists for the given key.
	ErrNotFound = errors.New("catalog: not found")

	// ErrAlreadyExists indicates a Put would overwrite an existing row that
	// the caller did not ask to replace.
	ErrAlreadyExists = errors.New("catalog: already exists")

	// ErrCorrupt indicates the catalog file is unreadable or internally
	// inconsistent. Per the error taxonomy this halts the running command;
	// recovery requires "wipe".
	ErrCorrupt = errors.New("catalog: corrupt")

	// ErrSchemaTooNew indicates the catalog was written by a newer, possibly
	// incompatible, schema version than this binary understands.
	ErrSchemaTooNew = errors.New("catalog: schema version is newer than supported")

	// ErrNilParam indicates a required pointer/slice argument was nil or empty.
	ErrNilParam = errors.New("catalog: required parameter missing")
)
