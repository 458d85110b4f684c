package main

import (
	"errors"

	"github.com/tormund/fragvault/backend"
	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/compound"
	"github.com/tormund/fragvault/config"
)

const (
	exitOK                 = 0
	exitGeneric            = 1
	exitUsage              = 2
	exitBackendUnavailable = 3
	exitCatalogCorruption  = 4
	exitIntegrityFailed    = 5
)

// exitCodeFor maps an error returned by a subcommand onto the process exit
// code. Sentinel checks are ordered most-specific first, so the
// integrity failures (a ResourceCorruptError or ErrCompoundCorrupt) are
// matched before the broader catalog, backend, and usage checks.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}

	var resCorrupt *compound.ResourceCorruptError
	switch {
	case errors.As(err, &resCorrupt),
		errors.Is(err, compound.ErrCompoundCorrupt):
		return exitIntegrityFailed

	case errors.Is(err, catalog.ErrCorrupt),
		errors.Is(err, catalog.ErrSchemaTooNew):
		return exitCatalogCorruption

	case errors.Is(err, backend.ErrUnavailable):
		return exitBackendUnavailable

	case errors.Is(err, compound.ErrUsage),
		errors.Is(err, compound.ErrCompoundExists),
		errors.Is(err, compound.ErrCompoundNotFound),
		errors.Is(err, config.ErrInvalidSize),
		errors.Is(err, config.ErrInvalidBackend),
		errors.Is(err, config.ErrInvalidWrapper),
		errors.Is(err, config.ErrInvalidCompressor):
		return exitUsage

	case errors.Is(err, compound.ErrCancelled):
		return exitGeneric

	default:
		return exitGeneric
	}
}
