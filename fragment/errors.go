package fragment

import "errors"

var (
	// ErrInvalidFragmentSize indicates a non-positive fragment size was
	// requested of the pipeline.
	ErrInvalidFragmentSize = errors.New("fragment: fragment size must be positive")
)
