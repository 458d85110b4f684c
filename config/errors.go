package config

import "errors"

var (
	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidBackend indicates the backend name is not recognized.
	ErrInvalidBackend = errors.New("config: invalid backend (must be \"memory\", \"filesystem\", \"smb\", or \"s3\")")

	// ErrInvalidWrapper indicates the wrapper name is not recognized.
	ErrInvalidWrapper = errors.New("config: invalid wrapper (must be \"png\", \"svg\", or \"identity\")")

	// ErrInvalidCompressor indicates the compressor name is not recognized.
	ErrInvalidCompressor = errors.New("config: invalid compressor (must be \"none\", \"gzip\", \"lzw\", or \"zstd\")")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrInvalidFragmentSize indicates the fragment size is not a positive integer.
	ErrInvalidFragmentSize = errors.New("config: fragment size must be positive")

	// ErrInvalidResourceSize indicates the target resource size is smaller than the fragment size.
	ErrInvalidResourceSize = errors.New("config: target resource size must be at least the fragment size")

	// ErrInvalidMaxFragments indicates max fragments per resource is not a positive integer.
	ErrInvalidMaxFragments = errors.New("config: max fragments per resource must be positive")

	// ErrInvalidDefragmentThreshold indicates the defragment threshold is not a positive integer.
	ErrInvalidDefragmentThreshold = errors.New("config: defragment threshold must be positive")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")

	// ErrInvalidSize indicates a size string could not be parsed.
	ErrInvalidSize = errors.New("config: invalid size (expected a number with optional B/KB/MB/GB suffix)")
)
