package config

import "strings"

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validBackends lists the accepted backend identifiers (a closed set;
// new backends are added by extending this map and the backend switch in
// engine.Open).
var validBackends = map[string]bool{
	"memory":     true,
	"filesystem": true,
	"smb":        true,
	"s3":         true,
}

// validWrappers lists the accepted wrapper identifiers.
var validWrappers = map[string]bool{
	"png":      true,
	"svg":      true,
	"identity": true,
}

// validCompressors lists the accepted compressor identifiers.
var validCompressors = map[string]bool{
	"none": true,
	"gzip": true,
	"lzw":  true,
	"zstd": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if !validBackends[strings.ToLower(cfg.Backend)] {
		return ErrInvalidBackend
	}

	if !validWrappers[strings.ToLower(cfg.Wrapper)] {
		return ErrInvalidWrapper
	}

	if !validCompressors[strings.ToLower(cfg.Compressor)] {
		return ErrInvalidCompressor
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.FragmentSize <= 0 {
		return ErrInvalidFragmentSize
	}

	if cfg.TargetResourceSize < cfg.FragmentSize {
		return ErrInvalidResourceSize
	}

	if cfg.MaxFragmentsPerResource <= 0 {
		return ErrInvalidMaxFragments
	}

	if cfg.DefragmentThreshold <= 0 {
		return ErrInvalidDefragmentThreshold
	}

	return nil
}
