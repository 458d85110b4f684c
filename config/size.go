package config

import (
	"fmt"
	"strconv"
	"strings"
)

// sizeSuffixes maps accepted suffixes to their decimal (SI) multiplier:
// "0.5MB" means 500000 bytes, not 524288.
var sizeSuffixes = []struct {
	suffix string
	mult   float64
}{
	{"GB", 1e9},
	{"MB", 1e6},
	{"KB", 1e3},
	{"B", 1},
}

// ParseSize parses a human size string such as "5MB", "0.5MB", or "2048"
// (bytes, no suffix) into a byte count. Multipliers are decimal (SI), not
// binary.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidSize
	}

	for _, sfx := range sizeSuffixes {
		if strings.HasSuffix(strings.ToUpper(s), sfx.suffix) {
			numPart := s[:len(s)-len(sfx.suffix)]
			f, err := strconv.ParseFloat(strings.TrimSpace(numPart), 64)
			if err != nil || f < 0 {
				return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
			}
			return int64(f * sfx.mult), nil
		}
	}

	// No recognized suffix, treat as a plain byte count.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	return int64(f), nil
}
