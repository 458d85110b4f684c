package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0.5MB", 500000},
		{"5MB", 5000000},
		{"1GB", 1000000000},
		{"100KB", 100000},
		{"10B", 10},
		{"2048", 2048},
		{"1.5KB", 1500},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSize(tc.in)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSize_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-5MB", "MB"} {
		_, err := ParseSize(in)
		assert.ErrorIs(t, err, ErrInvalidSize, in)
	}
}
