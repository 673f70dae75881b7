package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingReference_Format(t *testing.T) {
	date := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	ref := NewBookingReference(date)

	assert.Regexp(t, regexp.MustCompile(`^PGC-20261014-[0-9A-F]{8}$`), ref)
}

func TestNewBookingReference_Unique(t *testing.T) {
	date := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		ref := NewBookingReference(date)
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
	}
}
