package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutoApprove(t *testing.T) {
	tests := []struct {
		name          string
		capacity      int
		reservedAfter int
		thresholdPct  int
		want          bool
	}{
		{
			name:          "well below threshold",
			capacity:      10,
			reservedAfter: 3,
			thresholdPct:  80,
			want:          true,
		},
		{
			name:          "just below threshold",
			capacity:      10,
			reservedAfter: 4,
			thresholdPct:  50,
			want:          true,
		},
		{
			name:          "exactly at threshold goes to manual review",
			capacity:      10,
			reservedAfter: 5,
			thresholdPct:  50,
			want:          false,
		},
		{
			name:          "above threshold",
			capacity:      10,
			reservedAfter: 9,
			thresholdPct:  50,
			want:          false,
		},
		{
			name:          "full slot never auto-approved",
			capacity:      10,
			reservedAfter: 10,
			thresholdPct:  100,
			want:          false,
		},
		{
			name:          "threshold 100 approves anything not full",
			capacity:      10,
			reservedAfter: 9,
			thresholdPct:  100,
			want:          true,
		},
		{
			name:          "integer math has no float drift",
			capacity:      3,
			reservedAfter: 1,
			thresholdPct:  33,
			want:          false, // 1*100 == 100, 33*3 == 99
		},
		{
			name:          "zero capacity is never approved",
			capacity:      0,
			reservedAfter: 0,
			thresholdPct:  80,
			want:          false,
		},
		{
			name:          "zero threshold disables auto-validation",
			capacity:      10,
			reservedAfter: 1,
			thresholdPct:  0,
			want:          false,
		},
		{
			name:          "negative reserved is rejected",
			capacity:      10,
			reservedAfter: -1,
			thresholdPct:  80,
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AutoApprove(tt.capacity, tt.reservedAfter, tt.thresholdPct)
			assert.Equal(t, tt.want, got)
		})
	}
}
