package snapshots_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shadewalk/shadewalk/internal/snapshots"
)

func TestBucket(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Time
		expected time.Time
	}{
		{
			name:     "mid-bucket rounds down",
			in:       time.Date(2026, 7, 1, 12, 7, 33, 0, time.UTC),
			expected: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:     "bucket boundary unchanged",
			in:       time.Date(2026, 7, 1, 12, 10, 0, 0, time.UTC),
			expected: time.Date(2026, 7, 1, 12, 10, 0, 0, time.UTC),
		},
		{
			name:     "non-UTC input normalized",
			in:       time.Date(2026, 7, 1, 21, 14, 59, 0, time.FixedZone("JST", 9*3600)),
			expected: time.Date(2026, 7, 1, 12, 10, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snapshots.Bucket(tt.in)
			assert.True(t, got.Equal(tt.expected), "got %v, expected %v", got, tt.expected)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestBucket_StableWithinWindow(t *testing.T) {
	base := time.Date(2026, 7, 1, 9, 20, 0, 0, time.UTC)
	for offset := time.Duration(0); offset < snapshots.BucketDuration; offset += time.Minute {
		assert.True(t, snapshots.Bucket(base.Add(offset)).Equal(base))
	}
}
