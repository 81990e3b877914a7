package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeCache_MissIsDefinitive(t *testing.T) {
	c := NewIntakeCache(1000, 0.01)

	assert.False(t, c.ProbablySeen("9876543210", "prop-1"))

	stats := c.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestIntakeCache_MarkSeenThenHit(t *testing.T) {
	c := NewIntakeCache(1000, 0.01)

	c.MarkSeen("9876543210", "prop-1")
	assert.True(t, c.ProbablySeen("9876543210", "prop-1"))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, float64(1), stats.HitRate)
}

func TestIntakeCache_KeyIncludesSource(t *testing.T) {
	c := NewIntakeCache(1000, 0.01)

	c.MarkSeen("9876543210", "prop-1")

	// Same phone, different source: a fresh inquiry, not a duplicate.
	assert.False(t, c.ProbablySeen("9876543210", "prop-2"))
}

func TestIntakeCache_Stats(t *testing.T) {
	c := NewIntakeCache(1000, 0.01)

	for i := 0; i < 10; i++ {
		c.MarkSeen(fmt.Sprintf("phone-%d", i), "prop-1")
	}
	for i := 0; i < 10; i++ {
		require.True(t, c.ProbablySeen(fmt.Sprintf("phone-%d", i), "prop-1"))
	}
	require.False(t, c.ProbablySeen("phone-unseen", "prop-1"))
	c.RecordFalsePositive()

	stats := c.Stats()
	assert.Equal(t, int64(10), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 10.0/11.0, stats.HitRate, 0.0001)
	assert.Equal(t, int64(1), stats.FalsePositives)
	assert.Greater(t, stats.ApproxSize, uint64(0))
}
