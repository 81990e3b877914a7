package cache

import (
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/observer"
)

// IntakeCache uses a bloom filter to short-circuit duplicate inquiry intake.
// A hit means the phone+source pair was probably seen already and the worker
// should confirm against the store before inserting; a miss is definitive.
type IntakeCache struct {
	seenFilter     *bloom.BloomFilter
	mu             sync.RWMutex
	hits           atomic.Int64
	misses         atomic.Int64
	falsePositives atomic.Int64
}

// NewIntakeCache creates a new intake dedupe cache sized for the expected
// number of distinct inquiries and the acceptable false-positive rate.
func NewIntakeCache(expectedEntries uint, fpRate float64) *IntakeCache {
	return &IntakeCache{
		seenFilter: bloom.NewWithEstimates(expectedEntries, fpRate),
	}
}

// generateKey creates a cache key from phone and source ID using FNV-1a hash
func (c *IntakeCache) generateKey(phone, sourceID string) string {
	h := fnv.New64a()
	h.Write([]byte(phone + ":" + sourceID))
	return fmt.Sprintf("%x", h.Sum64())
}

// ProbablySeen reports whether the phone+source pair may already have a lead.
// False positives are possible, false negatives are not.
func (c *IntakeCache) ProbablySeen(phone, sourceID string) bool {
	key := c.generateKey(phone, sourceID)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.seenFilter.TestString(key) {
		c.hits.Add(1)
		observer.IncDedupeCheck("intake_seen", "possible_hit")
		return true
	}

	c.misses.Add(1)
	observer.IncDedupeCheck("intake_seen", "miss")
	return false
}

// MarkSeen records a phone+source pair after its lead has been persisted.
func (c *IntakeCache) MarkSeen(phone, sourceID string) {
	key := c.generateKey(phone, sourceID)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seenFilter.AddString(key)
}

// RecordFalsePositive tracks when the filter flagged a pair that turned out
// to have no lead in the store.
func (c *IntakeCache) RecordFalsePositive() {
	c.falsePositives.Add(1)
	observer.IncDedupeCheck("intake_seen", "false_positive")
}

// Stats returns cache statistics.
func (c *IntakeCache) Stats() IntakeCacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	fps := c.falsePositives.Load()
	total := hits + misses

	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	c.mu.RLock()
	size := c.seenFilter.ApproximatedSize()
	c.mu.RUnlock()

	return IntakeCacheStats{
		Hits:           hits,
		Misses:         misses,
		HitRate:        hitRate,
		FalsePositives: fps,
		ApproxSize:     uint64(size),
	}
}

// IntakeCacheStats is a point-in-time view of the cache counters.
type IntakeCacheStats struct {
	Hits           int64
	Misses         int64
	HitRate        float64
	FalsePositives int64
	ApproxSize     uint64
}
