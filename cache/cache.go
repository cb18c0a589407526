// Package cache implements a repetition-aware, capacity-bounded result
// cache: a map keyed by a stable identifier, an eviction policy that runs on
// Put, and a Stats() accessor.
package cache

import (
	"fmt"

	"github.com/mpalomo/wlsim"
)

// Config bounds the cache's admission. A nil MaxCapacityBytes means
// unbounded — every entry whose own size and repetition coefficient pass
// the per-entry checks is admitted without eviction.
type Config struct {
	MaxCapacityBytes *int64
}

// Validate rejects a malformed configuration.
func (c Config) Validate() error {
	if c.MaxCapacityBytes != nil && *c.MaxCapacityBytes < 0 {
		return fmt.Errorf("%w: negative max_capacity_bytes", wlsim.ErrConfigError)
	}
	return nil
}

// Stats is a snapshot of the cache's running counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Gets      int64
	Puts      int64
	Evictions int64
}

// Cache is an ordered mapping from fingerprint to CacheEntry, with a
// capacity bound and a repetition-coefficient eviction policy.
type Cache struct {
	cfg   Config
	byKey map[wlsim.Fingerprint]*wlsim.CacheEntry
	// order preserves insertion order so that entries sharing the lowest
	// repetition coefficient evict earliest-inserted first, without needing
	// a secondary sequence counter.
	order []wlsim.Fingerprint

	usage int64

	lowestRC      float64
	lowestRCValid bool

	stats Stats
}

// New constructs an empty cache under the given configuration.
func New(cfg Config) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Cache{
		cfg:   cfg,
		byKey: make(map[wlsim.Fingerprint]*wlsim.CacheEntry),
	}, nil
}

// Contains reports whether key currently has a materialized entry.
func (c *Cache) Contains(key wlsim.Fingerprint) bool {
	_, ok := c.byKey[key]
	return ok
}

// Get returns the entry for key, incrementing the hit/miss counters.
// An out-of-bounds key yields a miss, never an error.
func (c *Cache) Get(key wlsim.Fingerprint) (wlsim.CacheEntry, bool) {
	c.stats.Gets++

	entry, ok := c.byKey[key]
	if !ok {
		c.stats.Misses++
		return wlsim.CacheEntry{}, false
	}

	c.stats.Hits++
	return *entry, true
}

// Put admits entry under key: a same-key put evicts the prior entry first; negative size,
// zero repetition coefficient, or over-capacity size are rejected outright;
// an entry that doesn't fit is admitted only by evicting lower-repetition
// entries, and only if its own repetition coefficient beats the current
// floor.
func (c *Cache) Put(key wlsim.Fingerprint, entry wlsim.CacheEntry) bool {
	c.stats.Puts++

	if c.Contains(key) {
		c.removeKey(key)
	}

	if entry.Size < 0 || entry.RepetitionCoefficient == 0 {
		return false
	}
	if c.cfg.MaxCapacityBytes != nil && entry.Size > *c.cfg.MaxCapacityBytes {
		return false
	}

	if c.cfg.MaxCapacityBytes != nil {
		free := *c.cfg.MaxCapacityBytes - c.usage
		if entry.Size > free {
			if !c.lowestRCValid || entry.RepetitionCoefficient <= c.lowestRC {
				return false
			}
			deficit := entry.Size - free
			c.evict(deficit)
		}
	}

	c.admit(key, entry)
	return true
}

// admit inserts entry unconditionally and updates usage/lowestRC bookkeeping.
func (c *Cache) admit(key wlsim.Fingerprint, entry wlsim.CacheEntry) {
	stored := entry
	c.byKey[key] = &stored
	c.order = append(c.order, key)
	c.usage += entry.Size

	if !c.lowestRCValid || entry.RepetitionCoefficient < c.lowestRC {
		c.lowestRC = entry.RepetitionCoefficient
		c.lowestRCValid = true
	}
}

// removeKey deletes key without counting it as a capacity eviction — used
// for the same-key-replace path, distinct from evict's capacity-driven path.
func (c *Cache) removeKey(key wlsim.Fingerprint) {
	entry, ok := c.byKey[key]
	if !ok {
		return
	}
	delete(c.byKey, key)
	c.usage -= entry.Size
	c.removeFromOrder(key)
	c.recomputeLowestRC()
}

func (c *Cache) removeFromOrder(key wlsim.Fingerprint) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *Cache) recomputeLowestRC() {
	if len(c.order) == 0 {
		c.lowestRCValid = false
		c.lowestRC = 0
		return
	}
	lowest := c.byKey[c.order[0]].RepetitionCoefficient
	for _, k := range c.order[1:] {
		if rc := c.byKey[k].RepetitionCoefficient; rc < lowest {
			lowest = rc
		}
	}
	c.lowestRC = lowest
	c.lowestRCValid = true
}

// Evict frees at least bytesNeeded bytes by repeated lowest-repetition
// eviction. Evicting from an empty cache is a programming error, so it
// panics rather than returning an error.
func (c *Cache) Evict(bytesNeeded int64) {
	c.evict(bytesNeeded)
}

func (c *Cache) evict(bytesNeeded int64) {
	var freed int64
	for freed < bytesNeeded {
		key, ok := c.selectForEviction()
		if !ok {
			panic("cache: evict called with nothing left to evict")
		}
		entry := c.byKey[key]
		freed += entry.Size
		delete(c.byKey, key)
		c.removeFromOrder(key)
		c.stats.Evictions++
	}
	c.usage -= freed
	c.recomputeLowestRC()
}

// selectForEviction picks the earliest-inserted entry among those sharing
// the lowest repetition coefficient.
func (c *Cache) selectForEviction() (wlsim.Fingerprint, bool) {
	if len(c.order) == 0 {
		return "", false
	}
	bestKey := c.order[0]
	bestRC := c.byKey[bestKey].RepetitionCoefficient
	for _, k := range c.order[1:] {
		if rc := c.byKey[k].RepetitionCoefficient; rc < bestRC {
			bestRC = rc
			bestKey = k
		}
	}
	return bestKey, true
}

// AffectedBy returns the entries a write query would dirty: those sharing
// its db_instance_id whose read_tables contain its write_table. Order is
// deterministic (insertion order).
func (c *Cache) AffectedBy(write wlsim.Query) []wlsim.CacheEntry {
	if !write.HasWriteTable() {
		return nil
	}
	var out []wlsim.CacheEntry
	for _, k := range c.order {
		e := c.byKey[k]
		if e.DBInstanceID == write.DBInstanceID && e.ReadsTable(write.WriteTable) {
			out = append(out, *e)
		}
	}
	return out
}

// MarkDirty marks every entry affected by write dirty, accumulating the
// write's volume into each entry's delta, and returns the affected entries
// (post-update). This is the mutation counterpart to AffectedBy, used by the
// Lazy and Hybrid models to apply a flushed write against the cache.
func (c *Cache) MarkDirty(write wlsim.Query) []wlsim.CacheEntry {
	if !write.HasWriteTable() {
		return nil
	}
	var out []wlsim.CacheEntry
	for _, k := range c.order {
		e := c.byKey[k]
		if e.DBInstanceID == write.DBInstanceID && e.ReadsTable(write.WriteTable) {
			e.Dirty = true
			e.Delta += write.WriteVolume
			out = append(out, *e)
		}
	}
	return out
}

// Usage returns current bytes held by the cache.
func (c *Cache) Usage() int64 { return c.usage }

// LowestRepetitionCoefficient returns the current floor and whether it is
// defined (false when the cache is empty).
func (c *Cache) LowestRepetitionCoefficient() (float64, bool) {
	return c.lowestRC, c.lowestRCValid
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int { return len(c.order) }

// Stats returns a snapshot of the insights counter bundle.
func (c *Cache) Stats() Stats { return c.stats }

// DirtyEntries returns the keys of every currently dirty entry, sorted by
// (repetition_coefficient desc, load desc, insertion order asc) — the order
// the Hybrid model's drain loop uses to pick refresh candidates.
func (c *Cache) DirtyEntries() []wlsim.Fingerprint {
	var keys []wlsim.Fingerprint
	for _, k := range c.order {
		if c.byKey[k].Dirty {
			keys = append(keys, k)
		}
	}
	sortByRepetitionThenLoad(keys, c.byKey)
	return keys
}

func sortByRepetitionThenLoad(keys []wlsim.Fingerprint, byKey map[wlsim.Fingerprint]*wlsim.CacheEntry) {
	// insertion sort over every dirty entry: O(n^2), which keeps the
	// tie-break (stable on insertion order) obvious.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0; j-- {
			a, b := byKey[keys[j-1]], byKey[keys[j]]
			if !less(b, a) {
				break
			}
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
}

// less reports whether entry a sorts before entry b under
// (repetition_coefficient desc, load desc).
func less(a, b *wlsim.CacheEntry) bool {
	if a.RepetitionCoefficient != b.RepetitionCoefficient {
		return a.RepetitionCoefficient > b.RepetitionCoefficient
	}
	return a.Load > b.Load
}
