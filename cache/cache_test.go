package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpalomo/wlsim"
)

func cap64(n int64) *int64 { return &n }

func entry(rc float64, size int64, dbInstance int64, tables ...string) wlsim.CacheEntry {
	rt := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		rt[t] = struct{}{}
	}
	return wlsim.CacheEntry{
		Query: wlsim.Query{
			DBInstanceID:          dbInstance,
			ReadTables:            rt,
			RepetitionCoefficient: rc,
		},
		Size: size,
	}
}

func TestPutAndGet(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	admitted := c.Put("q1", entry(0.5, 150, 1, "t"))
	assert.True(t, admitted)
	assert.Equal(t, int64(150), c.Usage())

	got, ok := c.Get("q1")
	assert.True(t, ok)
	assert.Equal(t, int64(150), got.Size)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestPutRejectsZeroRepetitionAndNegativeSize(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	assert.False(t, c.Put("q1", entry(0, 100, 1, "t")))
	assert.False(t, c.Put("q2", wlsim.CacheEntry{Size: -1, Query: wlsim.Query{RepetitionCoefficient: 0.5}}))
	assert.Equal(t, int64(0), c.Usage())
}

func TestPutRejectsOverCapacity(t *testing.T) {
	c, err := New(Config{MaxCapacityBytes: cap64(100)})
	require.NoError(t, err)

	assert.False(t, c.Put("q1", entry(0.5, 200, 1, "t")))
}

func TestEvictionByRepetitionCoefficient(t *testing.T) {
	c, err := New(Config{MaxCapacityBytes: cap64(200)})
	require.NoError(t, err)

	assert.True(t, c.Put("q1", entry(0.1, 150, 1, "t")))
	assert.True(t, c.Put("q2", entry(0.5, 150, 1, "t")))

	assert.False(t, c.Contains("q1"))
	assert.True(t, c.Contains("q2"))
	assert.Equal(t, int64(150), c.Usage())

	lowest, ok := c.LowestRepetitionCoefficient()
	assert.True(t, ok)
	assert.Equal(t, 0.5, lowest)

	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestPutRejectsWhenNewEntryNotMoreValuable(t *testing.T) {
	c, err := New(Config{MaxCapacityBytes: cap64(200)})
	require.NoError(t, err)

	require.True(t, c.Put("q1", entry(0.5, 150, 1, "t")))
	// q2 doesn't fit (only 50 bytes free, needs 100) and isn't more valuable.
	assert.False(t, c.Put("q2", entry(0.3, 100, 1, "t")))
	assert.True(t, c.Contains("q1"))
}

func TestPutOnExistingKeyReplacesWithoutCountingEviction(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	require.True(t, c.Put("q1", entry(0.5, 100, 1, "t")))
	require.True(t, c.Put("q1", entry(0.6, 120, 1, "t")))

	assert.Equal(t, int64(120), c.Usage())
	assert.Equal(t, int64(0), c.Stats().Evictions)
}

func TestAffectedByMatchesInstanceAndTable(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	require.True(t, c.Put("q1", entry(0.5, 100, 1, "orders")))
	require.True(t, c.Put("q2", entry(0.5, 100, 2, "orders")))

	write := wlsim.Query{DBInstanceID: 1, WriteTable: "orders"}
	affected := c.AffectedBy(write)
	require.Len(t, affected, 1)
}

func TestMarkDirtyAccumulatesDelta(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	require.True(t, c.Put("q1", entry(0.5, 100, 1, "orders")))

	write := wlsim.Query{DBInstanceID: 1, WriteTable: "orders", WriteVolume: 40}
	affected := c.MarkDirty(write)
	require.Len(t, affected, 1)
	assert.True(t, affected[0].Dirty)
	assert.Equal(t, int64(40), affected[0].Delta)

	affected = c.MarkDirty(write)
	assert.Equal(t, int64(80), affected[0].Delta)
}

func TestDirtyEntriesSortedByRepetitionThenLoad(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	e1 := entry(0.9, 10, 1, "t")
	e1.Load = 1
	e2 := entry(0.9, 10, 1, "t")
	e2.Load = 5
	e3 := entry(0.3, 10, 1, "t")

	require.True(t, c.Put("low-load", e1))
	require.True(t, c.Put("high-load", e2))
	require.True(t, c.Put("low-rc", e3))

	c.MarkDirty(wlsim.Query{DBInstanceID: 1, WriteTable: "t", WriteVolume: 1})

	order := c.DirtyEntries()
	require.Equal(t, []wlsim.Fingerprint{"high-load", "low-load", "low-rc"}, order)
}

func TestNegativeCapacityIsConfigError(t *testing.T) {
	neg := int64(-1)
	_, err := New(Config{MaxCapacityBytes: &neg})
	assert.ErrorIs(t, err, wlsim.ErrConfigError)
}
