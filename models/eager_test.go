package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpalomo/wlsim"
	"github.com/mpalomo/wlsim/cache"
)

func TestEagerCachesOnReadMiss(t *testing.T) {
	m, err := NewEager(cache.Config{})
	require.NoError(t, err)

	q1 := wlsim.Query{
		Fingerprint:           "q1",
		Kind:                  wlsim.Select,
		DBInstanceID:          1,
		ReadTables:            map[string]struct{}{"orders": {}},
		ResultSize:            20,
		RepetitionCoefficient: 0.5,
		Timestamp:             time.Unix(0, 0),
	}

	plan, err := m.Run([]wlsim.Query{q1})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, wlsim.Normal, plan[0].Execution)
	assert.Equal(t, int64(1), plan[0].CacheWrites)
	assert.True(t, m.Cache().Contains("q1"))
}

func TestEagerRefreshesAffectedEntriesOnWrite(t *testing.T) {
	m, err := NewEager(cache.Config{})
	require.NoError(t, err)

	q1 := wlsim.Query{
		Fingerprint:            "q1",
		Kind:                   wlsim.Select,
		DBInstanceID:           1,
		ReadTables:             map[string]struct{}{"orders": {}},
		BytesScanned:           200,
		ResultSize:             20,
		IntermediateResultSize: 10,
		ScanToResultRatio:      0.1,
		ScanToIResultRatio:     0.05,
		RepetitionCoefficient:  0.5,
		Timestamp:              time.Unix(0, 0),
	}

	w1 := wlsim.Query{
		Fingerprint:  "w1",
		Kind:         wlsim.Insert,
		DBInstanceID: 1,
		WriteTable:   "orders",
		WriteVolume:  40,
		Timestamp:    time.Unix(60, 0),
	}

	plan, err := m.Run([]wlsim.Query{q1, w1})
	require.NoError(t, err)
	require.Len(t, plan, 3)

	writeRow := plan[1]
	assert.Equal(t, wlsim.Normal, writeRow.Execution)
	assert.Equal(t, int64(1), writeRow.CacheReads)
	assert.Equal(t, int64(1), writeRow.CacheWrites)

	refreshRow := plan[2]
	assert.Equal(t, wlsim.Incremental, refreshRow.Execution)
	assert.Equal(t, wlsim.TriggeredByWrite, refreshRow.ExecutionTrigger)
	assert.Equal(t, wlsim.Fingerprint("w1"), refreshRow.TriggeredBy)
	assert.Equal(t, int64(40), refreshRow.BytesScanned)
	assert.Equal(t, int64(4), refreshRow.ResultSize)
	assert.Equal(t, int64(2), refreshRow.IntermediateResultSize)
	assert.True(t, refreshRow.CacheResult)
	assert.True(t, refreshRow.CacheIR)
}

func TestEagerReadHitServesFromCache(t *testing.T) {
	m, err := NewEager(cache.Config{})
	require.NoError(t, err)

	q1 := wlsim.Query{Fingerprint: "q1", Kind: wlsim.Select, ResultSize: 10, BytesScanned: 100, RepetitionCoefficient: 0.5}

	plan, err := m.Run([]wlsim.Query{q1, q1})
	require.NoError(t, err)
	require.Len(t, plan, 2)

	assert.False(t, plan[0].WasCached)
	assert.True(t, plan[1].WasCached)
	assert.Equal(t, int64(0), plan[1].BytesScanned)
}
