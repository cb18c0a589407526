package models

import (
	"github.com/mpalomo/wlsim"
	"github.com/mpalomo/wlsim/cache"
)

// Eager refreshes dirty cache entries immediately at write time.
type Eager struct {
	cache *cache.Cache
}

// NewEager constructs an Eager model with the given cache configuration.
func NewEager(cfg cache.Config) (*Eager, error) {
	c, err := cache.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Eager{cache: c}, nil
}

// Cache exposes the model's cache for inspection (stats, invariants).
func (m *Eager) Cache() *cache.Cache { return m.cache }

// Run executes the workload, refreshing affected cache entries in place
// whenever a write observes them.
func (m *Eager) Run(workload []wlsim.Query) ([]wlsim.PlanRow, error) {
	plan := make([]wlsim.PlanRow, 0, len(workload))

	for _, q := range workload {
		if q.Kind.IsWrite() {
			plan = append(plan, m.executeWrite(q)...)
			continue
		}
		plan = append(plan, m.executeRead(q))
	}

	return plan, nil
}

func (m *Eager) executeWrite(q wlsim.Query) []wlsim.PlanRow {
	affected := m.cache.AffectedBy(q)

	writeRow := normalRow(q, wlsim.Immediate, q.Fingerprint)
	writeRow.CacheReads++
	if len(affected) > 0 {
		writeRow.CacheWrites++ // one bulk cache write for the triggering write
	}

	rows := make([]wlsim.PlanRow, 0, 1+len(affected))
	rows = append(rows, writeRow)

	delta := q.WriteVolume
	for _, entry := range affected {
		refreshed := entry.Query
		refreshed.BytesScanned = delta
		refreshed.ResultSize = int64(entry.ScanToResultRatio * float64(delta))
		refreshed.IntermediateResultSize = int64(entry.ScanToIResultRatio * float64(delta))
		refreshed.Timestamp = q.Timestamp
		refreshed.Hour = q.Hour

		row := wlsim.NewRowFromQuery(refreshed)
		row.Execution = wlsim.Incremental
		row.ExecutionTrigger = wlsim.TriggeredByWrite
		row.TriggeredBy = q.Fingerprint
		row.CacheResult = true
		row.CacheIR = true

		rows = append(rows, row)
	}

	return rows
}

func (m *Eager) executeRead(q wlsim.Query) wlsim.PlanRow {
	if m.cache.Contains(q.Fingerprint) {
		return servedFromCacheRow(q, wlsim.Immediate)
	}

	row := normalRow(q, wlsim.Immediate, q.Fingerprint)
	if m.cache.Put(q.Fingerprint, cacheResultEntry(q)) {
		row.CacheResult = true
		row.CacheIR = true
		row.CacheWrites++
	}
	return row
}
