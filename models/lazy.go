package models

import (
	"github.com/mpalomo/wlsim"
	"github.com/mpalomo/wlsim/cache"
	"github.com/mpalomo/wlsim/depgraph"
)

// Lazy defers writes to the dependency graph and only resolves them when a
// read needs their tables.
type Lazy struct {
	cache *cache.Cache
	graph *depgraph.Graph
}

// NewLazy constructs a Lazy model with the given cache configuration.
func NewLazy(cfg cache.Config) (*Lazy, error) {
	c, err := cache.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Lazy{cache: c, graph: depgraph.New()}, nil
}

// Cache exposes the model's cache for inspection.
func (m *Lazy) Cache() *cache.Cache { return m.cache }

// Run executes the workload, accumulating writes in the dependency graph
// and resolving them when a dependent read arrives; any writes still
// pending at the end of the workload are emitted as trailing pending rows.
func (m *Lazy) Run(workload []wlsim.Query) ([]wlsim.PlanRow, error) {
	plan := make([]wlsim.PlanRow, 0, len(workload))
	maxH := maxHour(workload)

	for _, q := range workload {
		if q.Kind.IsWrite() {
			m.graph.Add(q)
			continue
		}
		plan = append(plan, m.executeRead(q)...)
	}

	plan = append(plan, m.trailingPending(maxH)...)
	return plan, nil
}

func (m *Lazy) executeRead(q wlsim.Query) []wlsim.PlanRow {
	qid := m.graph.Add(q)
	deps := m.graph.TransitiveDeps(qid)

	var rows []wlsim.PlanRow
	for _, d := range m.graph.Closure(deps) {
		rows = append(rows, normalRow(d.Query, wlsim.TriggeredByRead, q.Fingerprint))
		m.cache.MarkDirty(d.Query)
	}

	m.graph.RemoveWithDeps(qid)

	entry, hit := m.cache.Get(q.Fingerprint)
	switch {
	case hit && entry.Dirty:
		rows = append(rows, m.refreshDirty(q, entry))
	case hit:
		rows = append(rows, servedFromCacheRow(q, wlsim.Immediate))
	default:
		row := normalRow(q, wlsim.Immediate, q.Fingerprint)
		if m.cache.Put(q.Fingerprint, cacheResultEntry(q)) {
			row.CacheResult = true
			row.CacheIR = true
			row.CacheWrites++
		}
		rows = append(rows, row)
	}

	return rows
}

// refreshDirty resolves a dirty cache entry against its accumulated delta,
// scales the result/intermediate sizes by the entry's own ratios, and
// re-puts a clean entry.
func (m *Lazy) refreshDirty(q wlsim.Query, entry wlsim.CacheEntry) wlsim.PlanRow {
	refreshed := q
	refreshed.BytesScanned = entry.Delta
	refreshed.ResultSize = int64(entry.ScanToResultRatio * float64(entry.Delta))
	refreshed.IntermediateResultSize = int64(entry.ScanToIResultRatio * float64(entry.Delta))

	row := wlsim.NewRowFromQuery(refreshed)
	row.Execution = wlsim.Incremental
	row.ExecutionTrigger = wlsim.Immediate
	row.TriggeredBy = q.Fingerprint
	row.CacheResult = true
	row.CacheIR = true
	row.CacheReads++

	if m.cache.Put(q.Fingerprint, wlsim.CacheEntry{
		Query: refreshed,
		Size:  refreshed.Size(),
		Dirty: false,
		Delta: 0,
	}) {
		row.CacheWrites++
	}

	return row
}

func (m *Lazy) trailingPending(maxH int64) []wlsim.PlanRow {
	pending := m.graph.PendingWritesOrdered()
	rows := make([]wlsim.PlanRow, 0, len(pending))
	for _, p := range pending {
		q := p.Query
		q.Hour = maxH + 1
		row := normalRow(q, wlsim.Pending, q.Fingerprint)
		rows = append(rows, row)
	}
	return rows
}
