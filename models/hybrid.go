package models

import (
	"time"

	"github.com/mpalomo/wlsim"
	"github.com/mpalomo/wlsim/cache"
	"github.com/mpalomo/wlsim/depgraph"
	"github.com/mpalomo/wlsim/load"
)

// DefaultThresholdFactor is the fraction of the mean per-hour input load
// that a given hour is allowed to admit before new work is deferred.
const DefaultThresholdFactor = 0.7

const (
	maxDrainRefreshesPerRound = 20
	maxDrainWritesPerRound    = 10
)

// HybridConfig configures the Hybrid scheduling model.
type HybridConfig struct {
	Cache cache.Config
	// ThresholdFactor multiplies the mean per-hour input load to get the
	// per-hour admission budget. Defaults to DefaultThresholdFactor when 0.
	ThresholdFactor float64
}

// Hybrid combines per-hour admission control, deferred writes, and
// opportunistic cache refresh into a single scheduler.
type Hybrid struct {
	cache *cache.Cache
	graph *depgraph.Graph

	thresholdFactor float64
	threshold       float64
	currentHour     int64
	hourlyLoad      map[int64]float64
	lastSeenInHour  map[int64]time.Time

	loadRef load.Reference
}

// NewHybrid constructs a Hybrid model with the given configuration.
func NewHybrid(cfg HybridConfig) (*Hybrid, error) {
	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, err
	}
	factor := cfg.ThresholdFactor
	if factor == 0 {
		factor = DefaultThresholdFactor
	}
	return &Hybrid{
		cache:           c,
		graph:           depgraph.New(),
		thresholdFactor: factor,
		currentHour:     1,
		hourlyLoad:      make(map[int64]float64),
		lastSeenInHour:  make(map[int64]time.Time),
	}, nil
}

// Cache exposes the model's cache for inspection.
func (m *Hybrid) Cache() *cache.Cache { return m.cache }

// Threshold returns the computed per-hour admission budget (valid only
// after Run has been called at least once).
func (m *Hybrid) Threshold() float64 { return m.threshold }

// Run executes the workload under the Hybrid scheduler.
func (m *Hybrid) Run(workload []wlsim.Query) ([]wlsim.PlanRow, error) {
	if len(workload) == 0 {
		return nil, nil
	}

	m.loadRef = medianReference(workload)
	loaded := make([]wlsim.Query, len(workload))
	for i, q := range workload {
		q.Load = load.Estimate(q, m.loadRef)
		loaded[i] = q
	}

	maxH := maxHour(loaded)
	m.threshold = m.thresholdFactor * meanPerHourLoad(loaded, maxH)

	var plan []wlsim.PlanRow
	for _, q := range loaded {
		m.lastSeenInHour[q.Hour] = q.Timestamp

		for q.Hour > m.currentHour {
			plan = append(plan, m.drain(m.currentHour)...)
			m.currentHour++
		}

		switch {
		case q.Kind.IsWrite():
			rows, _ := m.executeWrite(q, wlsim.Immediate, q.Timestamp, m.currentHour)
			plan = append(plan, rows...)
		case m.cache.Contains(q.Fingerprint):
			plan = append(plan, m.executeIncremental(q, wlsim.Immediate)...)
		default:
			plan = append(plan, m.executeReadNormal(q)...)
		}
	}

	plan = append(plan, m.trailingPending(maxH)...)
	return plan, nil
}

// drain opportunistically refreshes dirty cache entries and executes
// deferred writes while hour h still has idle admission budget.
func (m *Hybrid) drain(h int64) []wlsim.PlanRow {
	var rows []wlsim.PlanRow
	ts := m.lastSeenInHour[h]

	for {
		progressed := false

		refreshed, n := m.drainRefresh(h, ts)
		rows = append(rows, refreshed...)
		if n > 0 {
			progressed = true
		}

		written, n := m.drainWrites(h, ts)
		rows = append(rows, written...)
		if n > 0 {
			progressed = true
		}

		if !progressed {
			break
		}
	}

	return rows
}

func (m *Hybrid) drainRefresh(h int64, ts time.Time) ([]wlsim.PlanRow, int) {
	var rows []wlsim.PlanRow
	count := 0

	for count < maxDrainRefreshesPerRound {
		if m.threshold-m.hourlyLoad[h] <= 0 {
			break
		}
		dirty := m.cache.DirtyEntries()
		if len(dirty) == 0 {
			break
		}

		key := dirty[0]
		entry, ok := m.cache.Get(key)
		if !ok {
			break
		}

		refreshed := entry.Query
		refreshed.BytesScanned = entry.Delta
		refreshed.ResultSize = int64(entry.ScanToResultRatio * float64(entry.Delta))
		refreshed.IntermediateResultSize = int64(entry.ScanToIResultRatio * float64(entry.Delta))
		refreshed.Timestamp = ts
		refreshed.Hour = h

		row := wlsim.NewRowFromQuery(refreshed)
		row.Execution = wlsim.Incremental
		row.ExecutionTrigger = wlsim.Deferred
		row.TriggeredBy = refreshed.Fingerprint
		row.CacheResult = true
		row.CacheIR = true
		row.CacheReads++

		if m.cache.Put(key, wlsim.CacheEntry{
			Query: refreshed,
			Size:  refreshed.Size(),
			Dirty: false,
			Delta: 0,
		}) {
			row.CacheWrites++
		}

		rows = append(rows, row)
		m.hourlyLoad[h] += refreshed.Load
		count++
	}

	return rows, count
}

func (m *Hybrid) drainWrites(h int64, ts time.Time) ([]wlsim.PlanRow, int) {
	var rows []wlsim.PlanRow
	count := 0

	for count < maxDrainWritesPerRound {
		pending := m.graph.PendingWritesOrdered()
		if len(pending) == 0 {
			break
		}

		next := pending[0]
		attempted, ok := m.retryWrite(next.ID, next.Query, wlsim.Deferred, ts, h)
		if !ok {
			break // abort on the first that does not fit
		}
		rows = append(rows, attempted...)
		count++
	}

	return rows, count
}

// executeWrite inserts query into the dependency graph, checks whether its
// load plus its transitive dependencies' load fits the remaining per-hour
// budget, and if so flushes the whole closure. If it doesn't fit, the query
// (and its deps) remain pending in the graph and executeWrite reports false.
func (m *Hybrid) executeWrite(query wlsim.Query, trigger wlsim.Trigger, timestamp time.Time, hour int64) ([]wlsim.PlanRow, bool) {
	qid := m.graph.Add(query)
	return m.flushWrite(qid, query, trigger, timestamp, hour)
}

// retryWrite re-attempts a write already sitting in the graph under id
// (placed there by a prior executeWrite or retryWrite call that didn't fit
// its hour's budget). It must reuse id rather than calling graph.Add again:
// re-adding would leave the original node behind as an orphan that never
// resolves and never gets swept, double-counting it in trailingPending.
func (m *Hybrid) retryWrite(id uint64, query wlsim.Query, trigger wlsim.Trigger, timestamp time.Time, hour int64) ([]wlsim.PlanRow, bool) {
	return m.flushWrite(id, query, trigger, timestamp, hour)
}

func (m *Hybrid) flushWrite(qid uint64, query wlsim.Query, trigger wlsim.Trigger, timestamp time.Time, hour int64) ([]wlsim.PlanRow, bool) {
	deps := m.graph.TransitiveDeps(qid)
	depNodes := m.graph.Closure(deps)

	required := query.Load
	for _, d := range depNodes {
		required += d.Query.Load
	}

	if m.threshold-m.hourlyLoad[hour] < required {
		return nil, false
	}

	query.Timestamp = timestamp
	query.Hour = hour

	var rows []wlsim.PlanRow
	for _, d := range depNodes {
		rows = append(rows, normalRow(d.Query, wlsim.TriggeredByWrite, query.Fingerprint))
		m.cache.MarkDirty(d.Query)
	}
	m.cache.MarkDirty(query)

	writeRow := normalRow(query, trigger, query.Fingerprint)
	writeRow.CacheReads++
	rows = append(rows, writeRow)

	m.graph.RemoveWithDeps(qid)
	m.hourlyLoad[hour] += required

	return rows, true
}

// executeIncremental resolves any pending writes blocking a cached read,
// then serves it from cache — refreshed against the entry's accumulated
// delta if dirty, otherwise a plain cache hit.
func (m *Hybrid) executeIncremental(query wlsim.Query, trigger wlsim.Trigger) []wlsim.PlanRow {
	qid := m.graph.Add(query)
	deps := m.graph.TransitiveDeps(qid)

	var rows []wlsim.PlanRow
	for _, d := range m.graph.Closure(deps) {
		rows = append(rows, normalRow(d.Query, wlsim.TriggeredByRead, query.Fingerprint))
		m.cache.MarkDirty(d.Query)
	}
	m.graph.RemoveWithDeps(qid)

	entry, hit := m.cache.Get(query.Fingerprint)
	if !hit {
		// Resolving the closure only marks entries dirty, so the caller's
		// Contains check normally holds here; this falls back to a normal
		// execution rather than assume presence.
		return append(rows, m.executeReadNormal(query)...)
	}

	if entry.Dirty {
		refreshed := query
		refreshed.BytesScanned = entry.Delta
		refreshed.ResultSize = int64(entry.ScanToResultRatio * float64(entry.Delta))
		refreshed.IntermediateResultSize = int64(entry.ScanToIResultRatio * float64(entry.Delta))

		row := wlsim.NewRowFromQuery(refreshed)
		row.Execution = wlsim.Incremental
		row.ExecutionTrigger = trigger
		row.TriggeredBy = query.Fingerprint
		row.CacheResult = true
		row.CacheIR = true
		row.CacheReads++

		if m.cache.Put(query.Fingerprint, wlsim.CacheEntry{
			Query: refreshed,
			Size:  refreshed.Size(),
			Dirty: false,
			Delta: 0,
		}) {
			row.CacheWrites++
		}
		return append(rows, row)
	}

	return append(rows, servedFromCacheRow(query, trigger))
}

// executeReadNormal resolves any pending dependency closure, executes the
// read from scratch, and caches its result.
func (m *Hybrid) executeReadNormal(query wlsim.Query) []wlsim.PlanRow {
	qid := m.graph.Add(query)
	deps := m.graph.TransitiveDeps(qid)

	var rows []wlsim.PlanRow
	for _, d := range m.graph.Closure(deps) {
		rows = append(rows, normalRow(d.Query, wlsim.TriggeredByRead, query.Fingerprint))
		m.cache.MarkDirty(d.Query)
	}
	m.graph.RemoveWithDeps(qid)

	row := normalRow(query, wlsim.Immediate, query.Fingerprint)
	if m.cache.Put(query.Fingerprint, cacheResultEntry(query)) {
		row.CacheResult = true
		row.CacheIR = true
		row.CacheWrites++
	}

	return append(rows, row)
}

func (m *Hybrid) trailingPending(maxH int64) []wlsim.PlanRow {
	pending := m.graph.PendingWritesOrdered()
	rows := make([]wlsim.PlanRow, 0, len(pending))
	for _, p := range pending {
		q := p.Query
		q.Hour = maxH + 1
		rows = append(rows, normalRow(q, wlsim.Pending, q.Fingerprint))
	}
	return rows
}

func medianReference(workload []wlsim.Query) load.Reference {
	bs := make([]float64, len(workload))
	rs := make([]float64, len(workload))
	wv := make([]float64, len(workload))
	cpu := make([]float64, len(workload))
	for i, q := range workload {
		bs[i] = float64(q.BytesScanned)
		rs[i] = float64(q.ResultSize)
		wv[i] = float64(q.WriteVolume)
		cpu[i] = q.CPUTime
	}
	return load.Reference{
		BytesScanned: median(bs),
		ResultSize:   median(rs),
		WriteVolume:  median(wv),
		CPUTime:      median(cpu),
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	insertionSort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func insertionSort(values []float64) {
	for i := 1; i < len(values); i++ {
		for j := i; j > 0 && values[j-1] > values[j]; j-- {
			values[j-1], values[j] = values[j], values[j-1]
		}
	}
}

func meanPerHourLoad(workload []wlsim.Query, maxH int64) float64 {
	if maxH == 0 {
		return 0
	}
	perHour := make(map[int64]float64, maxH)
	for _, q := range workload {
		perHour[q.Hour] += q.Load
	}
	var sum float64
	for h := int64(1); h <= maxH; h++ {
		sum += perHour[h]
	}
	return sum / float64(maxH)
}
