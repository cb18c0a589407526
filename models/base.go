// Package models implements the four execution strategies: One-Off, Eager,
// Lazy, and Hybrid. All four consume a timestamp-ordered workload stream and
// produce an ordered execution plan, mutating a shared cache and dependency
// graph as they go. Each model is a single long-lived struct holding the
// mutable session state, with small methods that each perform one step of
// the run and return plain values and errors.
package models

import "github.com/mpalomo/wlsim"

// Model runs a workload through an execution strategy and returns the
// resulting plan.
type Model interface {
	Run(workload []wlsim.Query) ([]wlsim.PlanRow, error)
}

func servedFromCacheRow(q wlsim.Query, trigger wlsim.Trigger) wlsim.PlanRow {
	row := wlsim.NewRowFromQuery(q)
	row.BytesScanned = 0
	row.CPUTime = 0
	row.WriteVolume = 0
	row.WasCached = true
	row.CacheReads++
	row.Execution = wlsim.Incremental
	row.ExecutionTrigger = trigger
	row.TriggeredBy = q.Fingerprint
	return row
}

func normalRow(q wlsim.Query, trigger wlsim.Trigger, triggeredBy wlsim.Fingerprint) wlsim.PlanRow {
	row := wlsim.NewRowFromQuery(q)
	row.Execution = wlsim.Normal
	row.ExecutionTrigger = trigger
	row.TriggeredBy = triggeredBy
	return row
}

// cacheResultEntry builds the CacheEntry a freshly executed select admits.
func cacheResultEntry(q wlsim.Query) wlsim.CacheEntry {
	return wlsim.CacheEntry{
		Query: q,
		Size:  q.Size(),
		Dirty: false,
		Delta: 0,
	}
}

// maxHour returns the highest Hour value in workload, or 0 if empty.
func maxHour(workload []wlsim.Query) int64 {
	var max int64
	for _, q := range workload {
		if q.Hour > max {
			max = q.Hour
		}
	}
	return max
}
