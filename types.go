// Package wlsim models the canonical query and plan row types shared by
// every execution model, cache, and estimator in the simulator.
package wlsim

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint stably identifies a query across repeated occurrences.
type Fingerprint string

// Kind is the statement type of a query.
type Kind string

const (
	Select Kind = "select"
	Insert Kind = "insert"
	Update Kind = "update"
	Delete Kind = "delete"
)

// IsWrite reports whether this kind mutates a table.
func (k Kind) IsWrite() bool {
	return k != Select
}

// Execution describes whether a plan row ran from scratch or incrementally
// against a dirty cache entry.
type Execution string

const (
	Normal      Execution = "normal"
	Incremental Execution = "incremental"
)

// Trigger describes what caused a plan row to be emitted.
type Trigger string

const (
	Immediate        Trigger = "immediate"
	TriggeredByRead  Trigger = "triggered_by_read"
	TriggeredByWrite Trigger = "triggered_by_write"
	Deferred         Trigger = "deferred"
	Pending          Trigger = "pending"
)

// Query is a single workload row.
type Query struct {
	Fingerprint            Fingerprint
	Kind                   Kind
	BytesScanned           int64
	ResultSize             int64
	IntermediateResultSize int64
	WriteVolume            int64
	CPUTime                float64
	DBInstanceID           int64
	ReadTables             map[string]struct{}
	WriteTable             string // empty means absent
	Hour                   int64
	Timestamp              time.Time
	ScanToResultRatio      float64
	ScanToIResultRatio     float64
	RepetitionCoefficient  float64
	Load                   float64
}

// ReadsTable reports whether the query reads the given table name.
func (q Query) ReadsTable(table string) bool {
	_, ok := q.ReadTables[table]
	return ok
}

// HasWriteTable reports whether the query has a write_table set.
func (q Query) HasWriteTable() bool {
	return q.WriteTable != ""
}

// Size is the cacheable footprint of a query's result.
func (q Query) Size() int64 {
	return q.ResultSize + q.IntermediateResultSize
}

// PlanRow is a Query augmented with scheduling and cache-accounting fields.
// Every field here is set on emission by the model that produced the row.
type PlanRow struct {
	Query

	Execution        Execution
	ExecutionTrigger Trigger
	TriggeredBy      Fingerprint // empty means absent

	WasCached   bool
	CacheResult bool
	CacheIR     bool
	WriteDelta  bool

	CacheReads  int64
	CacheWrites int64
}

// CacheEntry is the last Query observed for a fingerprint, augmented with
// the bookkeeping the repetition-aware cache needs.
type CacheEntry struct {
	Query
	Size  int64
	Dirty bool
	Delta int64
}

// NewRowFromQuery copies q's fields into a zero-valued PlanRow so callers only
// set the scheduling fields that differ from the query itself.
func NewRowFromQuery(q Query) PlanRow {
	return PlanRow{Query: q}
}

// HashFingerprint computes a stable fallback fingerprint for a query that
// has no explicit identifier, hashing its shape (kind, tables, instance)
// with xxhash, a fast non-cryptographic hash suited to high-frequency,
// low-stakes key derivation.
func HashFingerprint(kind Kind, dbInstanceID int64, writeTable string, readTables []string) Fingerprint {
	h := xxhash.New()
	fmt.Fprintf(h, "%s|%d|%s|", kind, dbInstanceID, writeTable)
	for _, t := range readTables {
		fmt.Fprintf(h, "%s,", t)
	}
	return Fingerprint(fmt.Sprintf("%016x", h.Sum64()))
}
