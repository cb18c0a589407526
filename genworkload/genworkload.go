// Package genworkload produces synthetic []wlsim.Query streams for test
// fixtures and CLI demos. It is an external collaborator to the core
// simulator: it only needs to deliver a typed, plausible query stream, not
// to model a real workload's statistics with high fidelity.
package genworkload

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/mpalomo/wlsim"
)

// Config parameterizes the synthetic generator.
type Config struct {
	// QueryTypeWeights assigns a relative frequency to each kind. Weights
	// need not sum to 1; they are normalized.
	QueryTypeWeights map[wlsim.Kind]float64

	BytesScannedLowerMB, BytesScannedUpperGB float64
	ResultSizeLowerMB, ResultSizeUpperGB     float64
	WriteVolumeLowerMB, WriteVolumeUpperGB   float64

	// IRScale is the order-of-magnitude scale applied when deriving
	// intermediate_result_size from bytes_scanned.
	IRScale float64

	// Tables is the pool of table names queries read from and write to.
	Tables []string
	// MaxReadTables bounds how many distinct tables a single query reads.
	MaxReadTables int

	DBCount int64

	// HoursSpan is the number of hourly buckets queries are scattered
	// across, starting at StartTime.
	HoursSpan int64
	StartTime time.Time

	// RepeatFraction is the fraction of generated queries that reuse an
	// earlier query's fingerprint verbatim, simulating workload reuse.
	RepeatFraction float64
}

// DefaultConfig returns a reasonable starting configuration.
func DefaultConfig() Config {
	return Config{
		QueryTypeWeights: map[wlsim.Kind]float64{
			wlsim.Select: 0.7,
			wlsim.Insert: 0.15,
			wlsim.Update: 0.1,
			wlsim.Delete: 0.05,
		},
		BytesScannedLowerMB: 1,
		BytesScannedUpperGB: 10,
		ResultSizeLowerMB:   0.1,
		ResultSizeUpperGB:   1,
		WriteVolumeLowerMB:  0.1,
		WriteVolumeUpperGB:  1,
		IRScale:             -1,
		Tables:              []string{"orders", "shipments", "customers", "inventory"},
		MaxReadTables:       2,
		DBCount:             3,
		HoursSpan:           24,
		StartTime:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		RepeatFraction:      0.3,
	}
}

var writeVolumeScale = map[wlsim.Kind]float64{
	wlsim.Select: 0,
	wlsim.Insert: 1.0,
	wlsim.Delete: 0.01,
	wlsim.Update: 0.1,
}

var irTypeMultiplier = map[wlsim.Kind]float64{
	wlsim.Select: 2.0,
	wlsim.Update: 1.8,
	wlsim.Insert: 1.2,
	wlsim.Delete: 1.5,
}

// Generator draws queries from a Config using a seeded random source.
type Generator struct {
	cfg     Config
	rng     *rand.Rand
	kinds   []wlsim.Kind
	weights []float64
	seen    []wlsim.Query
}

// New constructs a Generator seeded deterministically from seed.
func New(cfg Config, seed int64) (*Generator, error) {
	if len(cfg.QueryTypeWeights) == 0 {
		return nil, fmt.Errorf("%w: query_type_p must not be empty", wlsim.ErrInvalidInput)
	}
	if len(cfg.Tables) == 0 {
		return nil, fmt.Errorf("%w: tables must not be empty", wlsim.ErrInvalidInput)
	}
	if cfg.DBCount <= 0 {
		return nil, fmt.Errorf("%w: db_count must be positive", wlsim.ErrInvalidInput)
	}
	if cfg.HoursSpan <= 0 {
		return nil, fmt.Errorf("%w: hours_span must be positive", wlsim.ErrInvalidInput)
	}

	kinds := make([]wlsim.Kind, 0, len(cfg.QueryTypeWeights))
	for k := range cfg.QueryTypeWeights {
		kinds = append(kinds, k)
	}
	// Map iteration order is random; sort so the same seed picks the same kinds.
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	weights := make([]float64, 0, len(kinds))
	var total float64
	for _, k := range kinds {
		w := cfg.QueryTypeWeights[k]
		weights = append(weights, w)
		total += w
	}
	for i := range weights {
		weights[i] /= total
	}

	return &Generator{
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(uint64(seed), uint64(seed>>1)|1)),
		kinds:   kinds,
		weights: weights,
	}, nil
}

// Generate produces n synthetic queries, sorted by timestamp ascending
// with hours assigned over the configured span.
func (g *Generator) Generate(n int) []wlsim.Query {
	queries := make([]wlsim.Query, 0, n)
	for i := 0; i < n; i++ {
		if len(g.seen) > 0 && g.rng.Float64() < g.cfg.RepeatFraction {
			queries = append(queries, g.repeat())
			continue
		}
		q := g.generateOne()
		g.seen = append(g.seen, q)
		queries = append(queries, q)
	}

	sort.SliceStable(queries, func(i, j int) bool {
		return queries[i].Timestamp.Before(queries[j].Timestamp)
	})
	for i := range queries {
		queries[i].Hour = int64(queries[i].Timestamp.Sub(g.cfg.StartTime).Hours()) + 1
	}

	assignRepetitionCoefficients(queries)
	return queries
}

// repeat reuses an earlier query's identity fields at a new timestamp.
func (g *Generator) repeat() wlsim.Query {
	base := g.seen[g.rng.IntN(len(g.seen))]
	base.Timestamp = g.randomTimestamp()
	return base
}

func (g *Generator) generateOne() wlsim.Query {
	kind := g.pickKind()

	bytesScanned := int64(g.lognormal(g.cfg.BytesScannedLowerMB, g.cfg.BytesScannedUpperGB))

	var resultSize int64
	if kind == wlsim.Select {
		resultSize = int64(g.lognormal(g.cfg.ResultSizeLowerMB, g.cfg.ResultSizeUpperGB))
	}

	numReadTables := 1 + g.rng.IntN(max1(g.cfg.MaxReadTables))
	readTables := g.pickTables(numReadTables)

	irSize := estimateIRSize(kind, bytesScanned, resultSize, len(readTables), g.cfg.IRScale)

	writeVolume := int64(float64(int64(g.lognormal(g.cfg.WriteVolumeLowerMB, g.cfg.WriteVolumeUpperGB))) * writeVolumeScale[kind])

	jitter := g.rng.ExpFloat64() * 2
	cpuTime := (1e-9*float64(bytesScanned) + 1e-8*float64(resultSize) + 1e-8*float64(writeVolume) + jitter) / 1000

	dbID := g.rng.Int64N(g.cfg.DBCount)

	var writeTable string
	if kind.IsWrite() {
		writeTable = g.cfg.Tables[g.rng.IntN(len(g.cfg.Tables))]
	}

	var scanToResult, scanToIResult float64
	if bytesScanned > 0 {
		scanToResult = float64(resultSize) / float64(bytesScanned)
		scanToIResult = float64(irSize) / float64(bytesScanned)
	}

	fp := wlsim.HashFingerprint(kind, dbID, writeTable, readTables)

	return wlsim.Query{
		Fingerprint:            fp,
		Kind:                   kind,
		BytesScanned:           bytesScanned,
		ResultSize:             resultSize,
		IntermediateResultSize: irSize,
		WriteVolume:            writeVolume,
		CPUTime:                cpuTime,
		DBInstanceID:           dbID,
		ReadTables:             toSet(readTables),
		WriteTable:             writeTable,
		Timestamp:              g.randomTimestamp(),
		ScanToResultRatio:      scanToResult,
		ScanToIResultRatio:     scanToIResult,
	}
}

func (g *Generator) pickKind() wlsim.Kind {
	r := g.rng.Float64()
	var cumulative float64
	for i, w := range g.weights {
		cumulative += w
		if r <= cumulative {
			return g.kinds[i]
		}
	}
	return g.kinds[len(g.kinds)-1]
}

func (g *Generator) pickTables(n int) []string {
	if n > len(g.cfg.Tables) {
		n = len(g.cfg.Tables)
	}
	pool := append([]string(nil), g.cfg.Tables...)
	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:n]
}

func (g *Generator) randomTimestamp() time.Time {
	hour := g.rng.Int64N(g.cfg.HoursSpan)
	offset := time.Duration(g.rng.Int64N(3600)) * time.Second
	return g.cfg.StartTime.Add(time.Duration(hour)*time.Hour + offset)
}

func (g *Generator) lognormal(lowerMB, upperGB float64) float64 {
	mu, sigma := computeLognormalParams(lowerMB, upperGB)
	return math.Exp(mu + sigma*g.rng.NormFloat64())
}

// computeLognormalParams derives a lognormal distribution's (mu, sigma)
// from a byte-size range, centered with a 0.5 skew toward the upper bound.
func computeLognormalParams(lowerMB, upperGB float64) (mu, sigma float64) {
	lb := lowerMB * 1e6
	ub := upperGB * 1e9
	logLB := math.Log(lb)
	logUB := math.Log(ub)
	spread := (logUB - logLB) / 2
	sigma = spread / 2
	const skew = 0.5
	mu = logLB + skew*(logUB-logLB)
	return mu, sigma
}

func estimateIRSize(kind wlsim.Kind, bytesScanned, resultSize int64, numReadTables int, scale float64) int64 {
	typeFactor, ok := irTypeMultiplier[kind]
	if !ok {
		typeFactor = 1.5
	}
	readTablesFactor := 1 + float64(numReadTables-1)*0.5

	reduction := 1.0
	if bytesScanned > 0 {
		reduction = float64(resultSize) / float64(bytesScanned)
	}

	return int64(math.Round(float64(bytesScanned) * typeFactor * readTablesFactor * reduction * math.Pow(10, scale)))
}

func toSet(tables []string) map[string]struct{} {
	if len(tables) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		set[t] = struct{}{}
	}
	return set
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func assignRepetitionCoefficients(queries []wlsim.Query) {
	counts := make(map[wlsim.Fingerprint]int, len(queries))
	for _, q := range queries {
		counts[q.Fingerprint]++
	}
	total := float64(len(queries))
	for i := range queries {
		n := float64(counts[queries[i].Fingerprint])
		queries[i].RepetitionCoefficient = (n - 1) / total
	}
}
