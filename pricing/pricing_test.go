package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpalomo/wlsim"
	"github.com/mpalomo/wlsim/hwconfig"
)

func hw() hwconfig.Hardware {
	return hwconfig.Hardware{
		Instance: hwconfig.Instance{VCPUs: 2, NetworkSpeedGiBps: 25, PricePerHour: 0.108},
		Cache: hwconfig.Cache{
			Type:       hwconfig.S3,
			CostPerGB:  0.023,
			PutCost:    0.005,
			GetCost:    0.0004,
		},
	}
}

func TestRowRuntimeNoJitterIsDeterministic(t *testing.T) {
	h := hw()
	row := wlsim.PlanRow{
		Query: wlsim.Query{BytesScanned: 1000, CPUTime: 1},
	}
	rng := NewSeededRand(0)

	got := RowRuntime(h, row, rng)
	wantNetwork := float64(1000) / (25 * gibToBytes * objectStoreNetworkScale)
	wantCPU := 1.0 / 2
	assert.InDelta(t, wantCPU+wantNetwork, got, 1e-12)
}

func TestRowRuntimeCacheHitIsFreeOfScanCost(t *testing.T) {
	h := hw()
	row := wlsim.PlanRow{WasCached: true, Query: wlsim.Query{ResultSize: 500}}
	rng := NewSeededRand(0)

	got := RowRuntime(h, row, rng)
	assert.Greater(t, got, 0.0)
	// With no bytes scanned, no CPU time and no latency, only the cache read
	// of the result remains.
	assert.InDelta(t, float64(500)/cacheSpeed(h), got, 1e-12)
}

func TestPendingCostOnlyIncludesPendingRows(t *testing.T) {
	h := hw()
	plan := []wlsim.PlanRow{
		{Query: wlsim.Query{CPUTime: 1}, ExecutionTrigger: wlsim.Immediate},
		{Query: wlsim.Query{CPUTime: 3}, ExecutionTrigger: wlsim.Pending},
	}
	rng := NewSeededRand(0)

	pending := PendingCost(h, plan, rng)
	total := ComputeCost(h, plan, rng)
	assert.Less(t, pending, total)
	assert.Greater(t, pending, 0.0)
}

func TestStorageCostIncludesS3RequestPricing(t *testing.T) {
	h := hw()
	now := time.Now()
	plan := []wlsim.PlanRow{
		{Query: wlsim.Query{Timestamp: now}, CacheWrites: 2, CacheReads: 3},
		{Query: wlsim.Query{Timestamp: now.Add(30 * 24 * time.Hour)}},
	}

	cost := StorageCost(h, plan, 1_000_000_000)
	assert.Greater(t, cost, 2*h.Cache.PutCost/1000+3*h.Cache.GetCost/1000)
}

func TestTotalCostIsComputePlusStorage(t *testing.T) {
	h := hw()
	plan := []wlsim.PlanRow{{Query: wlsim.Query{CPUTime: 1, Timestamp: time.Now()}}}
	rng := NewSeededRand(1)

	total := TotalCost(h, plan, 1000, rng)
	compute := ComputeCost(h, plan, rng)
	storage := StorageCost(h, plan, 1000)
	assert.InDelta(t, compute+storage, total, 1e-9)
}
