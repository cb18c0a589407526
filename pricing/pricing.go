// Package pricing implements per-row runtime estimation and the aggregate
// compute/storage/pending/total cost rollups, as plain top-level functions
// over explicit []PlanRow loops.
package pricing

import (
	"math/rand/v2"

	"github.com/mpalomo/wlsim"
	"github.com/mpalomo/wlsim/hwconfig"
)

const (
	gibToBytes              = 1 << 30
	objectStoreNetworkScale = 0.8
	gp3ThroughputScale      = 1e7
	secondsPerMonth         = 30 * 24 * 60 * 60
)

// networkSpeed returns the effective network bandwidth in bytes/second.
func networkSpeed(hw hwconfig.Hardware) float64 {
	return hw.Instance.NetworkSpeedGiBps * gibToBytes * objectStoreNetworkScale
}

// cacheSpeed returns the effective cache I/O bandwidth in bytes/second.
// It equals network_speed for an object-store cache, otherwise it is
// derived from the cache's own throughput.
func cacheSpeed(hw hwconfig.Hardware) float64 {
	if hw.Cache.Type == hwconfig.S3 {
		return networkSpeed(hw)
	}
	return hw.Cache.ThroughputMBps * gp3ThroughputScale
}

// RowRuntime estimates a single plan row's runtime in seconds, using rng for
// the cache-latency jitter draw. Pass a *rand.Rand seeded deterministically
// to keep estimates reproducible across runs.
func RowRuntime(hw hwconfig.Hardware, row wlsim.PlanRow, rng *rand.Rand) float64 {
	ns := networkSpeed(hw)
	cs := cacheSpeed(hw)

	cpuTime := row.CPUTime / float64(hw.Instance.VCPUs)
	networkTime := float64(row.BytesScanned+row.WriteVolume) / ns

	cacheIOBytes := boolf(row.CacheResult)*float64(row.ResultSize) +
		boolf(row.CacheIR)*float64(row.IntermediateResultSize) +
		boolf(row.WriteDelta)*float64(row.WriteVolume) +
		boolf(row.WasCached)*float64(row.ResultSize)
	cacheIOTime := cacheIOBytes / cs

	latencyMs := float64(row.CacheReads+row.CacheWrites) * uniform(rng, hw.Cache.RequestLatencyMinMs, hw.Cache.RequestLatencyMaxMs)
	cacheLatencyTime := latencyMs / 1000

	return cpuTime + networkTime + cacheIOTime + cacheLatencyTime
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// uniform draws from [min, max]; a degenerate bound (min==max) returns that
// value with no randomness, so jitter can be disabled for reproducible cost
// comparisons.
func uniform(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}

// RowRuntimes returns the runtime of every row in plan, in order.
func RowRuntimes(hw hwconfig.Hardware, plan []wlsim.PlanRow, rng *rand.Rand) []float64 {
	out := make([]float64, len(plan))
	for i, row := range plan {
		out[i] = RowRuntime(hw, row, rng)
	}
	return out
}

// TotalRuntime sums the runtime of every row in plan.
func TotalRuntime(hw hwconfig.Hardware, plan []wlsim.PlanRow, rng *rand.Rand) float64 {
	var total float64
	for _, row := range plan {
		total += RowRuntime(hw, row, rng)
	}
	return total
}

// ComputeCost converts total runtime into a dollar cost at the instance's
// hourly rate.
func ComputeCost(hw hwconfig.Hardware, plan []wlsim.PlanRow, rng *rand.Rand) float64 {
	return TotalRuntime(hw, plan, rng) * hw.Instance.PricePerHour / 3600
}

// StorageCost prices usageBytes held for the plan's timespan, plus
// per-request costs for an object-store cache.
func StorageCost(hw hwconfig.Hardware, plan []wlsim.PlanRow, usageBytes int64) float64 {
	timespan := planTimespan(plan)
	cost := float64(usageBytes) * hw.Cache.CostPerGB / 1e9 * (timespan / secondsPerMonth)

	if hw.Cache.Type == hwconfig.S3 {
		var writes, reads int64
		for _, row := range plan {
			writes += row.CacheWrites
			reads += row.CacheReads
		}
		cost += float64(writes)*hw.Cache.PutCost/1000 + float64(reads)*hw.Cache.GetCost/1000
	}

	return cost
}

func planTimespan(plan []wlsim.PlanRow) float64 {
	if len(plan) == 0 {
		return 0
	}
	min, max := plan[0].Timestamp, plan[0].Timestamp
	for _, row := range plan[1:] {
		if row.Timestamp.Before(min) {
			min = row.Timestamp
		}
		if row.Timestamp.After(max) {
			max = row.Timestamp
		}
	}
	return max.Sub(min).Seconds()
}

// PendingCost restricts ComputeCost to rows whose execution_trigger is
// pending.
func PendingCost(hw hwconfig.Hardware, plan []wlsim.PlanRow, rng *rand.Rand) float64 {
	var pending []wlsim.PlanRow
	for _, row := range plan {
		if row.ExecutionTrigger == wlsim.Pending {
			pending = append(pending, row)
		}
	}
	if len(pending) == 0 {
		return 0
	}
	return ComputeCost(hw, pending, rng)
}

// TotalCost is compute_cost + storage_cost.
func TotalCost(hw hwconfig.Hardware, plan []wlsim.PlanRow, usageBytes int64, rng *rand.Rand) float64 {
	return ComputeCost(hw, plan, rng) + StorageCost(hw, plan, usageBytes)
}

// NewSeededRand returns a deterministic random source suitable for jitter
// draws, seeded from a single int64 for test reproducibility. To disable
// jitter entirely, set RequestLatencyMinMs == RequestLatencyMaxMs in the
// Hardware config — the seed passed here then has no effect on the result.
func NewSeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed>>1)|1))
}
