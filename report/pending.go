package report

import (
	"math/rand/v2"

	"github.com/mpalomo/wlsim"
	"github.com/mpalomo/wlsim/hwconfig"
	"github.com/mpalomo/wlsim/pricing"
)

// PendingSummary describes the cost and row count of work a run deferred
// past the end of the simulated workload (rows with execution_trigger ==
// pending).
type PendingSummary struct {
	RowCount int
	Cost     float64
}

// SummarizePending computes a PendingSummary for plan under hw, using rng
// for the runtime jitter draw.
func SummarizePending(hw hwconfig.Hardware, plan []wlsim.PlanRow, rng *rand.Rand) PendingSummary {
	count := 0
	for _, row := range plan {
		if row.ExecutionTrigger == wlsim.Pending {
			count++
		}
	}
	return PendingSummary{
		RowCount: count,
		Cost:     pricing.PendingCost(hw, plan, rng),
	}
}
