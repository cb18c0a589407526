package store

import (
	"fmt"
	"math/rand/v2"

	"github.com/mpalomo/wlsim"
	"github.com/mpalomo/wlsim/hwconfig"
	"github.com/mpalomo/wlsim/models"
	"github.com/mpalomo/wlsim/pricing"
)

// NamedModel pairs a label with the model it evaluates, so a sweep's
// archived runs can be told apart by name rather than by type.
type NamedModel struct {
	Name  string
	Model models.Model
}

// Sweep runs workload through every model in named, prices each plan under
// hw, and archives the result in s under "<runIDPrefix>-<name>". It returns
// the archived runs in the same order as named.
func Sweep(s *Store, runIDPrefix string, workload []wlsim.Query, named []NamedModel, hw hwconfig.Hardware, cacheUsage func(models.Model) int64, seed int64) ([]Run, error) {
	runs := make([]Run, 0, len(named))

	for _, nm := range named {
		plan, err := nm.Model.Run(workload)
		if err != nil {
			return nil, fmt.Errorf("store: sweep model %q: %w", nm.Name, err)
		}

		rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed>>1)|1))
		usage := int64(0)
		if cacheUsage != nil {
			usage = cacheUsage(nm.Model)
		}

		run := Run{
			ID:          fmt.Sprintf("%s-%s", runIDPrefix, nm.Name),
			Model:       nm.Name,
			Plan:        plan,
			ComputeCost: pricing.ComputeCost(hw, plan, rng),
			StorageCost: pricing.StorageCost(hw, plan, usage),
			PendingCost: pricing.PendingCost(hw, plan, rng),
		}
		run.TotalCost = run.ComputeCost + run.StorageCost

		if err := s.SaveRun(run); err != nil {
			return nil, fmt.Errorf("store: sweep save %q: %w", run.ID, err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}
