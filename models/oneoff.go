package models

import "github.com/mpalomo/wlsim"

// OneOff is the degenerate execution strategy with no cache and no
// dependency graph: every query runs from scratch.
type OneOff struct{}

// NewOneOff constructs a One-Off model.
func NewOneOff() *OneOff { return &OneOff{} }

// Run emits one plan row per input query, execution=normal,
// trigger=immediate, triggered_by=self.
func (m *OneOff) Run(workload []wlsim.Query) ([]wlsim.PlanRow, error) {
	plan := make([]wlsim.PlanRow, 0, len(workload))
	for _, q := range workload {
		plan = append(plan, normalRow(q, wlsim.Immediate, q.Fingerprint))
	}
	return plan, nil
}
