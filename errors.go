package wlsim

import "errors"

// Sentinel errors so callers can classify a failure with errors.Is; callers
// otherwise wrap them with fmt.Errorf("...: %w", ...) for context.
var (
	// ErrInvalidInput covers malformed workload input discovered on ingest:
	// missing required columns or fields, negative sizes, a nonpositive
	// cpu time, and unparseable values. Ingest sorts rows that arrive out of
	// timestamp order rather than rejecting them.
	ErrInvalidInput = errors.New("wlsim: invalid input")

	// ErrGraphMisuse covers removing a dependency-graph node that still has
	// incoming edges; this is a programming bug and always aborts.
	ErrGraphMisuse = errors.New("wlsim: dependency graph misuse")

	// ErrConfigError covers unknown cache types and negative capacities,
	// raised at construction time.
	ErrConfigError = errors.New("wlsim: invalid configuration")
)
