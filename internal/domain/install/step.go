package install

import "context"

// Status represents the result of a step status check.
type Status int

const (
	// StatusUnknown indicates the check could not determine status.
	StatusUnknown Status = iota

	// StatusSatisfied indicates the step's outcome is already in place.
	StatusSatisfied

	// StatusNeedsApply indicates the step's action must run.
	StatusNeedsApply
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusSatisfied:
		return "satisfied"
	case StatusNeedsApply:
		return "needs-apply"
	default:
		return "unknown"
	}
}

// Step is a single installer phase. Steps carry a fixed ordinal
// position and must be idempotent: Check reports whether the step's
// outcome is already in place, and Apply performs it.
type Step interface {
	// Ordinal returns the step's 1-based position in the sequence.
	Ordinal() int

	// ID returns the stable step identifier used in markers and logs.
	ID() string

	// Description returns a short human-readable summary.
	Description() string

	// Check reports whether the step needs to run. Implementations
	// must not mutate the host.
	Check(ctx context.Context) (Status, error)

	// Apply performs the step's action.
	Apply(ctx context.Context) error
}
