package install

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// CurrentStateVersion is the marker store schema version.
const CurrentStateVersion = 1

// StepRecord is a durable done marker for a completed step.
type StepRecord struct {
	Ordinal     int       `json:"ordinal"`
	ID          string    `json:"id"`
	CompletedAt time.Time `json:"completed_at"`
}

// State is the persisted installer progress for one run. Markers are
// kept sorted by ordinal and must form a contiguous prefix of the
// step sequence starting at 1.
type State struct {
	Version   int          `json:"version"`
	RunID     string       `json:"run_id"`
	UpdatedAt time.Time    `json:"updated_at"`
	Steps     []StepRecord `json:"steps"`
}

// NewState creates an empty state with a fresh run ID.
func NewState() *State {
	return &State{
		Version: CurrentStateVersion,
		RunID:   uuid.New().String(),
	}
}

// Empty reports whether no step has completed.
func (s *State) Empty() bool {
	return len(s.Steps) == 0
}

// Done reports whether the step at ordinal carries a done marker.
func (s *State) Done(ordinal int) bool {
	for _, r := range s.Steps {
		if r.Ordinal == ordinal {
			return true
		}
	}
	return false
}

// MarkDone records a done marker for the step, replacing any existing
// marker at the same ordinal.
func (s *State) MarkDone(ordinal int, id string, at time.Time) {
	for i, r := range s.Steps {
		if r.Ordinal == ordinal {
			s.Steps[i] = StepRecord{Ordinal: ordinal, ID: id, CompletedAt: at}
			s.UpdatedAt = at
			return
		}
	}
	s.Steps = append(s.Steps, StepRecord{Ordinal: ordinal, ID: id, CompletedAt: at})
	sort.Slice(s.Steps, func(i, j int) bool { return s.Steps[i].Ordinal < s.Steps[j].Ordinal })
	s.UpdatedAt = at
}

// MaxOrdinal returns the highest completed ordinal, or 0 when empty.
func (s *State) MaxOrdinal() int {
	if len(s.Steps) == 0 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].Ordinal
}

// Validate checks schema version and marker contiguity. Markers must
// cover ordinals 1..n with no gaps or duplicates; anything else means
// the store was hand-edited or truncated.
func (s *State) Validate() error {
	if s.Version != CurrentStateVersion {
		return NewStateCorruptError(
			fmt.Sprintf("unsupported state version %d (expected %d)", s.Version, CurrentStateVersion), nil)
	}
	for i, r := range s.Steps {
		want := i + 1
		if r.Ordinal != want {
			return NewStateCorruptError(
				fmt.Sprintf("marker gap: expected ordinal %d, found %d", want, r.Ordinal), nil)
		}
		if r.ID == "" {
			return NewStateCorruptError(
				fmt.Sprintf("marker for ordinal %d has no step id", r.Ordinal), nil)
		}
	}
	return nil
}
