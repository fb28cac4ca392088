package install

import "fmt"

// Sequence is an ordered, validated list of installer steps. Ordinals
// must run 1..n without gaps so marker contiguity stays meaningful.
type Sequence struct {
	steps []Step
}

// NewSequence validates and assembles a step sequence.
func NewSequence(steps ...Step) (*Sequence, error) {
	if len(steps) == 0 {
		return nil, NewSequenceError("sequence has no steps")
	}
	seen := make(map[string]bool, len(steps))
	for i, step := range steps {
		want := i + 1
		if step.Ordinal() != want {
			return nil, NewSequenceError(
				fmt.Sprintf("step %q has ordinal %d, expected %d", step.ID(), step.Ordinal(), want))
		}
		if step.ID() == "" {
			return nil, NewSequenceError(fmt.Sprintf("step at ordinal %d has no id", want))
		}
		if seen[step.ID()] {
			return nil, NewSequenceError(fmt.Sprintf("duplicate step id %q", step.ID()))
		}
		seen[step.ID()] = true
	}
	return &Sequence{steps: steps}, nil
}

// Steps returns the steps in execution order.
func (s *Sequence) Steps() []Step {
	return s.steps
}

// Len returns the number of steps.
func (s *Sequence) Len() int {
	return len(s.steps)
}

// Step returns the step at the given ordinal.
func (s *Sequence) Step(ordinal int) (Step, bool) {
	if ordinal < 1 || ordinal > len(s.steps) {
		return nil, false
	}
	return s.steps[ordinal-1], true
}
