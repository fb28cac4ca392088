package install

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fctl/internal/ports"
)

// Outcome describes what the runner did with one step.
type Outcome string

const (
	// OutcomeApplied means the step's action ran and succeeded.
	OutcomeApplied Outcome = "applied"

	// OutcomeSkipped means a done marker was found and the step did not run.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeSatisfied means the status check found nothing to do.
	OutcomeSatisfied Outcome = "satisfied"

	// OutcomeFailed means the step's check or action failed.
	OutcomeFailed Outcome = "failed"
)

// StepResult records the outcome of one step in a run.
type StepResult struct {
	Ordinal     int
	ID          string
	Description string
	Outcome     Outcome
	Err         error
	Duration    time.Duration
}

// RunReport summarizes a full runner invocation.
type RunReport struct {
	RunID     string
	Results   []StepResult
	Completed bool
	Probed    bool
	Healthy   bool
	HealthErr error
}

// Failed returns the failed step result, if any.
func (r *RunReport) Failed() (StepResult, bool) {
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			return res, true
		}
	}
	return StepResult{}, false
}

// AppliedCount returns how many steps actually ran their action.
func (r *RunReport) AppliedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == OutcomeApplied {
			n++
		}
	}
	return n
}

// Observer receives step lifecycle callbacks during a run.
type Observer interface {
	StepStarted(step Step)
	StepFinished(result StepResult)
}

type nopObserver struct{}

func (nopObserver) StepStarted(Step)        {}
func (nopObserver) StepFinished(StepResult) {}

// HealthProbe blocks until the deployed service reports healthy or
// the probe gives up.
type HealthProbe func(ctx context.Context) error

// Runner drives a step sequence to completion. Progress is persisted
// as done markers after every step so an interrupted run resumes from
// the first unmarked step; force ignores markers and checks and runs
// everything.
type Runner struct {
	store    *StateStore
	lock     *RunLock
	logger   ports.Logger
	observer Observer
	probe    HealthProbe
}

// NewRunner creates a runner over the given marker store and lock.
func NewRunner(store *StateStore, lock *RunLock, logger ports.Logger) *Runner {
	return &Runner{
		store:    store,
		lock:     lock,
		logger:   logger,
		observer: nopObserver{},
	}
}

// WithObserver returns a copy that reports step lifecycle events.
func (r *Runner) WithObserver(o Observer) *Runner {
	c := *r
	c.observer = o
	return &c
}

// WithHealthProbe returns a copy that probes service health after the
// final step. Probe failure is reported but never fails the run.
func (r *Runner) WithHealthProbe(probe HealthProbe) *Runner {
	c := *r
	c.probe = probe
	return &c
}

// Run executes the sequence. On step failure the run aborts with the
// marker store intact; on full success the marker store is cleared.
func (r *Runner) Run(ctx context.Context, seq *Sequence, force bool) (*RunReport, error) {
	if err := r.lock.Acquire(); err != nil {
		return nil, err
	}
	defer r.lock.Release() //nolint:errcheck

	state, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	report := &RunReport{RunID: state.RunID}
	if !state.Empty() && !force {
		r.logger.Info(ctx, "resuming interrupted run",
			ports.F("run_id", state.RunID),
			ports.F("completed_steps", state.MaxOrdinal()))
	}

	for _, step := range seq.Steps() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if !force && state.Done(step.Ordinal()) {
			r.logger.Info(ctx, "step already complete, skipping",
				ports.F("step", step.ID()),
				ports.F("ordinal", step.Ordinal()))
			result := StepResult{
				Ordinal:     step.Ordinal(),
				ID:          step.ID(),
				Description: step.Description(),
				Outcome:     OutcomeSkipped,
			}
			report.Results = append(report.Results, result)
			r.observer.StepFinished(result)
			continue
		}

		r.observer.StepStarted(step)
		started := time.Now()

		if !force {
			status, err := step.Check(ctx)
			if err != nil {
				checkErr := NewCheckFailedError(step.Ordinal(), step.ID(), err)
				result := r.finish(step, OutcomeFailed, checkErr, started)
				report.Results = append(report.Results, result)
				return report, checkErr
			}
			if status == StatusSatisfied {
				r.logger.Info(ctx, "step already satisfied",
					ports.F("step", step.ID()),
					ports.F("ordinal", step.Ordinal()))
				if err := r.mark(ctx, step); err != nil {
					return report, err
				}
				result := r.finish(step, OutcomeSatisfied, nil, started)
				report.Results = append(report.Results, result)
				continue
			}
		}

		r.logger.Info(ctx, "executing step",
			ports.F("step", step.ID()),
			ports.F("ordinal", step.Ordinal()))

		if err := step.Apply(ctx); err != nil {
			stepErr := NewStepFailedError(step.Ordinal(), step.ID(), err)
			result := r.finish(step, OutcomeFailed, stepErr, started)
			report.Results = append(report.Results, result)
			r.logger.Error(ctx, "step failed",
				ports.F("step", step.ID()),
				ports.F("error", err.Error()))
			return report, stepErr
		}
		if err := r.mark(ctx, step); err != nil {
			return report, err
		}
		result := r.finish(step, OutcomeApplied, nil, started)
		report.Results = append(report.Results, result)
	}

	report.Completed = true

	if r.probe != nil {
		report.Probed = true
		r.logger.Info(ctx, "probing service health")
		if err := r.probe(ctx); err != nil {
			report.HealthErr = err
			r.logger.Warn(ctx, "service did not report healthy",
				ports.F("error", err.Error()))
		} else {
			report.Healthy = true
			r.logger.Info(ctx, "service is healthy")
		}
	}

	if err := r.store.Clear(ctx); err != nil {
		// The run itself succeeded; a stale marker store only costs a
		// few skip reports on the next invocation.
		r.logger.Warn(ctx, "failed to clear marker store",
			ports.F("path", r.store.Path()),
			ports.F("error", err.Error()))
	}

	return report, nil
}

func (r *Runner) mark(ctx context.Context, step Step) error {
	if err := r.store.MarkDone(ctx, step, time.Now()); err != nil {
		return fmt.Errorf("step %s succeeded but marker write failed: %w", step.ID(), err)
	}
	return nil
}

func (r *Runner) finish(step Step, outcome Outcome, err error, started time.Time) StepResult {
	result := StepResult{
		Ordinal:     step.Ordinal(),
		ID:          step.ID(),
		Description: step.Description(),
		Outcome:     outcome,
		Err:         err,
		Duration:    time.Since(started),
	}
	r.observer.StepFinished(result)
	return result
}
