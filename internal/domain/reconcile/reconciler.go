package reconcile

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/fctl/internal/ports"
)

// Phase is one reconciler machine state.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseFingerprinting Phase = "fingerprinting"
	PhaseNoChange       Phase = "no-change"
	PhaseRestarting     Phase = "restarting"
	PhaseSnapshotting   Phase = "snapshotting"
)

// Event types for the reconciler state machine.
const (
	eventFingerprint = "FINGERPRINT"
	eventNoChange    = "NO_CHANGE"
	eventChanges     = "CHANGES_FOUND"
	eventRestarted   = "RESTARTED"
	eventSnapshotted = "SNAPSHOT_WRITTEN"
	eventReset       = "RESET"
)

// machineContext is the statekit context for one reconcile run.
type machineContext struct {
	ChangedFiles int
	RestartSet   int
}

// ServiceRestarter restarts individual compose services.
type ServiceRestarter interface {
	Restart(ctx context.Context, services ...string) error
}

// Report summarizes one reconcile run.
type Report struct {
	Changed         []string
	RestartSet      []string
	Restarted       []string
	FailedRestarts  map[string]error
	SnapshotWritten bool
	Trace           []Phase
	Duration        time.Duration
}

// NoChange reports whether nothing needed restarting.
func (r *Report) NoChange() bool {
	return len(r.Changed) == 0
}

// Reconciler compares tracked files against the recorded snapshot and
// restarts exactly the services that depend on changed files. Each
// Reconcile call drives a fresh state machine from Idle back to Idle;
// only the on-disk snapshot persists between runs.
type Reconciler struct {
	fs        ports.FileSystem
	store     *SnapshotStore
	deps      DependencyTable
	restarter ServiceRestarter
	logger    ports.Logger
	root      string

	mu    sync.Mutex
	trace []Phase
}

// NewReconciler creates a reconciler over the deploy root.
func NewReconciler(
	fs ports.FileSystem,
	store *SnapshotStore,
	deps DependencyTable,
	restarter ServiceRestarter,
	logger ports.Logger,
	root string,
) *Reconciler {
	return &Reconciler{
		fs:        fs,
		store:     store,
		deps:      deps,
		restarter: restarter,
		logger:    logger,
		root:      root,
	}
}

// buildMachine constructs the per-run state machine. The entry action
// copies change counts from the event payload into the machine context.
func (r *Reconciler) buildMachine() (*statekit.Interpreter[machineContext], error) {
	machine, err := statekit.NewMachine[machineContext]("fctl-reconcile").
		WithInitial(statekit.StateID(PhaseIdle)).
		WithContext(machineContext{}).
		WithAction("recordChanges", func(mc *machineContext, event statekit.Event) {
			if counts, ok := event.Payload.(machineContext); ok {
				mc.ChangedFiles = counts.ChangedFiles
				mc.RestartSet = counts.RestartSet
			}
		}).
		State(statekit.StateID(PhaseIdle)).
		On(eventFingerprint).Target(statekit.StateID(PhaseFingerprinting)).Done().
		State(statekit.StateID(PhaseFingerprinting)).
		On(eventNoChange).Target(statekit.StateID(PhaseNoChange)).
		On(eventChanges).Target(statekit.StateID(PhaseRestarting)).Done().
		State(statekit.StateID(PhaseNoChange)).
		On(eventReset).Target(statekit.StateID(PhaseIdle)).Done().
		State(statekit.StateID(PhaseRestarting)).
		OnEntry("recordChanges").
		On(eventRestarted).Target(statekit.StateID(PhaseSnapshotting)).Done().
		State(statekit.StateID(PhaseSnapshotting)).
		On(eventSnapshotted).Target(statekit.StateID(PhaseIdle)).Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build reconcile machine: %w", err)
	}
	return statekit.NewInterpreter(machine), nil
}

// recordPhase appends to the phase trace reported alongside results.
func (r *Reconciler) recordPhase(p Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace = append(r.trace, p)
}

func (r *Reconciler) takeTrace() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	trace := r.trace
	r.trace = nil
	return trace
}

// Reconcile runs one full reconciliation pass. Restart failures are
// collected, not fatal to the pass: remaining services are still
// attempted and the snapshot is still rewritten. The returned error is
// a *RestartError naming the failed services, or nil.
func (r *Reconciler) Reconcile(ctx context.Context) (*Report, error) {
	started := time.Now()

	interp, err := r.buildMachine()
	if err != nil {
		return nil, err
	}
	interp.Start()
	defer interp.Stop()

	r.recordPhase(PhaseIdle)
	interp.Send(statekit.Event{Type: eventFingerprint})
	r.recordPhase(PhaseFingerprinting)

	previous, err := r.store.Load(ctx)
	if err != nil {
		// An unreadable snapshot degrades to "absent": every tracked
		// file counts as changed and the snapshot is rewritten fresh.
		r.logger.Warn(ctx, "snapshot unreadable, treating all files as changed",
			ports.F("error", err.Error()))
		previous = nil
	}

	current, err := r.fingerprintAll()
	if err != nil {
		return nil, err
	}

	changed := diffFingerprints(previous, current, r.deps.TrackedFiles())
	report := &Report{
		Changed:        changed,
		FailedRestarts: map[string]error{},
	}

	if len(changed) == 0 {
		r.logger.Info(ctx, "no config changes detected")
		interp.Send(statekit.Event{Type: eventNoChange})
		r.recordPhase(PhaseNoChange)
		interp.Send(statekit.Event{Type: eventReset})
		r.recordPhase(PhaseIdle)
		report.Trace = r.takeTrace()
		report.Duration = time.Since(started)
		return report, nil
	}

	report.RestartSet = r.deps.RestartSet(changed)
	r.logger.Info(ctx, "config changes detected",
		ports.F("changed", changed),
		ports.F("restart_set", report.RestartSet))

	interp.Send(statekit.Event{
		Type: eventChanges,
		Payload: machineContext{
			ChangedFiles: len(changed),
			RestartSet:   len(report.RestartSet),
		},
	})
	r.recordPhase(PhaseRestarting)

	for _, svc := range report.RestartSet {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := r.restarter.Restart(ctx, svc); err != nil {
			r.logger.Error(ctx, "service restart failed",
				ports.F("service", svc),
				ports.F("error", err.Error()))
			report.FailedRestarts[svc] = err
			continue
		}
		r.logger.Info(ctx, "service restarted", ports.F("service", svc))
		report.Restarted = append(report.Restarted, svc)
	}

	interp.Send(statekit.Event{Type: eventRestarted})
	r.recordPhase(PhaseSnapshotting)

	// Re-fingerprint so edits made while restarting are not lost, then
	// settle the snapshot even when some restarts failed: the next
	// reload reacts to new edits, not to old ones.
	settled, err := r.fingerprintAll()
	if err != nil {
		return report, err
	}
	if err := r.store.Save(ctx, NewSnapshot(settled, time.Now())); err != nil {
		return report, err
	}
	report.SnapshotWritten = true

	interp.Send(statekit.Event{Type: eventSnapshotted})
	r.recordPhase(PhaseIdle)

	report.Trace = r.takeTrace()
	report.Duration = time.Since(started)

	if len(report.FailedRestarts) > 0 {
		return report, NewRestartError(report.FailedRestarts)
	}
	return report, nil
}

// CurrentSnapshot fingerprints all tracked files without comparing or
// restarting. Used after install and deploy to settle the baseline.
func (r *Reconciler) CurrentSnapshot(ctx context.Context) (*Snapshot, error) {
	files, err := r.fingerprintAll()
	if err != nil {
		return nil, err
	}
	return NewSnapshot(files, time.Now()), nil
}

// WriteBaseline recomputes and persists the snapshot.
func (r *Reconciler) WriteBaseline(ctx context.Context) error {
	snap, err := r.CurrentSnapshot(ctx)
	if err != nil {
		return err
	}
	return r.store.Save(ctx, snap)
}

// PendingChanges lists tracked files whose on-disk fingerprint differs
// from the recorded snapshot, without restarting anything. This is the
// read-only view status uses to answer "would a reload do something".
func (r *Reconciler) PendingChanges(ctx context.Context) ([]string, error) {
	previous, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	current, err := r.fingerprintAll()
	if err != nil {
		return nil, err
	}
	return diffFingerprints(previous, current, r.deps.TrackedFiles()), nil
}

func (r *Reconciler) fingerprintAll() (map[string]Fingerprint, error) {
	files := make(map[string]Fingerprint, len(r.deps))
	for _, name := range r.deps.TrackedFiles() {
		fp, err := ComputeFingerprint(r.fs, filepath.Join(r.root, name))
		if err != nil {
			return nil, err
		}
		files[name] = fp
	}
	return files, nil
}

// diffFingerprints returns the tracked names whose fingerprint differs
// from the recorded snapshot, sorted. A missing snapshot counts every
// tracked file as changed.
func diffFingerprints(previous *Snapshot, current map[string]Fingerprint, tracked []string) []string {
	var changed []string
	for _, name := range tracked {
		if previous == nil || previous.Fingerprint(name) != current[name] {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}
