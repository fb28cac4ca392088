package install

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/fctl/internal/ports"
)

func testNow() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func writeRawState(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// fakeStep is a scriptable step for runner and store tests.
type fakeStep struct {
	ordinal int
	id      string
	checkFn func(context.Context) (Status, error)
	applyFn func(context.Context) error
	checks  int
	applies int
}

func newFakeStep(ordinal int, id string) *fakeStep {
	return &fakeStep{ordinal: ordinal, id: id}
}

func (f *fakeStep) Ordinal() int        { return f.ordinal }
func (f *fakeStep) ID() string          { return f.id }
func (f *fakeStep) Description() string { return f.id }

func (f *fakeStep) Check(ctx context.Context) (Status, error) {
	f.checks++
	if f.checkFn != nil {
		return f.checkFn(ctx)
	}
	return StatusNeedsApply, nil
}

func (f *fakeStep) Apply(ctx context.Context) error {
	f.applies++
	if f.applyFn != nil {
		return f.applyFn(ctx)
	}
	return nil
}

// fakeEngine is a scriptable container runtime for step tests.
type fakeEngine struct {
	engineVersion  string
	engineErr      error
	composeVersion string
	composeErr     error
	images         map[string]bool
	imageErr       error
	running        bool
	runningErr     error
	pullErr        error
	upErr          error
	pulls          int
	ups            int
}

func (e *fakeEngine) EngineVersion(context.Context) (string, error) {
	return e.engineVersion, e.engineErr
}

func (e *fakeEngine) ComposeVersion(context.Context) (string, error) {
	return e.composeVersion, e.composeErr
}

func (e *fakeEngine) Pull(context.Context) error {
	e.pulls++
	return e.pullErr
}

func (e *fakeEngine) Up(context.Context) error {
	e.ups++
	return e.upErr
}

func (e *fakeEngine) ImageExists(_ context.Context, ref string) (bool, error) {
	if e.imageErr != nil {
		return false, e.imageErr
	}
	return e.images[ref], nil
}

func (e *fakeEngine) AllRunning(context.Context) (bool, error) {
	return e.running, e.runningErr
}

// testLogger captures log messages for assertions.
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *testLogger) Debug(_ context.Context, msg string, _ ...ports.Field) { l.record(msg) }
func (l *testLogger) Info(_ context.Context, msg string, _ ...ports.Field)  { l.record(msg) }
func (l *testLogger) Warn(_ context.Context, msg string, _ ...ports.Field)  { l.record(msg) }
func (l *testLogger) Error(_ context.Context, msg string, _ ...ports.Field) { l.record(msg) }
func (l *testLogger) With(_ ...ports.Field) ports.Logger                    { return l }

func (l *testLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m == substr {
			return true
		}
	}
	return false
}

// newTestRunner wires a runner against a temp state dir.
func newTestRunner(t *testing.T) (*Runner, *StateStore, *testLogger) {
	t.Helper()
	dir := t.TempDir()
	store := NewStateStore(filepath.Join(dir, "state.json"))
	lock := NewRunLock(filepath.Join(dir, "fctl.lock"))
	logger := &testLogger{}
	return NewRunner(store, lock, logger), store, logger
}
