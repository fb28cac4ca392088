package backup

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/fctl/internal/ports"
	"github.com/felixgeelhaar/fctl/internal/testutil/mocks"
)

const (
	deployRoot = "/srv/facilitator"
	backupRoot = "/var/lib/fctl/backups"
)

type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(_ context.Context, msg string, _ ...ports.Field) { l.record(msg) }
func (l *testLogger) Info(_ context.Context, msg string, _ ...ports.Field)  { l.record(msg) }
func (l *testLogger) Warn(_ context.Context, msg string, _ ...ports.Field)  { l.record(msg) }
func (l *testLogger) Error(_ context.Context, msg string, _ ...ports.Field) { l.record(msg) }
func (l *testLogger) With(_ ...ports.Field) ports.Logger                    { return l }

func (l *testLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *testLogger) contains(want string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msg := range l.messages {
		if msg == want {
			return true
		}
	}
	return false
}

// steppingClock returns a clock that advances one minute per call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	calls := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := start.Add(time.Duration(calls) * time.Minute)
		calls++
		return t
	}
}

func seedDeployRoot(fs *mocks.FileSystem) {
	fs.AddDir(deployRoot)
	fs.AddFile(deployRoot+"/config.toml", "[server]\nport = 8080\n")
	fs.AddFile(deployRoot+"/.env", "X402_PORT=8080\n")
	fs.AddFile(deployRoot+"/Caddyfile", "localhost {\n}\n")
	fs.AddFile(deployRoot+"/compose.yaml", "services: {}\n")
	fs.AddFile(deployRoot+"/fctl.yaml", "backup:\n  retain: 3\n")
}

func newTestManager(fs *mocks.FileSystem) (*Manager, *testLogger) {
	logger := &testLogger{}
	start := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	m := NewManager(fs, logger, deployRoot, backupRoot).WithClock(steppingClock(start))
	return m, logger
}

func TestCreateBackupSet(t *testing.T) {
	fs := mocks.NewFileSystem()
	seedDeployRoot(fs)
	m, logger := newTestManager(fs)

	set, err := m.Create(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "20260115T120000Z", set.Stamp)
	assert.NotEmpty(t, set.ID)
	assert.Len(t, set.Files, 5)

	dir := backupRoot + "/" + set.Stamp
	assert.True(t, fs.Exists(dir+"/config.toml"))
	assert.True(t, fs.Exists(dir+"/.env"))
	assert.True(t, fs.Exists(dir+"/manifest.json"))

	// Recorded hashes match the copies on disk.
	for name, want := range set.Files {
		got, err := fs.FileHash(dir + "/" + name)
		require.NoError(t, err)
		assert.Equal(t, want, got, "hash mismatch for %s", name)
	}

	assert.True(t, logger.contains("backup set created"))
}

func TestCreateSkipsMissingFiles(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddDir(deployRoot)
	fs.AddFile(deployRoot+"/config.toml", "[server]\n")
	m, _ := newTestManager(fs)

	set, err := m.Create(context.Background())
	require.NoError(t, err)

	assert.Len(t, set.Files, 1)
	_, ok := set.Files["config.toml"]
	assert.True(t, ok)
}

func TestCreateNothingToBackUp(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddDir(deployRoot)
	m, _ := newTestManager(fs)

	_, err := m.Create(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to back up")
}

func TestCreateRejectsDuplicateStamp(t *testing.T) {
	fs := mocks.NewFileSystem()
	seedDeployRoot(fs)
	logger := &testLogger{}
	fixed := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	m := NewManager(fs, logger, deployRoot, backupRoot).WithClock(func() time.Time { return fixed })

	_, err := m.Create(context.Background())
	require.NoError(t, err)

	_, err = m.Create(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestListNewestFirst(t *testing.T) {
	fs := mocks.NewFileSystem()
	seedDeployRoot(fs)
	m, _ := newTestManager(fs)
	ctx := context.Background()

	first, err := m.Create(ctx)
	require.NoError(t, err)
	second, err := m.Create(ctx)
	require.NoError(t, err)

	sets, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, second.Stamp, sets[0].Stamp)
	assert.Equal(t, first.Stamp, sets[1].Stamp)
}

func TestListEmptyWhenNoBackupRoot(t *testing.T) {
	fs := mocks.NewFileSystem()
	m, _ := newTestManager(fs)

	sets, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestListSkipsIncompleteSets(t *testing.T) {
	fs := mocks.NewFileSystem()
	seedDeployRoot(fs)
	m, logger := newTestManager(fs)
	ctx := context.Background()

	_, err := m.Create(ctx)
	require.NoError(t, err)

	// A set directory without a manifest is in-progress or damaged.
	fs.AddDir(backupRoot + "/20260116T000000Z")
	fs.AddFile(backupRoot+"/20260116T000000Z/config.toml", "orphan")

	sets, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sets, 1)
	assert.True(t, logger.contains("skipping incomplete backup set"))
}

func TestFindByStampAndID(t *testing.T) {
	fs := mocks.NewFileSystem()
	seedDeployRoot(fs)
	m, _ := newTestManager(fs)
	ctx := context.Background()

	set, err := m.Create(ctx)
	require.NoError(t, err)

	byStamp, err := m.Find(ctx, set.Stamp)
	require.NoError(t, err)
	assert.Equal(t, set.ID, byStamp.ID)

	byID, err := m.Find(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, set.Stamp, byID.Stamp)

	_, err = m.Find(ctx, "20990101T000000Z")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSetNotFound)
}

func TestRestore(t *testing.T) {
	fs := mocks.NewFileSystem()
	seedDeployRoot(fs)
	m, _ := newTestManager(fs)
	ctx := context.Background()

	set, err := m.Create(ctx)
	require.NoError(t, err)

	// Drift two files after the backup.
	fs.AddFile(deployRoot+"/config.toml", "[server]\nport = 9999\n")
	fs.AddFile(deployRoot+"/Caddyfile", "broken {\n}\n")

	report, err := m.Restore(ctx, set.Stamp)
	require.NoError(t, err)

	data, err := fs.ReadFile(deployRoot + "/config.toml")
	require.NoError(t, err)
	assert.Equal(t, "[server]\nport = 8080\n", string(data))

	assert.Equal(t, []string{".env", "Caddyfile", "compose.yaml", "config.toml", "fctl.yaml"}, report.Restored)
	assert.Equal(t, []string{"facilitator", "proxy"}, report.RestartSet)
}

func TestRestoreDetectsCorruptSet(t *testing.T) {
	fs := mocks.NewFileSystem()
	seedDeployRoot(fs)
	m, _ := newTestManager(fs)
	ctx := context.Background()

	set, err := m.Create(ctx)
	require.NoError(t, err)

	// Tamper with a stored copy; nothing may be written back.
	fs.AddFile(backupRoot+"/"+set.Stamp+"/config.toml", "tampered")
	fs.AddFile(deployRoot+"/config.toml", "live")

	_, err = m.Restore(ctx, set.Stamp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")

	data, err := fs.ReadFile(deployRoot + "/config.toml")
	require.NoError(t, err)
	assert.Equal(t, "live", string(data))
}

func TestRestoreUnknownSet(t *testing.T) {
	fs := mocks.NewFileSystem()
	seedDeployRoot(fs)
	m, _ := newTestManager(fs)

	_, err := m.Restore(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSetNotFound)
}

func TestPruneKeepsNewest(t *testing.T) {
	fs := mocks.NewFileSystem()
	seedDeployRoot(fs)
	m, _ := newTestManager(fs)
	m = m.WithRetention(2)
	ctx := context.Background()

	var stamps []string
	for i := 0; i < 4; i++ {
		set, err := m.Create(ctx)
		require.NoError(t, err)
		stamps = append(stamps, set.Stamp)
	}

	removed, err := m.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{stamps[1], stamps[0]}, removed)

	sets, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, stamps[3], sets[0].Stamp)
	assert.Equal(t, stamps[2], sets[1].Stamp)

	assert.False(t, fs.Exists(backupRoot+"/"+stamps[0]))
	assert.False(t, fs.Exists(backupRoot+"/"+stamps[0]+"/manifest.json"))
}

func TestPruneNoopUnderRetention(t *testing.T) {
	fs := mocks.NewFileSystem()
	seedDeployRoot(fs)
	m, _ := newTestManager(fs)
	ctx := context.Background()

	_, err := m.Create(ctx)
	require.NoError(t, err)

	removed, err := m.Prune(ctx)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestManifestDocumentShape(t *testing.T) {
	fs := mocks.NewFileSystem()
	seedDeployRoot(fs)
	m, _ := newTestManager(fs)

	set, err := m.Create(context.Background())
	require.NoError(t, err)

	data, err := fs.ReadFile(backupRoot + "/" + set.Stamp + "/manifest.json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, float64(1), doc["version"])
	assert.Equal(t, set.ID, doc["id"])
	assert.Contains(t, doc, "created_at")
	assert.Contains(t, doc, "files")
}
