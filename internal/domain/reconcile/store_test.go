package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSnapStore(t *testing.T) *SnapshotStore {
	t.Helper()
	return NewSnapshotStore(filepath.Join(t.TempDir(), "snapshot.json"))
}

func TestSnapshotStore_MissingIsAbsent(t *testing.T) {
	store := newSnapStore(t)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotStore_SaveLoadRoundtrip(t *testing.T) {
	store := newSnapStore(t)
	ctx := context.Background()

	taken := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	snap := NewSnapshot(map[string]Fingerprint{
		"config.toml": "abc123",
		".env":        FingerprintAbsent,
	}, taken)

	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, CurrentSnapshotVersion, loaded.Version)
	assert.Equal(t, taken, loaded.TakenAt)
	assert.Equal(t, Fingerprint("abc123"), loaded.Fingerprint("config.toml"))
	assert.Equal(t, FingerprintAbsent, loaded.Fingerprint(".env"))
	assert.Equal(t, FingerprintAbsent, loaded.Fingerprint("never-recorded"))
}

func TestSnapshotStore_SaveOverwritesAtomically(t *testing.T) {
	store := newSnapStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, NewSnapshot(map[string]Fingerprint{"config.toml": "v1"}, time.Now())))
	require.NoError(t, store.Save(ctx, NewSnapshot(map[string]Fingerprint{"config.toml": "v2"}, time.Now())))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint("v2"), loaded.Fingerprint("config.toml"))

	// No torn temp files linger next to the snapshot.
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(store.Path()), entries[0].Name())
}

func TestSnapshotStore_CorruptFileIsAnError(t *testing.T) {
	store := newSnapStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{"), 0o600))

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}

func TestSnapshotStore_WrongVersionIsAnError(t *testing.T) {
	store := newSnapStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"version": 99, "files": {}}`), 0o600))

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported snapshot version")
}

func TestSnapshotStore_Clear(t *testing.T) {
	store := newSnapStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, NewSnapshot(nil, time.Now())))
	require.FileExists(t, store.Path())

	require.NoError(t, store.Clear(ctx))
	assert.NoFileExists(t, store.Path())
	require.NoError(t, store.Clear(ctx))
}

func TestNewSnapshot_CopiesInput(t *testing.T) {
	files := map[string]Fingerprint{"config.toml": "v1"}
	snap := NewSnapshot(files, time.Now())

	files["config.toml"] = "mutated"
	assert.Equal(t, Fingerprint("v1"), snap.Fingerprint("config.toml"))
}
