package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/fctl/internal/domain/config"
	"github.com/felixgeelhaar/fctl/internal/domain/reconcile"
	"github.com/felixgeelhaar/fctl/internal/ports"
)

// Manager creates, lists, restores, and prunes backup sets under
// <state dir>/backups. One set is one directory named by its UTC
// creation stamp.
type Manager struct {
	fs         ports.FileSystem
	logger     ports.Logger
	deployRoot string
	backupRoot string
	files      []string
	deps       reconcile.DependencyTable
	retain     int
	now        func() time.Time
	newID      func() string
}

// NewManager creates a backup manager for the given roots.
func NewManager(fs ports.FileSystem, logger ports.Logger, deployRoot, backupRoot string) *Manager {
	return &Manager{
		fs:         fs,
		logger:     logger,
		deployRoot: deployRoot,
		backupRoot: backupRoot,
		files:      DefaultFiles(),
		deps:       reconcile.DefaultDependencies(),
		retain:     config.DefaultRetain,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// WithFiles returns a copy covering the given file names instead of
// the defaults.
func (m *Manager) WithFiles(names ...string) *Manager {
	c := *m
	c.files = append([]string{}, names...)
	return &c
}

// WithRetention returns a copy keeping n sets on Prune.
func (m *Manager) WithRetention(n int) *Manager {
	c := *m
	c.retain = n
	return &c
}

// WithClock returns a copy using the given time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	c := *m
	c.now = now
	return &c
}

// Create copies every covered file that exists into a fresh backup set
// and writes the set manifest last, so a set without a manifest is
// never treated as complete.
func (m *Manager) Create(ctx context.Context) (*Set, error) {
	createdAt := m.now().UTC()
	stamp := createdAt.Format(StampLayout)
	dir := filepath.Join(m.backupRoot, stamp)

	if m.fs.Exists(dir) {
		return nil, fmt.Errorf("backup set %s already exists", stamp)
	}

	var present []string
	for _, name := range m.files {
		if m.fs.Exists(filepath.Join(m.deployRoot, name)) {
			present = append(present, name)
		} else {
			m.logger.Debug(ctx, "file absent, not backed up", ports.F("file", name))
		}
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("nothing to back up: no deployable files in %s", m.deployRoot)
	}

	if err := m.fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create backup set directory: %w", err)
	}

	hashes := make(map[string]string, len(present))
	for _, name := range present {
		src := filepath.Join(m.deployRoot, name)
		dest := filepath.Join(dir, name)
		if err := m.fs.CopyFile(src, dest); err != nil {
			return nil, fmt.Errorf("failed to back up %s: %w", name, err)
		}
		hash, err := m.fs.FileHash(dest)
		if err != nil {
			return nil, fmt.Errorf("failed to hash backup of %s: %w", name, err)
		}
		hashes[name] = hash
	}

	set := &Set{
		ID:        m.newID(),
		Stamp:     stamp,
		CreatedAt: createdAt,
		Files:     hashes,
	}
	if err := m.writeManifest(dir, set); err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "backup set created",
		ports.F("stamp", stamp),
		ports.F("files", len(hashes)))
	return set, nil
}

// List returns every complete backup set, newest first.
func (m *Manager) List(ctx context.Context) ([]Set, error) {
	if !m.fs.Exists(m.backupRoot) {
		return nil, nil
	}
	entries, err := m.fs.ReadDir(m.backupRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list backup sets: %w", err)
	}

	var sets []Set
	for _, entry := range entries {
		dir := filepath.Join(m.backupRoot, entry)
		if !m.fs.IsDir(dir) {
			continue
		}
		set, err := m.loadManifest(dir)
		if err != nil {
			m.logger.Warn(ctx, "skipping incomplete backup set",
				ports.F("stamp", entry),
				ports.F("error", err.Error()))
			continue
		}
		set.Stamp = entry
		sets = append(sets, *set)
	}

	sort.Slice(sets, func(i, j int) bool {
		if !sets[i].CreatedAt.Equal(sets[j].CreatedAt) {
			return sets[i].CreatedAt.After(sets[j].CreatedAt)
		}
		return sets[i].Stamp > sets[j].Stamp
	})
	return sets, nil
}

// Find resolves a backup set by stamp or ID.
func (m *Manager) Find(ctx context.Context, key string) (*Set, error) {
	sets, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sets {
		if sets[i].Stamp == key || sets[i].ID == key {
			return &sets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSetNotFound, key)
}

// RestoreReport describes what a restore put back and which services
// now run against older config than what is on disk.
type RestoreReport struct {
	Set        Set
	Restored   []string
	RestartSet []string
}

// Restore copies a backup set's files back into the deploy root. Every
// copy is verified against the recorded hash before anything is
// written, so a damaged set never half-overwrites a live deployment.
func (m *Manager) Restore(ctx context.Context, key string) (*RestoreReport, error) {
	set, err := m.Find(ctx, key)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(m.backupRoot, set.Stamp)

	names := make([]string, 0, len(set.Files))
	for name := range set.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		src := filepath.Join(dir, name)
		hash, err := m.fs.FileHash(src)
		if err != nil {
			return nil, fmt.Errorf("backup set %s is missing %s: %w", set.Stamp, name, err)
		}
		if hash != set.Files[name] {
			return nil, fmt.Errorf("backup set %s is corrupt: %s does not match its recorded hash", set.Stamp, name)
		}
	}

	if err := m.fs.MkdirAll(m.deployRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create deploy root: %w", err)
	}
	for _, name := range names {
		if err := m.fs.CopyFile(filepath.Join(dir, name), filepath.Join(m.deployRoot, name)); err != nil {
			return nil, fmt.Errorf("failed to restore %s: %w", name, err)
		}
		m.logger.Info(ctx, "restored file", ports.F("file", name), ports.F("stamp", set.Stamp))
	}

	return &RestoreReport{
		Set:        *set,
		Restored:   names,
		RestartSet: m.deps.RestartSet(names),
	}, nil
}

// Prune removes the oldest sets beyond the retention count and returns
// the stamps it removed.
func (m *Manager) Prune(ctx context.Context) ([]string, error) {
	sets, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	if m.retain < 1 || len(sets) <= m.retain {
		return nil, nil
	}

	var removed []string
	for _, set := range sets[m.retain:] {
		if err := m.fs.RemoveAll(filepath.Join(m.backupRoot, set.Stamp)); err != nil {
			return removed, fmt.Errorf("failed to prune backup set %s: %w", set.Stamp, err)
		}
		m.logger.Info(ctx, "pruned backup set", ports.F("stamp", set.Stamp))
		removed = append(removed, set.Stamp)
	}
	return removed, nil
}

func (m *Manager) writeManifest(dir string, set *Set) error {
	doc := setManifest{
		Version:   CurrentManifestVersion,
		ID:        set.ID,
		CreatedAt: set.CreatedAt,
		Files:     set.Files,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode backup manifest: %w", err)
	}
	if err := m.fs.WriteFile(filepath.Join(dir, manifestName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write backup manifest: %w", err)
	}
	return nil
}

func (m *Manager) loadManifest(dir string) (*Set, error) {
	data, err := m.fs.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("no manifest: %w", err)
	}
	var doc setManifest
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unreadable manifest: %w", err)
	}
	if doc.Version != CurrentManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", doc.Version)
	}
	return &Set{ID: doc.ID, CreatedAt: doc.CreatedAt, Files: doc.Files}, nil
}
