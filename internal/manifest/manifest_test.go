package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsearch/qsearch/internal/config"
)

func TestLoad_Missing(t *testing.T) {
	cfg := config.Default()
	m, err := Load(filepath.Join(t.TempDir(), "manifest.json"), cfg)
	require.NoError(t, err)
	assert.Empty(t, m.Files)
	assert.Equal(t, cfg.Model, m.Config.Model)
	assert.Equal(t, currentVersion, m.Version)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "manifest.json")

	m := NewManifest(cfg)
	m.Files["a.go"] = &FileRecord{
		Path:      "a.go",
		Hash:      "abc123",
		Size:      42,
		ModTime:   time.Now().Truncate(time.Second),
		ChunkIDs:  []string{"c1", "c2"},
		IndexedAt: time.Now().Truncate(time.Second),
	}
	require.NoError(t, m.Save(path))

	got, err := Load(path, cfg)
	require.NoError(t, err)
	require.Contains(t, got.Files, "a.go")
	assert.Equal(t, "abc123", got.Files["a.go"].Hash)
	assert.Equal(t, []string{"c1", "c2"}, got.Files["a.go"].ChunkIDs)
	assert.Equal(t, 2, got.ChunkCount())
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := NewManifest(cfg)
	require.NoError(t, m.Save(path))
	require.NoError(t, m.Save(path)) // overwrite in place

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "manifest.json", entries[0].Name())
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path, config.Default())
	assert.Error(t, err)
}

func TestSnapshot_Compatible(t *testing.T) {
	cfg := config.Default()
	base := SnapshotFromConfig(cfg)

	assert.True(t, base.Compatible(SnapshotFromConfig(cfg)))

	other := *cfg
	other.Model = "another-model"
	assert.False(t, base.Compatible(SnapshotFromConfig(&other)))

	other = *cfg
	other.Dimension = 512
	assert.False(t, base.Compatible(SnapshotFromConfig(&other)))

	// Extension filters affect which files are scanned, not vector shape.
	other = *cfg
	other.IncludeExtensions = []string{"go"}
	assert.True(t, base.Compatible(SnapshotFromConfig(&other)))
}

func TestDiff(t *testing.T) {
	cfg := config.Default()
	m := NewManifest(cfg)
	m.Files["keep.go"] = &FileRecord{Path: "keep.go", Hash: "h1"}
	m.Files["edit.go"] = &FileRecord{Path: "edit.go", Hash: "h2"}
	m.Files["gone.go"] = &FileRecord{Path: "gone.go", Hash: "h3"}

	current := map[string]string{
		"keep.go": "h1",
		"edit.go": "changed",
		"new.go":  "h4",
	}

	cs := Diff(current, m)
	assert.Equal(t, []string{"new.go"}, cs.Added)
	assert.Equal(t, []string{"edit.go"}, cs.Modified)
	assert.Equal(t, []string{"gone.go"}, cs.Removed)
	assert.Equal(t, []string{"keep.go"}, cs.Unchanged)
	assert.Equal(t, 3, cs.Total())
}

func TestDiff_EmptyManifest(t *testing.T) {
	m := NewManifest(config.Default())
	cs := Diff(map[string]string{"a.go": "h", "b.go": "h"}, m)
	assert.Equal(t, []string{"a.go", "b.go"}, cs.Added)
	assert.Empty(t, cs.Removed)
}

func TestDiff_Idempotent(t *testing.T) {
	// After committing the diff, a second diff over the same tree is empty.
	cfg := config.Default()
	m := NewManifest(cfg)
	current := map[string]string{"a.go": "h1", "b.go": "h2"}

	cs := Diff(current, m)
	for _, p := range cs.Added {
		m.Files[p] = &FileRecord{Path: p, Hash: current[p]}
	}

	again := Diff(current, m)
	assert.Zero(t, again.Total())
	assert.Len(t, again.Unchanged, 2)
}
