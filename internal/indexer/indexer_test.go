package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/internal/embedder"
	"github.com/qsearch/qsearch/internal/manifest"
	"github.com/qsearch/qsearch/internal/store"
	"github.com/qsearch/qsearch/internal/workspace"
	"github.com/qsearch/qsearch/pkg/types"
)

const mathSrcV1 = `package main

func Alpha() int {
	return 1
}

func Beta() int {
	return 2
}
`

// Same spans as V1, different content in Beta only.
const mathSrcV2 = `package main

func Alpha() int {
	return 1
}

func Beta() int {
	return 3
}
`

func setupWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, workspace.Init(root))
	for path, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return root
}

func newTestIndexer(root string) (*Indexer, *embedder.MockEmbedder, *store.MemoryStore, *config.Config) {
	cfg := config.Default()
	cfg.Dimension = 32
	cfg.Provider = "mock"
	emb := embedder.NewMock(cfg.Dimension)
	st := store.NewMemoryStore()
	return New(root, cfg, emb, st, zap.NewNop()), emb, st, cfg
}

func loadManifest(t *testing.T, root string, cfg *config.Config) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Load(workspace.ManifestPath(root), cfg)
	require.NoError(t, err)
	return m
}

// assertConsistent checks the store holds exactly the manifest's chunks.
func assertConsistent(t *testing.T, m *manifest.Manifest, st *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	ids := m.AllChunkIDs()

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(ids), n)

	got, err := st.Get(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, got, len(ids))
}

func TestRun_InitialIndex(t *testing.T) {
	root := setupWorkspace(t, map[string]string{
		"math.go":   mathSrcV1,
		"README.md": "usage notes\nmore notes\n",
	})
	idx, _, st, cfg := newTestIndexer(root)

	report, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.FilesScanned)
	assert.Equal(t, 2, report.FilesIndexed)
	assert.Zero(t, report.FilesFailed)
	assert.Greater(t, report.ChunksCreated, 0)

	m := loadManifest(t, root, cfg)
	assert.Len(t, m.Files, 2)
	assertConsistent(t, m, st)
}

func TestRun_SecondRunIsNoop(t *testing.T) {
	root := setupWorkspace(t, map[string]string{"math.go": mathSrcV1})
	idx, emb, st, cfg := newTestIndexer(root)

	_, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err)
	calls := emb.Calls()

	report, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Zero(t, report.FilesIndexed)
	assert.Zero(t, report.FilesRemoved)
	assert.Equal(t, 1, report.FilesUnchanged)
	assert.Equal(t, calls, emb.Calls(), "unchanged files must not be re-embedded")
	assertConsistent(t, loadManifest(t, root, cfg), st)
}

func TestRun_ModifiedFileReembedsOnlyChangedChunks(t *testing.T) {
	root := setupWorkspace(t, map[string]string{"math.go": mathSrcV1})
	idx, emb, st, cfg := newTestIndexer(root)

	_, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err)
	before := loadManifest(t, root, cfg)
	calls := emb.Calls()

	require.NoError(t, os.WriteFile(filepath.Join(root, "math.go"), []byte(mathSrcV2), 0o644))

	report, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesIndexed)
	assert.Equal(t, 1, report.ChunksCreated, "only the edited function re-embeds")
	assert.Equal(t, 1, report.ChunksDeleted)
	assert.Equal(t, calls+1, emb.Calls())

	after := loadManifest(t, root, cfg)
	assert.NotEqual(t, before.Files["math.go"].Hash, after.Files["math.go"].Hash)
	assertConsistent(t, after, st)
}

func TestRun_RemovedFileDropsChunks(t *testing.T) {
	root := setupWorkspace(t, map[string]string{
		"math.go":  mathSrcV1,
		"other.go": "package main\n\nfunc Gamma() {}\n",
	})
	idx, _, st, cfg := newTestIndexer(root)

	_, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err)
	gone := loadManifest(t, root, cfg).Files["other.go"].ChunkIDs

	require.NoError(t, os.Remove(filepath.Join(root, "other.go")))

	report, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesRemoved)

	m := loadManifest(t, root, cfg)
	assert.NotContains(t, m.Files, "other.go")
	got, err := st.Get(context.Background(), gone)
	require.NoError(t, err)
	assert.Empty(t, got)
	assertConsistent(t, m, st)
}

func TestRun_FullModePurgesOrphans(t *testing.T) {
	root := setupWorkspace(t, map[string]string{"math.go": mathSrcV1})
	idx, _, st, cfg := newTestIndexer(root)

	_, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err)

	// Simulate an orphan vector left behind by an interrupted earlier run.
	require.NoError(t, st.Upsert(context.Background(), []store.Entry{
		{ID: "orphan", Vector: make([]float32, cfg.Dimension)},
	}))

	report, err := idx.Run(context.Background(), Options{Mode: ModeFull})
	require.NoError(t, err)
	assert.Equal(t, ModeFull, report.Mode)
	assert.Equal(t, 1, report.FilesIndexed)

	got, err := st.Get(context.Background(), []string{"orphan"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assertConsistent(t, loadManifest(t, root, cfg), st)
}

func TestRun_EmbedFailureSkipsFileUntilNextRun(t *testing.T) {
	root := setupWorkspace(t, map[string]string{"math.go": mathSrcV1})
	idx, emb, st, cfg := newTestIndexer(root)

	emb.FailNext(2) // initial attempt plus its retry

	report, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err, "one failed file must not fail the run")
	assert.Equal(t, 1, report.FilesFailed)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, types.StageEmbed, report.Failed[0].Stage)
	assert.Zero(t, report.FilesIndexed)

	m := loadManifest(t, root, cfg)
	assert.Empty(t, m.Files, "failed file must not be committed")

	// Next run retries the file because its hash is still unrecorded.
	report, err = idx.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesIndexed)
	assertConsistent(t, loadManifest(t, root, cfg), st)
}

// flakyStore fails vector writes touching one file, everything else passes
// through to the memory store.
type flakyStore struct {
	*store.MemoryStore
	failPath string
}

func (s *flakyStore) Upsert(ctx context.Context, entries []store.Entry) error {
	for _, e := range entries {
		if e.Payload.Path == s.failPath {
			return errors.New("disk full")
		}
	}
	return s.MemoryStore.Upsert(ctx, entries)
}

func TestRun_StoreFailureSkipsFileOnly(t *testing.T) {
	root := setupWorkspace(t, map[string]string{
		"good.go": "package main\n\nfunc Good() {}\n",
		"bad.go":  "package main\n\nfunc Bad() {}\n",
	})
	cfg := config.Default()
	cfg.Dimension = 32
	cfg.Provider = "mock"
	st := &flakyStore{MemoryStore: store.NewMemoryStore(), failPath: "bad.go"}
	idx := New(root, cfg, embedder.NewMock(cfg.Dimension), st, zap.NewNop())

	report, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err, "a store failure for one file must not fail the run")
	assert.Equal(t, 1, report.FilesIndexed)
	assert.Equal(t, 1, report.FilesFailed)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "bad.go", report.Failed[0].Path)
	assert.Equal(t, types.StageStore, report.Failed[0].Stage)

	m := loadManifest(t, root, cfg)
	assert.Contains(t, m.Files, "good.go")
	assert.NotContains(t, m.Files, "bad.go", "failed file must not be committed")

	// With the store healthy again, the next run retries only the failed file.
	st.failPath = ""
	report, err = idx.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesIndexed)
	assert.Equal(t, 1, report.FilesUnchanged)
	assertConsistent(t, loadManifest(t, root, cfg), st.MemoryStore)
}

// skewedDimEmbedder claims one more dimension than its vectors actually have.
type skewedDimEmbedder struct {
	*embedder.MockEmbedder
}

func (e *skewedDimEmbedder) Dimension() int { return e.MockEmbedder.Dimension() + 1 }

func TestRun_DimensionMismatchAbortsRun(t *testing.T) {
	root := setupWorkspace(t, map[string]string{"math.go": mathSrcV1})
	cfg := config.Default()
	cfg.Dimension = 32
	cfg.Provider = "mock"
	emb := &skewedDimEmbedder{MockEmbedder: embedder.NewMock(cfg.Dimension)}
	idx := New(root, cfg, emb, store.NewMemoryStore(), zap.NewNop())

	_, err := idx.Run(context.Background(), Options{})
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)

	m := loadManifest(t, root, cfg)
	assert.Empty(t, m.Files, "nothing may commit after a dimension mismatch")
}

func TestRun_ConfigMismatch(t *testing.T) {
	root := setupWorkspace(t, map[string]string{"math.go": mathSrcV1})
	idx, _, st, _ := newTestIndexer(root)

	_, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Dimension = 32
	cfg.Model = "different-model"
	emb := embedder.NewMock(cfg.Dimension)
	idx2 := New(root, cfg, emb, st, zap.NewNop())

	_, err = idx2.Run(context.Background(), Options{})
	assert.ErrorIs(t, err, types.ErrConfigMismatch)

	// A full run accepts the new settings.
	report, err := idx2.Run(context.Background(), Options{Mode: ModeFull})
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesIndexed)
	assert.Equal(t, "different-model", loadManifest(t, root, cfg).Config.Model)
}

func TestRun_ConcurrentRunRejected(t *testing.T) {
	root := setupWorkspace(t, map[string]string{"math.go": mathSrcV1})
	idx, _, _, _ := newTestIndexer(root)

	require.True(t, idx.lock.TryAcquire())
	defer idx.lock.Release()

	_, err := idx.Run(context.Background(), Options{})
	assert.ErrorIs(t, err, types.ErrIndexInProgress)
}

func TestRun_InterruptedCommitRecovers(t *testing.T) {
	root := setupWorkspace(t, map[string]string{"math.go": mathSrcV1})
	idx, _, st, cfg := newTestIndexer(root)

	_, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err)

	// Simulate a crash after store writes but before the manifest
	// checkpoint: the manifest forgets the file while its vectors remain.
	m := loadManifest(t, root, cfg)
	delete(m.Files, "math.go")
	require.NoError(t, m.Save(workspace.ManifestPath(root)))

	report, err := idx.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesIndexed)
	assertConsistent(t, loadManifest(t, root, cfg), st)
}

func TestRun_Canceled(t *testing.T) {
	root := setupWorkspace(t, map[string]string{"math.go": mathSrcV1})
	idx, _, _, _ := newTestIndexer(root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Run(ctx, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ProgressEvents(t *testing.T) {
	root := setupWorkspace(t, map[string]string{
		"a.go": "package main\n\nfunc A() {}\n",
		"b.go": "package main\n\nfunc B() {}\n",
	})
	idx, _, _, _ := newTestIndexer(root)

	var phases []string
	_, err := idx.Run(context.Background(), Options{
		Progress: func(ev Event) { phases = append(phases, ev.Phase) },
	})
	require.NoError(t, err)
	assert.Contains(t, phases, "scan")
	assert.Contains(t, phases, "index")
}
