package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qsearch/qsearch/internal/chunker"
	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/internal/embedder"
	"github.com/qsearch/qsearch/internal/manifest"
	"github.com/qsearch/qsearch/internal/parser"
	"github.com/qsearch/qsearch/internal/scanner"
	"github.com/qsearch/qsearch/internal/store"
	"github.com/qsearch/qsearch/internal/workspace"
	"github.com/qsearch/qsearch/pkg/types"
)

// Mode selects how much of the workspace a run rebuilds.
type Mode int

const (
	// ModeIncremental reconciles only files whose content hash changed.
	ModeIncremental Mode = iota
	// ModeFull discards the store and manifest and reindexes everything.
	ModeFull
)

func (m Mode) String() string {
	if m == ModeFull {
		return "full"
	}
	return "incremental"
}

// Options configures one indexing run.
type Options struct {
	Mode    Mode
	Workers int
	// Progress, when set, receives events from a single goroutine.
	Progress func(Event)
}

// Indexer drives the scan → chunk → embed → commit pipeline. Extraction and
// embedding run concurrently across files; all store and manifest writes go
// through one committer goroutine, so each file becomes durable as a unit.
type Indexer struct {
	root         string
	cfg          *config.Config
	chunker      *chunker.Chunker
	dispatcher   *embedder.Dispatcher
	store        store.VectorStore
	manifestPath string
	logger       *zap.Logger

	lock IndexLock
}

// New wires an indexer over an initialized workspace rooted at root.
func New(root string, cfg *config.Config, emb embedder.Embedder, st store.VectorStore, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := parser.New()
	return &Indexer{
		root:         root,
		cfg:          cfg,
		chunker:      chunker.New(p, cfg, logger),
		dispatcher:   embedder.NewDispatcher(emb, cfg, logger),
		store:        st,
		manifestPath: workspace.ManifestPath(root),
		logger:       logger,
	}
}

// commitOp is one file's worth of durable changes. A nil record means the
// file left the workspace and its chunks must go.
type commitOp struct {
	path    string
	record  *manifest.FileRecord
	deletes []string
	upserts []store.Entry
}

// Run executes one indexing run and returns its report. Only one run may be
// active per Indexer; a concurrent call reports types.ErrIndexInProgress.
func (idx *Indexer) Run(ctx context.Context, opts Options) (*Report, error) {
	if !idx.lock.TryAcquire() {
		return nil, types.ErrIndexInProgress
	}
	defer idx.lock.Release()

	start := time.Now()
	report := &Report{Mode: opts.Mode}

	m, err := manifest.Load(idx.manifestPath, idx.cfg)
	if err != nil {
		return nil, err
	}

	snap := manifest.SnapshotFromConfig(idx.cfg)
	switch opts.Mode {
	case ModeFull:
		if err := idx.store.Reset(ctx); err != nil {
			return nil, fmt.Errorf("resetting store: %w", err)
		}
		m = manifest.NewManifest(idx.cfg)
	default:
		if len(m.Files) > 0 && !m.Config.Compatible(snap) {
			return nil, fmt.Errorf("%w: run a full reindex", types.ErrConfigMismatch)
		}
		m.Config = snap
	}

	// Ignore rules are re-read every run so edits to .gitignore take effect
	// without restarting.
	sc, err := scanner.New(idx.root, idx.cfg, idx.logger)
	if err != nil {
		return nil, err
	}
	scan, err := sc.Scan(ctx)
	if err != nil {
		return nil, err
	}
	report.FilesScanned = len(scan.Files)
	report.Excluded = scan.Excluded
	emit(opts.Progress, Event{Phase: "scan", Done: len(scan.Files), Total: len(scan.Files)})

	cs := manifest.Diff(scan.HashByPath(), m)
	report.FilesUnchanged = len(cs.Unchanged)

	entries := make(map[string]scanner.FileEntry, len(scan.Files))
	for _, f := range scan.Files {
		entries[f.Path] = f
	}

	if err := idx.process(ctx, opts, m, cs, entries, report); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	idx.logger.Info("index run complete",
		zap.String("mode", opts.Mode.String()),
		zap.Int("indexed", report.FilesIndexed),
		zap.Int("removed", report.FilesRemoved),
		zap.Int("unchanged", report.FilesUnchanged),
		zap.Int("failed", report.FilesFailed),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// process runs workers over the changeset and serializes commits.
func (idx *Indexer) process(ctx context.Context, opts Options, m *manifest.Manifest,
	cs manifest.ChangeSet, entries map[string]scanner.FileEntry, report *Report) error {

	workers := opts.Workers
	if workers <= 0 {
		workers = idx.cfg.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex // protects report.Failed and FilesFailed

	commits := make(chan commitOp)
	var commitErr error
	var committerDone sync.WaitGroup
	committerDone.Add(1)
	go func() {
		defer committerDone.Done()
		total := cs.Total()
		done := 0
		for op := range commits {
			if commitErr != nil {
				continue // drain so producers never block
			}
			failure, err := idx.commit(ctx, m, op, report)
			if err != nil {
				commitErr = err
				cancel()
				continue
			}
			if failure != nil {
				mu.Lock()
				report.Failed = append(report.Failed, *failure)
				report.FilesFailed++
				mu.Unlock()
				idx.logger.Warn("file skipped",
					zap.String("path", failure.Path),
					zap.String("stage", failure.Stage),
					zap.Error(failure.Err))
				continue
			}
			done++
			phase := "index"
			if op.record == nil {
				phase = "remove"
			}
			emit(opts.Progress, Event{Phase: phase, Path: op.path, Done: done, Total: total})
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	// Removals carry no extraction work; feed them from one goroutine. Their
	// chunk IDs are snapshotted here because the committer mutates m.Files.
	removals := make([]commitOp, 0, len(cs.Removed))
	for _, path := range cs.Removed {
		rec := m.Files[path]
		removals = append(removals, commitOp{path: path, deletes: append([]string(nil), rec.ChunkIDs...)})
	}
	g.Go(func() error {
		for _, op := range removals {
			if err := send(gctx, commits, op); err != nil {
				return err
			}
		}
		return nil
	})

	// Snapshot prior chunk IDs up front; the committer mutates m.Files while
	// workers run.
	work := append(append([]string(nil), cs.Added...), cs.Modified...)
	oldChunks := make(map[string][]string, len(work))
	for _, path := range work {
		if rec, ok := m.Files[path]; ok {
			oldChunks[path] = rec.ChunkIDs
		}
	}

	semaphore := make(chan struct{}, workers)
	for _, path := range work {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			op, failure := idx.prepare(gctx, entries[path], oldChunks[path])
			if failure != nil {
				mu.Lock()
				report.Failed = append(report.Failed, *failure)
				report.FilesFailed++
				mu.Unlock()
				idx.logger.Warn("file skipped",
					zap.String("path", failure.Path),
					zap.String("stage", failure.Stage),
					zap.Error(failure.Err))
				// A wrong vector dimension is a config problem, not a
				// transient one; no other file can succeed either.
				if errors.Is(failure.Err, types.ErrDimensionMismatch) {
					return failure.Err
				}
				return nil
			}
			return send(gctx, commits, op)
		})
	}

	werr := g.Wait()
	close(commits)
	committerDone.Wait()

	if commitErr != nil {
		return commitErr
	}
	return werr
}

// prepare reads, chunks, and embeds one file. It never writes; the returned
// op holds everything the committer needs. On failure the file is skipped
// for this run and its previous committed state stays valid.
func (idx *Indexer) prepare(ctx context.Context, entry scanner.FileEntry, prior []string) (commitOp, *types.FileFailure) {
	fail := func(stage string, err error) (commitOp, *types.FileFailure) {
		return commitOp{}, &types.FileFailure{Path: entry.Path, Stage: stage, Err: err}
	}

	data, err := os.ReadFile(entry.AbsPath)
	if err != nil {
		return fail(types.StageScan, err)
	}

	chunks, err := idx.chunker.Chunk(ctx, entry.Path, data)
	if err != nil {
		return fail(types.StageParse, err)
	}

	oldIDs := make(map[string]bool, len(prior))
	for _, id := range prior {
		oldIDs[id] = true
	}

	// Chunks whose ID survives the edit keep their stored vector.
	newIDs := make(map[string]bool, len(chunks))
	var toEmbed []types.Chunk
	for _, ch := range chunks {
		newIDs[ch.ID] = true
		if !oldIDs[ch.ID] {
			toEmbed = append(toEmbed, ch)
		}
	}

	vectors, err := idx.dispatcher.EmbedChunks(ctx, toEmbed)
	if err != nil {
		return fail(types.StageEmbed, err)
	}

	upserts := make([]store.Entry, len(toEmbed))
	for i, ch := range toEmbed {
		upserts[i] = store.Entry{
			ID:      ch.ID,
			Vector:  vectors[i],
			Content: ch.Content,
			Payload: store.Payload{
				Path:      ch.Path,
				StartLine: ch.Span.StartLine,
				EndLine:   ch.Span.EndLine,
				Kind:      string(ch.Kind),
			},
		}
	}

	var deletes []string
	for id := range oldIDs {
		if !newIDs[id] {
			deletes = append(deletes, id)
		}
	}

	chunkIDs := make([]string, len(chunks))
	for i, ch := range chunks {
		chunkIDs[i] = ch.ID
	}

	return commitOp{
		path: entry.Path,
		record: &manifest.FileRecord{
			Path:      entry.Path,
			Hash:      entry.Hash,
			Size:      entry.Size,
			ModTime:   entry.ModTime,
			ChunkIDs:  chunkIDs,
			IndexedAt: time.Now(),
		},
		deletes: deletes,
		upserts: upserts,
	}, nil
}

// commit makes one file's changes durable: store writes first, then the
// manifest checkpoint. Replaying an op after a crash is harmless because
// chunk IDs are content-derived and upserts overwrite.
//
// A store write failure is returned as a FileFailure: the file's manifest
// entry stays untouched, so the next run retries it, and other files keep
// committing. Only a manifest checkpoint failure aborts the run.
func (idx *Indexer) commit(ctx context.Context, m *manifest.Manifest, op commitOp, report *Report) (*types.FileFailure, error) {
	storeFail := func(err error) *types.FileFailure {
		return &types.FileFailure{Path: op.path, Stage: types.StageStore, Err: err}
	}

	if len(op.deletes) > 0 {
		if err := idx.store.Delete(ctx, op.deletes); err != nil {
			return storeFail(fmt.Errorf("deleting chunks: %w", err)), nil
		}
	}
	if len(op.upserts) > 0 {
		if err := idx.store.Upsert(ctx, op.upserts); err != nil {
			return storeFail(fmt.Errorf("storing chunks: %w", err)), nil
		}
	}

	if op.record == nil {
		delete(m.Files, op.path)
		report.FilesRemoved++
	} else {
		m.Files[op.path] = op.record
		report.FilesIndexed++
	}
	report.ChunksCreated += len(op.upserts)
	report.ChunksDeleted += len(op.deletes)

	if err := m.Save(idx.manifestPath); err != nil {
		return nil, fmt.Errorf("%s: checkpointing manifest: %w", op.path, err)
	}
	return nil, nil
}

func send(ctx context.Context, ch chan<- commitOp, op commitOp) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case ch <- op:
		return nil
	}
}

func emit(fn func(Event), ev Event) {
	if fn != nil {
		fn(ev)
	}
}
