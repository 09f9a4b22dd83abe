// Package status summarizes index health without modifying anything.
package status

import (
	"context"

	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/internal/manifest"
	"github.com/qsearch/qsearch/internal/scanner"
	"github.com/qsearch/qsearch/internal/store"
	"github.com/qsearch/qsearch/internal/workspace"

	"go.uber.org/zap"
)

// Status describes the current index against the current working tree.
type Status struct {
	Model     string
	Dimension int
	Store     string

	// FileCount and ChunkCount come from the manifest.
	FileCount  int
	ChunkCount int

	// VectorCount comes from the store; it differs from ChunkCount only
	// after an interrupted run.
	VectorCount int

	// StaleFiles is how many files a run would index or remove right now.
	StaleFiles int

	// ExcludedFiles is how many files the scanner rejected.
	ExcludedFiles int
}

// Report computes the status of the workspace at root. It scans the tree and
// diffs against the manifest but commits nothing.
func Report(ctx context.Context, root string, cfg *config.Config, st store.VectorStore, logger *zap.Logger) (*Status, error) {
	m, err := manifest.Load(workspace.ManifestPath(root), cfg)
	if err != nil {
		return nil, err
	}

	sc, err := scanner.New(root, cfg, logger)
	if err != nil {
		return nil, err
	}
	scan, err := sc.Scan(ctx)
	if err != nil {
		return nil, err
	}

	vectors, err := st.Count(ctx)
	if err != nil {
		return nil, err
	}

	cs := manifest.Diff(scan.HashByPath(), m)
	return &Status{
		Model:         m.Config.Model,
		Dimension:     m.Config.Dimension,
		Store:         cfg.Store,
		FileCount:     len(m.Files),
		ChunkCount:    m.ChunkCount(),
		VectorCount:   vectors,
		StaleFiles:    cs.Total(),
		ExcludedFiles: len(scan.Excluded),
	}, nil
}
