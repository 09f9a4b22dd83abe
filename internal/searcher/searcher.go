package searcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/internal/embedder"
	"github.com/qsearch/qsearch/internal/manifest"
	"github.com/qsearch/qsearch/internal/store"
	"github.com/qsearch/qsearch/internal/workspace"
	"github.com/qsearch/qsearch/pkg/types"
)

// ErrEmptyQuery is returned for a blank search query.
var ErrEmptyQuery = errors.New("query cannot be empty")

// QueryOptions tune one query.
type QueryOptions struct {
	// Limit is the maximum number of results (default 10).
	Limit int
	// ContextLines is how many lines to include around each hit (default 2).
	// Use a negative value for the default; zero means no context.
	ContextLines int
}

func (o QueryOptions) normalized() QueryOptions {
	if o.Limit <= 0 {
		o.Limit = config.DefaultResultLimit
	}
	if o.ContextLines < 0 {
		o.ContextLines = config.DefaultContextLines
	}
	return o
}

// Searcher answers queries against a committed index. It only reads: the
// manifest for file records, the store for vectors, and the working tree for
// context lines.
type Searcher struct {
	root         string
	emb          embedder.Embedder
	store        store.VectorStore
	manifestPath string
	cfg          *config.Config
	logger       *zap.Logger
}

// New creates a searcher over an initialized workspace rooted at root.
func New(root string, cfg *config.Config, emb embedder.Embedder, st store.VectorStore, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		root:         root,
		emb:          emb,
		store:        st,
		manifestPath: workspace.ManifestPath(root),
		cfg:          cfg,
		logger:       logger,
	}
}

// Search embeds the query text and returns the closest indexed chunks,
// merged per file and decorated with context lines from the working tree.
func (s *Searcher) Search(ctx context.Context, query string, opts QueryOptions) ([]types.SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	opts = opts.normalized()

	vec, err := s.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Over-fetch: merging can collapse several hits into one result.
	matches, err := s.store.Query(ctx, vec, opts.Limit*3)
	if err != nil {
		return nil, fmt.Errorf("querying store: %w", err)
	}

	return s.assemble(matches, opts), nil
}

// Similar finds files resembling the given file by querying with the
// centroid of its stored chunk vectors. The file itself is excluded from
// results. path is relative to the workspace root.
func (s *Searcher) Similar(ctx context.Context, path string, opts QueryOptions) ([]types.SearchResult, error) {
	opts = opts.normalized()
	path = filepath.ToSlash(path)

	m, err := manifest.Load(s.manifestPath, s.cfg)
	if err != nil {
		return nil, err
	}
	rec, ok := m.Files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, types.ErrNotIndexed)
	}

	entries, err := s.store.Get(ctx, rec.ChunkIDs)
	if err != nil {
		return nil, fmt.Errorf("loading chunk vectors: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", path, types.ErrNotIndexed)
	}

	centroid := meanVector(entries)

	// Over-fetch enough to survive dropping the file's own chunks.
	k := opts.Limit*3 + len(rec.ChunkIDs)
	matches, err := s.store.Query(ctx, centroid, k)
	if err != nil {
		return nil, fmt.Errorf("querying store: %w", err)
	}

	kept := matches[:0]
	for _, match := range matches {
		if match.Payload.Path != path {
			kept = append(kept, match)
		}
	}
	return s.assemble(kept, opts), nil
}

// meanVector averages the entries' vectors.
func meanVector(entries []store.Entry) []float32 {
	dim := len(entries[0].Vector)
	sum := make([]float64, dim)
	for _, e := range entries {
		for i, v := range e.Vector {
			if i < dim {
				sum[i] += float64(v)
			}
		}
	}
	mean := make([]float32, dim)
	for i, v := range sum {
		mean[i] = float32(v / float64(len(entries)))
	}
	return mean
}
