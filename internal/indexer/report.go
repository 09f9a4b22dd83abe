package indexer

import (
	"time"

	"github.com/qsearch/qsearch/internal/scanner"
	"github.com/qsearch/qsearch/pkg/types"
)

// Report summarizes one indexing run.
type Report struct {
	Mode Mode

	FilesScanned   int
	FilesIndexed   int
	FilesRemoved   int
	FilesUnchanged int
	FilesFailed    int

	ChunksCreated int
	ChunksDeleted int

	Excluded []scanner.Excluded
	Failed   []types.FileFailure

	Duration time.Duration
}

// Event reports progress during a run. Done counts completed units of the
// named phase out of Total.
type Event struct {
	Phase string // "scan", "index", "remove"
	Path  string
	Done  int
	Total int
}
