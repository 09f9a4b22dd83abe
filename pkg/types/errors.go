package types

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the failure taxonomy of an index run. Per-file
// failures are collected into the run report; only manifest I/O and config
// mismatches abort a run.
var (
	// ErrNotInWorkspace is returned when no .qsearch directory is found
	// walking up from the starting path.
	ErrNotInWorkspace = errors.New("not in a qsearch workspace (no .qsearch directory found)")

	// ErrAlreadyInitialized is returned by init when a workspace exists.
	ErrAlreadyInitialized = errors.New("workspace already initialized")

	// ErrUnsupportedLanguage is returned by the parser capability when no
	// grammar is registered for a file's language tag.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrConfigMismatch is returned when the manifest's config snapshot
	// disagrees with the active config on model or dimension. Incremental
	// updates must stop; an explicit full reindex is required.
	ErrConfigMismatch = errors.New("index configuration mismatch: model or dimension changed, full reindex required")

	// ErrDimensionMismatch is returned when the embedding capability yields
	// vectors of a different dimension than configured. Fatal for the run.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexInProgress is returned when another index run holds the lock.
	ErrIndexInProgress = errors.New("another index run is in progress")

	// ErrNotIndexed is returned by similar-file queries when the target
	// file has no committed chunks in the manifest.
	ErrNotIndexed = errors.New("file is not indexed")
)

// Failure stages, recorded per file in the run report.
const (
	StageScan  = "scan"
	StageParse = "parse"
	StageEmbed = "embed"
	StageStore = "store"
)

// FileFailure records a non-fatal per-file failure during an index run.
// The file's prior manifest entry is left untouched and the file is retried
// on the next update.
type FileFailure struct {
	Path  string
	Stage string
	Err   error
}

func (f FileFailure) String() string {
	return fmt.Sprintf("%s: %s failed: %v", f.Path, f.Stage, f.Err)
}

// Unwrap exposes the underlying error so errors.Is sees through a failure.
func (f FileFailure) Unwrap() error {
	return f.Err
}
