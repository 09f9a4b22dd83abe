package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested entry doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrUnknownBackend is returned for an unrecognized store name.
	ErrUnknownBackend = errors.New("unknown vector store backend")
)

// Payload is the metadata stored alongside each vector, enough to render a
// search hit without reading the manifest.
type Payload struct {
	Path      string
	StartLine int
	EndLine   int
	Kind      string
}

// Entry is one stored vector with its payload.
type Entry struct {
	ID      string
	Vector  []float32
	Content string
	Payload Payload
}

// Match is a similarity query hit. Score is cosine similarity, higher is
// closer.
type Match struct {
	Entry
	Score float32
}

// VectorStore persists chunk vectors keyed by chunk ID. Upsert with an
// existing ID replaces the entry, so replaying a commit is harmless.
type VectorStore interface {
	Upsert(ctx context.Context, entries []Entry) error
	Delete(ctx context.Context, ids []string) error

	// Get returns the entries that exist among ids; missing IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Entry, error)

	// Query returns the k nearest entries to vector, best first.
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)

	Count(ctx context.Context) (int, error)

	// Reset drops every entry.
	Reset(ctx context.Context) error

	Close() error
}
