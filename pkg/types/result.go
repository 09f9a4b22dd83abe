package types

// SearchResult is one ranked hit returned by the query engine, after
// per-file merging and context assembly.
type SearchResult struct {
	// Path of the owning file, relative to the workspace root.
	Path string

	// Span covers the matched chunk, or the union of merged chunks when
	// several hits from one file collapsed into a single result.
	Span Span

	Kind ChunkKind

	// Score is the cosine similarity of the best contributing chunk.
	Score float32

	// Lines is the display context: the chunk's line range expanded by the
	// requested context lines, clipped to the file's bounds. Empty when the
	// file could not be read back.
	Lines []ContextLine
}

// ContextLine is a single display line of a search result.
type ContextLine struct {
	// Number is the 1-based line number within the file.
	Number int

	Text string

	// Match marks lines inside the chunk span, as opposed to surrounding
	// context.
	Match bool
}
