package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ChunkKind labels how a chunk was carved out of its file.
type ChunkKind string

const (
	KindFunction   ChunkKind = "function"
	KindMethod     ChunkKind = "method"
	KindClass      ChunkKind = "class"
	KindType       ChunkKind = "type"
	KindBlock      ChunkKind = "block"
	KindTextWindow ChunkKind = "text-window"
)

// Span locates a chunk within its file. Lines are 1-based and inclusive;
// byte offsets are 0-based with an exclusive end.
type Span struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
	StartByte int `json:"start_byte"`
	EndByte   int `json:"end_byte"`
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.EndByte - s.StartByte
}

// Lines returns the number of lines the span covers.
func (s Span) Lines() int {
	return s.EndLine - s.StartLine + 1
}

// Contains reports whether s fully contains other.
func (s Span) Contains(other Span) bool {
	return s.StartByte <= other.StartByte && other.EndByte <= s.EndByte
}

// Overlaps reports whether the byte ranges of s and other intersect.
func (s Span) Overlaps(other Span) bool {
	return s.StartByte < other.EndByte && other.StartByte < s.EndByte
}

// Chunk is the unit of embedding and retrieval: a semantically or
// positionally bounded slice of one file.
type Chunk struct {
	// ID is deterministic from path, span, and content hash, so
	// re-extracting unchanged content reproduces the same ID.
	ID string

	// Path is the owning file, relative to the workspace root, slash-separated.
	Path string

	Span Span
	Kind ChunkKind

	// Content is the exact span text.
	Content string

	// ContentHash is the hex SHA-256 of Content.
	ContentHash string
}

// HashBytes returns the hex SHA-256 fingerprint of raw bytes. The same
// function fingerprints whole files and chunk contents: hash equality is
// treated as content equality everywhere.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// DeriveChunkID computes the stable chunk ID from the owning path, the span,
// and the content hash. A content change forces a new ID even when the span
// is identical.
func DeriveChunkID(path string, span Span, contentHash string) string {
	key := fmt.Sprintf("%s\x00%d\x00%d\x00%s", path, span.StartByte, span.EndByte, contentHash)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// Seal computes the chunk's content hash and ID from its current fields.
func (c *Chunk) Seal() {
	c.ContentHash = HashBytes([]byte(c.Content))
	c.ID = DeriveChunkID(c.Path, c.Span, c.ContentHash)
}

// Validate performs basic consistency checks on the chunk.
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}
	if c.Span.StartLine <= 0 || c.Span.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}
	if c.Span.StartLine > c.Span.EndLine {
		return errors.New("start line must be before or equal to end line")
	}
	if c.Span.StartByte < 0 || c.Span.EndByte <= c.Span.StartByte {
		return errors.New("byte span must be non-empty")
	}
	if c.ContentHash == "" || c.ID == "" {
		return errors.New("chunk must be sealed before use")
	}
	return nil
}

// SemanticSpan is a parser-produced definition boundary, before it becomes
// a chunk.
type SemanticSpan struct {
	Span
	Kind ChunkKind
	Name string
}
