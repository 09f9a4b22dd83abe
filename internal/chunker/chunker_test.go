package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/internal/parser"
	"github.com/qsearch/qsearch/pkg/types"
)

func newTestChunker(t *testing.T, mutate func(*config.Config)) *Chunker {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return New(parser.New(), cfg, zap.NewNop())
}

func TestChunk_GoSource(t *testing.T) {
	src := []byte(`package main

func Add(a, b int) int {
	return a + b
}

func Sub(a, b int) int {
	return a - b
}
`)

	c := newTestChunker(t, nil)
	chunks, err := c.Chunk(context.Background(), "math.go", src)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	for _, ch := range chunks {
		assert.Equal(t, types.KindFunction, ch.Kind)
		assert.Equal(t, "math.go", ch.Path)
		assert.Equal(t, string(src[ch.Span.StartByte:ch.Span.EndByte]), ch.Content)
		assert.NoError(t, ch.Validate())
	}
	assert.Equal(t, 3, chunks[0].Span.StartLine)
	assert.Equal(t, 5, chunks[0].Span.EndLine)
	assert.Equal(t, 7, chunks[1].Span.StartLine)

	// Spans never overlap.
	assert.LessOrEqual(t, chunks[0].Span.EndByte, chunks[1].Span.StartByte)
}

func TestChunk_Deterministic(t *testing.T) {
	src := []byte("package main\n\nfunc F() {}\n")
	c := newTestChunker(t, nil)

	a, err := c.Chunk(context.Background(), "f.go", src)
	require.NoError(t, err)
	b, err := c.Chunk(context.Background(), "f.go", src)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
	}
}

func TestChunk_PlainTextFallsBackToWindows(t *testing.T) {
	src := []byte(strings.Repeat("the quick brown fox\n", 10))
	c := newTestChunker(t, func(cfg *config.Config) {
		cfg.ChunkSize = 50
		cfg.ChunkOverlap = 10
	})

	chunks, err := c.Chunk(context.Background(), "notes.md", src)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	assert.Equal(t, 0, chunks[0].Span.StartByte)
	assert.Equal(t, len(src), chunks[len(chunks)-1].Span.EndByte)
	for _, ch := range chunks {
		assert.Equal(t, types.KindTextWindow, ch.Kind)
		assert.Equal(t, string(src[ch.Span.StartByte:ch.Span.EndByte]), ch.Content)
		assert.LessOrEqual(t, ch.Span.Len(), 50)
	}
}

func TestChunk_OversizedDefinitionResplit(t *testing.T) {
	var b strings.Builder
	b.WriteString("package main\n\nfunc Big() {\n")
	for i := 0; i < 30; i++ {
		b.WriteString("\tprintln(\"padding line to inflate the body\")\n")
	}
	b.WriteString("}\n")
	src := []byte(b.String())

	c := newTestChunker(t, func(cfg *config.Config) {
		cfg.ChunkSize = 100
		cfg.ChunkOverlap = 20
	})
	chunks, err := c.Chunk(context.Background(), "big.go", src)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.Equal(t, types.KindFunction, ch.Kind)
		assert.Equal(t, string(src[ch.Span.StartByte:ch.Span.EndByte]), ch.Content)
		assert.GreaterOrEqual(t, ch.Span.StartLine, 3)
	}
}

func TestChunk_EmptyFile(t *testing.T) {
	c := newTestChunker(t, nil)
	chunks, err := c.Chunk(context.Background(), "empty.go", nil)
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestNormalizeSpans(t *testing.T) {
	spans := []types.SemanticSpan{
		{Span: types.Span{StartByte: 120, EndByte: 130}, Kind: types.KindFunction},
		{Span: types.Span{StartByte: 0, EndByte: 100}, Kind: types.KindClass},
		{Span: types.Span{StartByte: 50, EndByte: 150}, Kind: types.KindFunction},
		{Span: types.Span{StartByte: 10, EndByte: 20}, Kind: types.KindMethod},
	}

	got := normalizeSpans(spans)
	require.Len(t, got, 2)

	// First span wins whole; the partial overlap is clipped to start where
	// it ended; contained spans are dropped.
	assert.Equal(t, 0, got[0].StartByte)
	assert.Equal(t, 100, got[0].EndByte)
	assert.Equal(t, 100, got[1].StartByte)
	assert.Equal(t, 150, got[1].EndByte)
}

func TestChunk_NestedDefinitionsDropped(t *testing.T) {
	src := []byte(`class Greeter:
    def hello(self):
        return "hi"
`)

	c := newTestChunker(t, nil)
	chunks, err := c.Chunk(context.Background(), "app.py", src)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, types.KindClass, chunks[0].Kind)
}
