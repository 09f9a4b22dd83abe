package embedder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/pkg/types"
)

func makeChunks(n int) []types.Chunk {
	chunks := make([]types.Chunk, n)
	for i := range chunks {
		chunks[i] = types.Chunk{
			Path:    "f.go",
			Span:    types.Span{StartLine: 1, EndLine: 1, StartByte: i * 10, EndByte: i*10 + 5},
			Kind:    types.KindBlock,
			Content: fmt.Sprintf("chunk content %d", i),
		}
		chunks[i].Seal()
	}
	return chunks
}

func newTestDispatcher(m *MockEmbedder, batchSize int) *Dispatcher {
	cfg := config.Default()
	cfg.BatchSize = batchSize
	d := NewDispatcher(m, cfg, zap.NewNop())
	d.retry.BaseDelay = time.Millisecond
	return d
}

func TestDispatcher_SplitsBatches(t *testing.T) {
	m := NewMock(16)
	d := newTestDispatcher(m, 4)

	chunks := makeChunks(10)
	vecs, err := d.EmbedChunks(context.Background(), chunks)
	require.NoError(t, err)
	require.Len(t, vecs, 10)
	assert.Equal(t, 3, m.Calls())

	// Vectors align with chunks.
	for i, ch := range chunks {
		want, err := m.Embed(context.Background(), ch.Content)
		require.NoError(t, err)
		assert.Equal(t, want, vecs[i])
	}
}

func TestDispatcher_RetriesOnce(t *testing.T) {
	m := NewMock(16)
	m.FailNext(1)
	d := newTestDispatcher(m, 50)

	vecs, err := d.EmbedChunks(context.Background(), makeChunks(3))
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, 2, m.Calls())
}

func TestDispatcher_PersistentFailure(t *testing.T) {
	m := NewMock(16)
	m.FailNext(10)
	d := newTestDispatcher(m, 50)

	_, err := d.EmbedChunks(context.Background(), makeChunks(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProviderFailed))
	assert.Equal(t, 2, m.Calls())
}

type skewedEmbedder struct {
	*MockEmbedder
	claim int
}

func (s *skewedEmbedder) Dimension() int { return s.claim }

func TestDispatcher_DimensionMismatch(t *testing.T) {
	s := &skewedEmbedder{MockEmbedder: NewMock(16), claim: 32}
	d := newTestDispatcher(s.MockEmbedder, 50)
	d.emb = s

	_, err := d.EmbedChunks(context.Background(), makeChunks(2))
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestDispatcher_EmptyInput(t *testing.T) {
	d := newTestDispatcher(NewMock(8), 10)
	vecs, err := d.EmbedChunks(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}
