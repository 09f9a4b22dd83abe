package embedder

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
)

// MockEmbedder is a deterministic in-process embedder. The same text always
// produces the same unit vector, and distinct texts almost always differ,
// which is all the index pipeline needs in tests and offline runs.
type MockEmbedder struct {
	dimension int

	mu       sync.Mutex
	failNext int
	calls    int
}

// NewMock creates a deterministic embedder producing vectors of the given
// dimension.
func NewMock(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

// FailNext makes the next n batch calls return an error. Used to exercise
// retry and skip paths.
func (m *MockEmbedder) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
}

// Calls returns how many batch calls have been made.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateTexts(texts); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls++
	if m.failNext > 0 {
		m.failNext--
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: injected failure", ErrProviderFailed)
	}
	m.mu.Unlock()

	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = m.vector(t)
	}
	return vecs, nil
}

// vector derives a unit vector from repeated hashing of the text.
func (m *MockEmbedder) vector(text string) []float32 {
	v := make([]float32, m.dimension)
	var block [32]byte
	for i := 0; i < m.dimension; i += len(block) {
		block = sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d", text, i)))
		for j := 0; j < len(block) && i+j < m.dimension; j++ {
			v[i+j] = float32(block[j])/127.5 - 1
		}
	}
	return NormalizeVector(v)
}

func (m *MockEmbedder) Dimension() int { return m.dimension }
func (m *MockEmbedder) Model() string  { return "mock-embeddings" }
func (m *MockEmbedder) Close() error   { return nil }
