package embedder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/pkg/types"
)

// Dispatcher feeds chunk contents to an Embedder in bounded batches. Each
// batch gets its own timeout and one retry with backoff. A batch that still
// fails makes the whole call fail, so the caller can leave the file's last
// committed state untouched and retry it on the next run.
type Dispatcher struct {
	emb       Embedder
	batchSize int
	timeout   time.Duration
	retry     RetryConfig
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher using batch sizing from cfg.
func NewDispatcher(e Embedder, cfg *config.Config, logger *zap.Logger) *Dispatcher {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = config.DefaultBatchSize
	}
	timeout := time.Duration(cfg.BatchTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = config.DefaultBatchTimeoutSeconds * time.Second
	}
	return &Dispatcher{
		emb:       e,
		batchSize: batch,
		timeout:   timeout,
		retry:     defaultRetryConfig(),
		logger:    logger,
	}
}

// EmbedChunks returns one vector per chunk, aligned by index. Every vector is
// checked against the embedder's dimension; a mismatch reports
// types.ErrDimensionMismatch and is not retried, since the configuration is
// wrong rather than the network.
func (d *Dispatcher) EmbedChunks(ctx context.Context, chunks []types.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += d.batchSize {
		end := start + d.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.Content)
		}

		batch, err := d.embedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end-1, err)
		}

		want := d.emb.Dimension()
		for i, v := range batch {
			if len(v) != want {
				return nil, fmt.Errorf("%w: chunk %s produced %d, expected %d",
					types.ErrDimensionMismatch, chunks[start+i].ID, len(v), want)
			}
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (d *Dispatcher) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	bctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	vecs, err := retryWithBackoff(bctx, d.retry, func() ([][]float32, error) {
		return d.emb.EmbedBatch(bctx, texts)
	})
	if err != nil {
		d.logger.Warn("embedding batch failed",
			zap.Int("texts", len(texts)), zap.Error(err))
		return nil, err
	}
	return vecs, nil
}
