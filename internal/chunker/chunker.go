package chunker

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/internal/parser"
	"github.com/qsearch/qsearch/pkg/types"
)

// Chunker turns file contents into embeddable chunks. Files with a
// registered grammar are split along definition boundaries; everything else
// falls back to fixed-size overlapping windows.
type Chunker struct {
	parser    *parser.Parser
	chunkSize int
	overlap   int
	logger    *zap.Logger
}

// New creates a chunker using the sizing knobs from cfg.
func New(p *parser.Parser, cfg *config.Config, logger *zap.Logger) *Chunker {
	return &Chunker{
		parser:    p,
		chunkSize: cfg.ChunkSize,
		overlap:   cfg.ChunkOverlap,
		logger:    logger,
	}
}

// Chunk extracts chunks from one file. A parse failure is not fatal: the
// file degrades to windowed chunks so one broken source file cannot stall
// an indexing run. Returned chunks are sealed and ordered by start offset.
func (c *Chunker) Chunk(ctx context.Context, path string, src []byte) ([]types.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return nil, nil
	}

	li := newLineIndex(src)
	if c.parser.Supports(path) {
		spans, err := c.parser.Parse(ctx, path, src)
		if err != nil {
			c.logger.Warn("parse failed, using windowed chunks",
				zap.String("path", path), zap.Error(err))
		} else if len(spans) > 0 {
			return c.semanticChunks(path, src, li, spans), nil
		}
	}
	return c.windowChunks(path, src, li, 0, types.KindTextWindow), nil
}

// semanticChunks normalizes parser spans into a non-overlapping sequence and
// materializes each as a chunk. Spans more than twice the configured chunk
// size are re-split into windows so a single giant definition cannot blow
// the embedding payload.
func (c *Chunker) semanticChunks(path string, src []byte, li lineIndex, spans []types.SemanticSpan) []types.Chunk {
	spans = normalizeSpans(spans)

	var chunks []types.Chunk
	for _, sp := range spans {
		if sp.Len() > 2*c.chunkSize {
			sub := src[sp.StartByte:sp.EndByte]
			chunks = append(chunks, c.windowChunks(path, sub, li, sp.StartByte, sp.Kind)...)
			continue
		}
		chunks = append(chunks, c.build(path, src, li, sp.Span, sp.Kind))
	}
	return chunks
}

// windowChunks slices src into overlapping windows. base is the byte offset
// of src within the original file; li indexes the original file.
func (c *Chunker) windowChunks(path string, src []byte, li lineIndex, base int, kind types.ChunkKind) []types.Chunk {
	var chunks []types.Chunk
	for _, w := range splitWindows(src, c.chunkSize, c.overlap) {
		sp := types.Span{StartByte: base + w[0], EndByte: base + w[1]}
		chunks = append(chunks, c.buildFrom(path, src, w[0], li, sp, kind))
	}
	return chunks
}

// build materializes a span of the whole file as a sealed chunk.
func (c *Chunker) build(path string, src []byte, li lineIndex, sp types.Span, kind types.ChunkKind) types.Chunk {
	return c.buildFrom(path, src, sp.StartByte, li, sp, kind)
}

// buildFrom materializes a chunk whose content starts at local offset
// localStart within src, while sp carries file-absolute offsets.
func (c *Chunker) buildFrom(path string, src []byte, localStart int, li lineIndex, sp types.Span, kind types.ChunkKind) types.Chunk {
	sp.StartLine = li.lineAt(sp.StartByte)
	sp.EndLine = li.lineAt(sp.EndByte - 1)
	ch := types.Chunk{
		Path:    path,
		Span:    sp,
		Kind:    kind,
		Content: string(src[localStart : localStart+sp.Len()]),
	}
	ch.Seal()
	return ch
}

// normalizeSpans sorts spans by start offset and resolves overlap: a span
// fully contained in an earlier kept span is dropped, and a partial overlap
// is clipped so the later span begins where the earlier one ended. Line
// numbers are recomputed after clipping, so only byte offsets matter here.
func normalizeSpans(spans []types.SemanticSpan) []types.SemanticSpan {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].StartByte != spans[j].StartByte {
			return spans[i].StartByte < spans[j].StartByte
		}
		return spans[i].EndByte > spans[j].EndByte
	})

	kept := spans[:0]
	end := -1
	for _, s := range spans {
		if s.EndByte <= end {
			continue
		}
		if s.StartByte < end {
			s.StartByte = end
		}
		kept = append(kept, s)
		end = s.EndByte
	}
	return kept
}
