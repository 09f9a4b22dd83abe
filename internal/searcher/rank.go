package searcher

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/qsearch/qsearch/internal/store"
	"github.com/qsearch/qsearch/pkg/types"
)

// assemble turns raw store matches into ranked, merged, context-decorated
// results, truncated to opts.Limit.
func (s *Searcher) assemble(matches []store.Match, opts QueryOptions) []types.SearchResult {
	merged := mergeMatches(matches, opts.ContextLines)

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		li, lj := merged[i].Span.Lines(), merged[j].Span.Lines()
		if li != lj {
			return li < lj
		}
		return merged[i].Path < merged[j].Path
	})
	if len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}

	// Read each file once; results for a vanished or rewritten file keep
	// their location but lose context lines.
	lineCache := make(map[string][]string)
	for i := range merged {
		merged[i].Lines = s.contextLines(lineCache, merged[i], opts.ContextLines)
	}
	return merged
}

// mergeMatches groups hits by file and merges those whose context-expanded
// line ranges overlap or touch, so one edit site never yields a stack of
// near-duplicate results. The merged result keeps the best score and the
// kind of its best-scoring member.
func mergeMatches(matches []store.Match, contextLines int) []types.SearchResult {
	byPath := make(map[string][]store.Match)
	var paths []string
	for _, match := range matches {
		p := match.Payload.Path
		if _, ok := byPath[p]; !ok {
			paths = append(paths, p)
		}
		byPath[p] = append(byPath[p], match)
	}

	var out []types.SearchResult
	for _, p := range paths {
		group := byPath[p]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Payload.StartLine < group[j].Payload.StartLine
		})

		cur := resultFrom(group[0])
		for _, match := range group[1:] {
			// Adjacent means the expanded ranges touch.
			if match.Payload.StartLine-contextLines <= cur.Span.EndLine+contextLines+1 {
				if match.Payload.EndLine > cur.Span.EndLine {
					cur.Span.EndLine = match.Payload.EndLine
				}
				if match.Score > cur.Score {
					cur.Score = match.Score
					cur.Kind = types.ChunkKind(match.Payload.Kind)
				}
				continue
			}
			out = append(out, cur)
			cur = resultFrom(match)
		}
		out = append(out, cur)
	}
	return out
}

func resultFrom(m store.Match) types.SearchResult {
	return types.SearchResult{
		Path: m.Payload.Path,
		Span: types.Span{
			StartLine: m.Payload.StartLine,
			EndLine:   m.Payload.EndLine,
		},
		Kind:  types.ChunkKind(m.Payload.Kind),
		Score: m.Score,
	}
}

// contextLines reads the result's surrounding lines from the working tree,
// clipping the window to the file. Hit lines are flagged.
func (s *Searcher) contextLines(cache map[string][]string, r types.SearchResult, context int) []types.ContextLine {
	lines, ok := cache[r.Path]
	if !ok {
		data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(r.Path)))
		if err != nil {
			s.logger.Debug("context unavailable", zap.String("path", r.Path), zap.Error(err))
			cache[r.Path] = nil
			return nil
		}
		lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
		cache[r.Path] = lines
	}
	if lines == nil {
		return nil
	}

	start := r.Span.StartLine - context
	if start < 1 {
		start = 1
	}
	end := r.Span.EndLine + context
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return nil
	}

	out := make([]types.ContextLine, 0, end-start+1)
	for n := start; n <= end; n++ {
		out = append(out, types.ContextLine{
			Number: n,
			Text:   lines[n-1],
			Match:  n >= r.Span.StartLine && n <= r.Span.EndLine,
		})
	}
	return out
}
