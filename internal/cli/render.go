package cli

import (
	"fmt"
	"io"

	"github.com/qsearch/qsearch/pkg/types"
)

// Long results are truncated to the first headLines and last tailLines once
// they exceed maxResultLines.
const (
	maxResultLines = 12
	headLines      = 5
	tailLines      = 3
)

func renderResults(w io.Writer, results []types.SearchResult) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		renderResult(w, i+1, r)
	}
}

func renderResult(w io.Writer, rank int, r types.SearchResult) {
	header := fmt.Sprintf("%d. %s:%d-%d  score %.3f", rank, r.Path, r.Span.StartLine, r.Span.EndLine, r.Score)
	if r.Kind != "" {
		header += fmt.Sprintf("  [%s]", r.Kind)
	}
	fmt.Fprintln(w, header)

	lines := r.Lines
	if len(lines) <= maxResultLines {
		renderLines(w, lines)
		return
	}

	renderLines(w, lines[:headLines])
	fmt.Fprintf(w, "   ... %d lines omitted ...\n", len(lines)-headLines-tailLines)
	renderLines(w, lines[len(lines)-tailLines:])
}

func renderLines(w io.Writer, lines []types.ContextLine) {
	for _, l := range lines {
		marker := " "
		if l.Match {
			marker = ">"
		}
		fmt.Fprintf(w, " %s %4d | %s\n", marker, l.Number, l.Text)
	}
}
