package chunker

import (
	"bytes"
	"sort"
)

// splitWindows returns [start, end) byte ranges covering src. Each window is
// at most size bytes and consecutive windows share overlap bytes. When a
// newline falls in the last quarter of a window the window breaks there, so
// cuts land on line boundaries where the text allows it. The final window is
// clipped to the end of src.
func splitWindows(src []byte, size, overlap int) [][2]int {
	if len(src) == 0 {
		return nil
	}
	if size <= 0 {
		size = 1
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var out [][2]int
	start := 0
	for start < len(src) {
		end := start + size
		if end >= len(src) {
			out = append(out, [2]int{start, len(src)})
			break
		}
		if i := bytes.LastIndexByte(src[start:end], '\n'); i+1 > size-size/4 {
			end = start + i + 1
		}
		out = append(out, [2]int{start, end})

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	starts := lineIndex{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (li lineIndex) lineAt(off int) int {
	if off < 0 {
		return 1
	}
	return sort.Search(len(li), func(i int) bool { return li[i] > off })
}
