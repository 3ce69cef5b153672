package chunker

import (
	"strings"

	"esgrag/internal/domain"
)

// separators are tried in order when looking for a break inside a window.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune(", "),
	[]rune(" "),
}

// CharChunker splits text into overlapping retrieval passages. Sizes are
// counted in runes.
type CharChunker struct {
	size    int
	overlap int
}

// NewCharChunker returns a chunker producing passages of at most size runes
// sharing overlap runes with their predecessor. Callers validate
// 0 <= overlap < size.
func NewCharChunker(size, overlap int) *CharChunker {
	return &CharChunker{
		size:    size,
		overlap: overlap,
	}
}

// Chunk returns the passages of text in document order. Empty text yields no
// passages.
func (c *CharChunker) Chunk(text string) []domain.Chunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []domain.Chunk
	start := 0

	for {
		end := min(start+c.size, n)
		if end < n {
			end = c.breakPoint(runes, start, end)
		}

		chunks = append(chunks, domain.Chunk{
			Index: len(chunks),
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})

		if end >= n {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// breakPoint returns the end of the passage starting at start. The break is
// placed after the last preferred separator found in the back half of the
// window, far enough in that the next passage still advances.
func (c *CharChunker) breakPoint(runes []rune, start, end int) int {
	lo := start + max(c.overlap+1, c.size/2)
	if lo >= end {
		return end
	}

	window := runes[lo:end]
	for _, sep := range separators {
		if i := lastIndex(window, sep); i >= 0 {
			return lo + i + len(sep)
		}
	}
	return end
}

func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j, r := range sep {
			if s[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// Reassemble rebuilds the source text from consecutive passages by appending
// each passage's non-overlapping tail.
func Reassemble(chunks []domain.Chunk) string {
	var b strings.Builder
	covered := 0
	for _, ch := range chunks {
		runes := []rune(ch.Text)
		if skip := covered - ch.Start; skip > 0 {
			runes = runes[min(skip, len(runes)):]
		}
		b.WriteString(string(runes))
		covered = max(covered, ch.End)
	}
	return b.String()
}
