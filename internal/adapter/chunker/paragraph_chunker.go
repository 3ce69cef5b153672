package chunker

import (
	"strings"
	"unicode/utf8"

	"esgrag/internal/domain"
)

const paragraphSep = "\n\n"

// ParagraphChunker groups paragraphs into large analysis blocks for scoring.
// A paragraph is never split across blocks.
type ParagraphChunker struct {
	blockSize int
}

// NewParagraphChunker returns a chunker that closes a block before it would
// reach blockSize characters.
func NewParagraphChunker(blockSize int) *ParagraphChunker {
	return &ParagraphChunker{blockSize: blockSize}
}

// Blocks returns the analysis blocks of text. Every paragraph is followed by
// a blank line inside its block. Empty text yields a single block.
func (c *ParagraphChunker) Blocks(text string) []domain.Block {
	var (
		blocks []domain.Block
		cur    strings.Builder
		curLen int
	)

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		blocks = append(blocks, domain.Block{Index: len(blocks), Text: cur.String()})
		cur.Reset()
		curLen = 0
	}

	for _, para := range strings.Split(text, paragraphSep) {
		paraLen := utf8.RuneCountInString(para)
		if curLen+paraLen >= c.blockSize {
			flush()
		}
		cur.WriteString(para)
		cur.WriteString(paragraphSep)
		curLen += paraLen + len(paragraphSep)
	}
	flush()

	if len(blocks) == 0 {
		blocks = append(blocks, domain.Block{Index: 0, Text: text})
	}
	return blocks
}
