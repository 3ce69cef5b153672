package port

import "esgrag/internal/domain"

// Chunker splits document text into overlapping retrieval passages.
type Chunker interface {
	Chunk(text string) []domain.Chunk
}

// BlockChunker splits document text into paragraph-aligned analysis blocks.
type BlockChunker interface {
	Blocks(text string) []domain.Block
}
