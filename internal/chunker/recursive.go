package chunker

import (
	"fmt"
	"strconv"

	"github.com/tmc/langchaingo/textsplitter"

	"movierag/internal/domain"
)

// Separators are tried in order: paragraph, line, word, character.
var Separators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker splits documents on decreasing separator granularity until
// every piece fits in chunkSize characters, repeating up to chunkOverlap
// characters of context between consecutive pieces.
type RecursiveChunker struct {
	splitter textsplitter.RecursiveCharacter
}

func NewRecursiveChunker(chunkSize, chunkOverlap int) (*RecursiveChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, chunkOverlap)
	}
	return &RecursiveChunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(Separators),
		),
	}, nil
}

// Split chunks every document and returns a single flat sequence.
// Chunk IDs are chunk_0..chunk_n-1 across all documents.
func (c *RecursiveChunker) Split(documents []domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, d := range documents {
		texts, err := c.splitter.SplitText(d.Content)
		if err != nil {
			return nil, fmt.Errorf("split document %s: %w", d.ID, err)
		}
		for _, text := range texts {
			if text == "" {
				continue
			}
			idx := len(chunks)
			chunks = append(chunks, domain.Chunk{
				ID:         "chunk_" + strconv.Itoa(idx),
				DocumentID: d.ID,
				Text:       text,
				Index:      idx,
			})
		}
	}
	return chunks, nil
}
