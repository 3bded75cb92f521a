package domain

import (
	"context"
	"errors"
)

// Document is one dataset row rendered into the text that gets chunked.
type Document struct {
	ID      string
	Title   string
	Plot    string
	Content string
}

// Chunk is a bounded-length piece of a document used for indexing.
type Chunk struct {
	ID         string
	DocumentID string
	Text       string
	Index      int
}

// SearchResult represents a matching chunk with a similarity score.
// Higher scores are more similar.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Answer is the structured response produced for a question.
type Answer struct {
	Answer    string   `json:"answer"`
	Contexts  []string `json:"contexts"`
	Reasoning string   `json:"reasoning"`
}

var (
	ErrDuplicateID         = errors.New("duplicate id")
	ErrDimensionMismatch   = errors.New("vector dimension mismatch")
	ErrLengthMismatch      = errors.New("ids, texts and vectors length mismatch")
	ErrStoreNotInitialized = errors.New("vector store not initialized")
)

// Loader reads the source dataset into documents.
type Loader interface {
	Load(ctx context.Context, path string, rowLimit int) ([]Document, error)
}

// Chunker splits documents into one flat, ordered sequence of chunks.
type Chunker interface {
	Split(documents []Document) ([]Chunk, error)
}

// Embedder converts free text into numeric vectors.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore holds chunk vectors in memory and supports similarity search.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Add(ctx context.Context, ids []string, texts []string, vectors [][]float32) error
	Query(ctx context.Context, vector []float32, k int) ([]SearchResult, error)
	Count() int
}
