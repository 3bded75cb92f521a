package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"movierag/internal/domain"
)

// Asker answers a question against the built index.
type Asker interface {
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}

// BuildStats summarises one build phase.
type BuildStats struct {
	Documents int
	Chunks    int
	Dimension int
}

// RAGService runs the build phase and then answers a question.
type RAGService struct {
	loader   domain.Loader
	chunker  domain.Chunker
	embedder domain.Embedder
	store    domain.VectorStore
	asker    Asker
	logger   *zerolog.Logger
}

func NewRAGService(loader domain.Loader, chunker domain.Chunker, embedder domain.Embedder, store domain.VectorStore, asker Asker, logger *zerolog.Logger) *RAGService {
	return &RAGService{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		asker:    asker,
		logger:   logger,
	}
}

// Build loads the dataset, chunks it, embeds every chunk and fills the store.
func (s *RAGService) Build(ctx context.Context, path string, rowLimit int) (BuildStats, error) {
	var stats BuildStats

	docs, err := s.loader.Load(ctx, path, rowLimit)
	if err != nil {
		return stats, fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		return stats, errors.New("no documents with a plot found")
	}
	stats.Documents = len(docs)

	s.logger.Info().Int("documents", len(docs)).Msg("Chunking documents")
	chunks, err := s.chunker.Split(docs)
	if err != nil {
		return stats, fmt.Errorf("chunk documents: %w", err)
	}
	if len(chunks) == 0 {
		return stats, errors.New("chunking produced no chunks")
	}
	stats.Chunks = len(chunks)
	s.logger.Info().Int("chunks", len(chunks)).Msg("Created chunks")

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
		texts[i] = ch.Text
	}

	s.logger.Info().Str("embedder", s.embedder.Name()).Msg("Initializing embedding model and vector store")
	if err := s.embedder.Prepare(ctx, texts); err != nil {
		return stats, fmt.Errorf("prepare embedder: %w", err)
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return stats, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return stats, fmt.Errorf("embed chunks: expected %d vectors, got %d", len(texts), len(vectors))
	}
	stats.Dimension = len(vectors[0])

	if err := s.store.Init(ctx, stats.Dimension); err != nil {
		return stats, fmt.Errorf("init vector store: %w", err)
	}
	if err := s.store.Add(ctx, ids, texts, vectors); err != nil {
		return stats, fmt.Errorf("add chunks to vector store: %w", err)
	}

	s.logger.Info().
		Int("entries", s.store.Count()).
		Int("dimension", stats.Dimension).
		Msg("Vector store created successfully")
	return stats, nil
}

// Ask answers a single question against the built store.
func (s *RAGService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	if s.store.Count() == 0 {
		return nil, errors.New("vector store is empty; run Build first")
	}
	return s.asker.Answer(ctx, question)
}
