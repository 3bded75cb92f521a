package chromem

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"

	"movierag/internal/domain"
)

var errNoEmbeddingFunc = errors.New("chromem collection expects precomputed embeddings")

// Storage keeps chunks in a single collection of an in-memory chromem database.
// chromem ranks by cosine similarity.
type Storage struct {
	mu         sync.RWMutex
	name       string
	dimension  int
	collection *chromem.Collection
	ids        map[string]struct{}
}

func NewStorage(collection string) *Storage {
	if collection == "" {
		collection = "movie_plots"
	}
	return &Storage{name: collection}
}

// Init starts a fresh database with an empty collection.
func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	db := chromem.NewDB()
	c, err := db.CreateCollection(s.name, nil, func(context.Context, string) ([]float32, error) {
		return nil, errNoEmbeddingFunc
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.collection = c
	s.ids = make(map[string]struct{})
	return nil
}

func (s *Storage) Add(ctx context.Context, ids []string, texts []string, vectors [][]float32) error {
	if len(ids) != len(texts) || len(ids) != len(vectors) {
		return domain.ErrLengthMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection == nil {
		return domain.ErrStoreNotInitialized
	}
	batch := make(map[string]struct{}, len(ids))
	for i, id := range ids {
		if _, ok := s.ids[id]; ok {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, id)
		}
		if _, ok := batch[id]; ok {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, id)
		}
		batch[id] = struct{}{}
		if len(vectors[i]) != s.dimension {
			return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vectors[i]), s.dimension)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	// chromem normalizes vectors in place; hand it copies.
	embeddings := make([][]float32, len(vectors))
	for i, v := range vectors {
		embeddings[i] = append([]float32(nil), v...)
	}
	if err := s.collection.Add(ctx, ids, embeddings, nil, texts); err != nil {
		return fmt.Errorf("chromem add: %w", err)
	}
	for id := range batch {
		s.ids[id] = struct{}{}
	}
	return nil
}

// Query returns the min(k, Count()) most similar entries, most similar first.
func (s *Storage) Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return nil, domain.ErrStoreNotInitialized
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vector), s.dimension)
	}
	n := s.collection.Count()
	if k > n {
		k = n
	}
	if k <= 0 {
		return []domain.SearchResult{}, nil
	}

	res, err := s.collection.QueryEmbedding(ctx, append([]float32(nil), vector...), k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(res))
	for _, r := range res {
		results = append(results, domain.SearchResult{
			Chunk: domain.Chunk{ID: r.ID, Text: r.Content},
			Score: float64(r.Similarity),
		})
	}
	return results, nil
}

func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return 0
	}
	return s.collection.Count()
}
