package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"movierag/internal/domain"
)

// Metric selects how similarity is computed.
type Metric string

const (
	Cosine Metric = "cosine"
	// L2 scores entries by negative squared Euclidean distance.
	L2 Metric = "l2"
)

// Storage is a brute-force in-memory vector store.
type Storage struct {
	mu        sync.RWMutex
	metric    Metric
	dimension int
	ids       map[string]struct{}
	vectors   [][]float32
	chunks    []domain.Chunk
}

func NewStorage(metric Metric) (*Storage, error) {
	switch metric {
	case Cosine, L2:
	case "":
		metric = Cosine
	default:
		return nil, fmt.Errorf("unknown metric: %s", metric)
	}
	return &Storage{metric: metric}, nil
}

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.ids = make(map[string]struct{})
	s.vectors = nil
	s.chunks = nil
	return nil
}

func (s *Storage) Add(_ context.Context, ids []string, texts []string, vectors [][]float32) error {
	if len(ids) != len(texts) || len(ids) != len(vectors) {
		return domain.ErrLengthMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
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
	for i, id := range ids {
		v := vectors[i]
		if s.metric == Cosine {
			v = normalize(v)
		}
		s.ids[id] = struct{}{}
		s.vectors = append(s.vectors, v)
		s.chunks = append(s.chunks, domain.Chunk{ID: id, Text: texts[i], Index: len(s.chunks)})
	}
	return nil
}

// Query returns the min(k, Count()) most similar entries, most similar first.
// Ties keep insertion order.
func (s *Storage) Query(_ context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension == 0 {
		return nil, domain.ErrStoreNotInitialized
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vector), s.dimension)
	}
	if k <= 0 || len(s.vectors) == 0 {
		return []domain.SearchResult{}, nil
	}

	q := vector
	if s.metric == Cosine {
		q = normalize(vector)
	}
	scores := make([]float64, len(s.vectors))
	for i, v := range s.vectors {
		if s.metric == Cosine {
			scores[i] = dot(v, q)
		} else {
			scores[i] = -squaredDistance(v, q)
		}
	}
	idxs := argsortDesc(scores)
	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]domain.SearchResult, 0, k)
	for _, j := range idxs[:k] {
		results = append(results, domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

func dot(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func squaredDistance(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// normalize returns a unit-length copy of v; zero vectors are returned unchanged.
func normalize(v []float32) []float32 {
	norm := math.Sqrt(dot(v, v))
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return vals[idxs[a]] > vals[idxs[b]] })
	return idxs
}
