package chromem

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"movierag/internal/domain"
)

func newFilledStorage(t *testing.T) *Storage {
	t.Helper()
	s := NewStorage("movie_plots")
	ctx := context.Background()
	if err := s.Init(ctx, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := s.Add(ctx,
		[]string{"chunk_0", "chunk_1", "chunk_2", "chunk_3"},
		[]string{"train robbery", "girl in hiding", "space travel", "girl on a train"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
			{0.7, 0.7, 0},
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestStorage_QueryReturnsMinKOrdered(t *testing.T) {
	s := newFilledStorage(t)

	tests := []struct {
		name     string
		k        int
		expected int
	}{
		{name: "zero", k: 0, expected: 0},
		{name: "negative", k: -1, expected: 0},
		{name: "fewer than stored", k: 3, expected: 3},
		{name: "more than stored", k: 10, expected: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Query(context.Background(), []float32{0.1, 0.9, 0}, tt.k)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(res) != tt.expected {
				t.Fatalf("expected %d results, got %d", tt.expected, len(res))
			}
			for i := 1; i < len(res); i++ {
				if res[i].Score > res[i-1].Score {
					t.Errorf("results not ordered: %f before %f", res[i-1].Score, res[i].Score)
				}
			}
			if tt.expected > 0 {
				if res[0].Chunk.ID != "chunk_1" || res[0].Chunk.Text != "girl in hiding" {
					t.Errorf("unexpected best match: %+v", res[0].Chunk)
				}
			}
		})
	}
}

func TestStorage_SelfQueryIsFirst(t *testing.T) {
	s := newFilledStorage(t)

	res, err := s.Query(context.Background(), []float32{0.7, 0.7, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res[0].Chunk.ID != "chunk_3" {
		t.Errorf("expected chunk_3 first, got %s", res[0].Chunk.ID)
	}
	if res[0].Score < 0.999 {
		t.Errorf("expected self similarity close to 1, got %f", res[0].Score)
	}
}

func TestStorage_DoesNotMutateInput(t *testing.T) {
	s := NewStorage("")
	ctx := context.Background()
	if err := s.Init(ctx, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vectors := [][]float32{{3, 4}}
	if err := s.Add(ctx, []string{"chunk_0"}, []string{"text"}, vectors); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(vectors, [][]float32{{3, 4}}) {
		t.Errorf("input vectors were modified: %v", vectors)
	}
}

func TestStorage_AddErrors(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		texts   []string
		vectors [][]float32
		want    error
	}{
		{
			name:    "length mismatch",
			ids:     []string{"chunk_9", "chunk_10"},
			texts:   []string{"a"},
			vectors: [][]float32{{1, 0, 0}},
			want:    domain.ErrLengthMismatch,
		},
		{
			name:    "existing id",
			ids:     []string{"chunk_2"},
			texts:   []string{"a"},
			vectors: [][]float32{{1, 0, 0}},
			want:    domain.ErrDuplicateID,
		},
		{
			name:    "id repeated in batch",
			ids:     []string{"chunk_8", "chunk_8"},
			texts:   []string{"a", "b"},
			vectors: [][]float32{{1, 0, 0}, {0, 1, 0}},
			want:    domain.ErrDuplicateID,
		},
		{
			name:    "wrong dimension",
			ids:     []string{"chunk_7"},
			texts:   []string{"a"},
			vectors: [][]float32{{1, 0, 0, 0}},
			want:    domain.ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFilledStorage(t)
			err := s.Add(context.Background(), tt.ids, tt.texts, tt.vectors)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if s.Count() != 4 {
				t.Errorf("failed add changed the store: count %d", s.Count())
			}
		})
	}
}

func TestStorage_NotInitialized(t *testing.T) {
	s := NewStorage("movie_plots")
	ctx := context.Background()

	if s.Count() != 0 {
		t.Errorf("expected empty store, got %d", s.Count())
	}
	if err := s.Add(ctx, []string{"a"}, []string{"a"}, [][]float32{{1}}); !errors.Is(err, domain.ErrStoreNotInitialized) {
		t.Errorf("expected ErrStoreNotInitialized, got %v", err)
	}
	if _, err := s.Query(ctx, []float32{1}, 1); !errors.Is(err, domain.ErrStoreNotInitialized) {
		t.Errorf("expected ErrStoreNotInitialized, got %v", err)
	}
}

func TestStorage_InitResets(t *testing.T) {
	s := newFilledStorage(t)
	if err := s.Init(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Count() != 0 {
		t.Errorf("expected empty store after Init, got %d", s.Count())
	}
	if err := s.Add(context.Background(), []string{"chunk_0"}, []string{"again"}, [][]float32{{1, 0, 0}}); err != nil {
		t.Errorf("expected id reuse after Init to succeed, got %v", err)
	}
}
