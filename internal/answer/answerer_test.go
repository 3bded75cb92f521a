package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"movierag/internal/llm"
	"movierag/internal/llm/mocks"
	"movierag/internal/vectorstore/memory"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// keywordEmbedder maps text onto three axes: hiding, train, space.
type keywordEmbedder struct {
	err error
}

func (e *keywordEmbedder) Name() string                            { return "keyword" }
func (e *keywordEmbedder) Prepare(context.Context, []string) error { return nil }
func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		out[i] = []float32{
			float32(strings.Count(lower, "hid")),
			float32(strings.Count(lower, "train")),
			float32(strings.Count(lower, "space")) + 0.01,
		}
	}
	return out, nil
}

func newTestStore(t *testing.T, emb *keywordEmbedder) *memory.Storage {
	t.Helper()
	ctx := context.Background()
	texts := []string{
		"Title: Hidden\nPlot: A beautiful girl is forced into hiding.",
		"Title: The Great Train Robbery\nPlot: Bandits rob a train.",
		"Title: A Trip to the Moon\nPlot: Astronomers travel into space.",
		"Title: Hide and Seek\nPlot: Children hide in a train station.",
	}
	vecs, err := emb.Embed(ctx, texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store, err := memory.NewStorage(memory.Cosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Init(ctx, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Add(ctx, []string{"chunk_0", "chunk_1", "chunk_2", "chunk_3"}, texts, vecs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store
}

func TestAnswerer_Answer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	emb := &keywordEmbedder{}
	store := newTestStore(t, emb)
	mockClient := mocks.NewMockClient(ctrl)

	mockClient.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req llm.LLMRequest) (*llm.LLMResponse, error) {
			if !req.JSONMode {
				t.Error("expected JSON mode request")
			}
			if !strings.Contains(req.Prompt, "QUESTION:\n    Which movie is about a girl in hiding?\n") {
				t.Errorf("question missing from prompt: %q", req.Prompt)
			}
			if !strings.Contains(req.Prompt, "Plot: A beautiful girl is forced into hiding.---") {
				t.Errorf("best context missing from prompt: %q", req.Prompt)
			}
			return &llm.LLMResponse{
				Content:    `{"answer":"Hidden","contexts":["Title: Hidden\nPlot: A beautiful girl is forced into hiding."],"reasoning":"The plot matches."}`,
				StopReason: "stop",
			}, nil
		})

	a := NewAnswerer(emb, store, mockClient, nil, Options{TopK: 3}, newTestLogger())

	got, err := a.Answer(context.Background(), "Which movie is about a girl in hiding?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Answer != "Hidden" {
		t.Errorf("expected answer Hidden, got %s", got.Answer)
	}
	if len(got.Contexts) != 1 || !strings.HasPrefix(got.Contexts[0], "Title: Hidden") {
		t.Errorf("unexpected contexts: %v", got.Contexts)
	}
	if got.Reasoning == "" {
		t.Error("expected reasoning")
	}
}

func TestAnswerer_RetrieveUsesTopK(t *testing.T) {
	emb := &keywordEmbedder{}
	store := newTestStore(t, emb)

	tests := []struct {
		name     string
		topK     int
		expected int
	}{
		{name: "default", topK: 0, expected: 3},
		{name: "one", topK: 1, expected: 1},
		{name: "more than stored", topK: 10, expected: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnswerer(emb, store, nil, nil, Options{TopK: tt.topK}, newTestLogger())
			res, err := a.Retrieve(context.Background(), "girl hiding")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(res) != tt.expected {
				t.Errorf("expected %d results, got %d", tt.expected, len(res))
			}
			if res[0].Chunk.ID != "chunk_0" {
				t.Errorf("expected chunk_0 first, got %s", res[0].Chunk.ID)
			}
		})
	}
}

func TestAnswerer_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("embedding failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		store := newTestStore(t, &keywordEmbedder{})
		mockClient := mocks.NewMockClient(ctrl)

		a := NewAnswerer(&keywordEmbedder{err: boom}, store, mockClient, nil, Options{}, newTestLogger())
		if _, err := a.Answer(context.Background(), "q"); !errors.Is(err, boom) {
			t.Errorf("expected embedding error, got %v", err)
		}
	})

	t.Run("llm failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		emb := &keywordEmbedder{}
		mockClient := mocks.NewMockClient(ctrl)
		mockClient.EXPECT().InvokeModel(gomock.Any(), gomock.Any()).Return(nil, boom).Times(1)

		a := NewAnswerer(emb, newTestStore(t, emb), mockClient, nil, Options{}, newTestLogger())
		if _, err := a.Answer(context.Background(), "q"); !errors.Is(err, boom) {
			t.Errorf("expected llm error, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		emb := &keywordEmbedder{}
		mockClient := mocks.NewMockClient(ctrl)
		mockClient.EXPECT().
			InvokeModel(gomock.Any(), gomock.Any()).
			Return(&llm.LLMResponse{Content: "The movie is Hidden."}, nil).
			Times(1)

		a := NewAnswerer(emb, newTestStore(t, emb), mockClient, nil, Options{}, newTestLogger())
		if _, err := a.Answer(context.Background(), "q"); !errors.Is(err, ErrMalformedAnswer) {
			t.Errorf("expected ErrMalformedAnswer, got %v", err)
		}
	})
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  bool
		expected string
	}{
		{
			name:     "plain object",
			content:  `{"answer":"Heidi","contexts":["a","b"],"reasoning":"r"}`,
			expected: "Heidi",
		},
		{
			name:     "fenced object",
			content:  "```json\n{\"answer\":\"Heidi\",\"contexts\":[],\"reasoning\":\"r\"}\n```",
			expected: "Heidi",
		},
		{
			name:     "extra keys ignored",
			content:  `{"answer":"Heidi","contexts":[],"reasoning":"r","confidence":0.9}`,
			expected: "Heidi",
		},
		{name: "not json", content: "Heidi", wantErr: true},
		{name: "array", content: `["Heidi"]`, wantErr: true},
		{name: "missing reasoning", content: `{"answer":"Heidi","contexts":[]}`, wantErr: true},
		{name: "wrong type", content: `{"answer":"Heidi","contexts":"a","reasoning":"r"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswer(tt.content)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedAnswer) {
					t.Errorf("expected ErrMalformedAnswer, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Answer != tt.expected {
				t.Errorf("expected answer %s, got %s", tt.expected, got.Answer)
			}
		})
	}
}
