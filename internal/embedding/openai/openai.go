package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Config configures the OpenAI embeddings client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	BatchSize  int
}

// Embedder calls the OpenAI embeddings endpoint.
type Embedder struct {
	client     openai.Client
	model      string
	dimensions int
	batchSize  int
}

func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("OpenAI embedding model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 64
	}
	return &Embedder{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  batch,
	}, nil
}

func (e *Embedder) Name() string { return "openai:" + e.model }

// Prepare is a no-op for remote embedding models.
func (e *Embedder) Prepare(context.Context, []string) error { return nil }

// Embed sends the texts in batches and returns vectors in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		params := openai.EmbeddingNewParams{
			Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts[start:end]},
			Model:          openai.EmbeddingModel(e.model),
			EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
		}
		if e.dimensions > 0 {
			params.Dimensions = openai.Int(int64(e.dimensions))
		}

		resp, err := e.client.Embeddings.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("openai embeddings request: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("openai embeddings: expected %d vectors, got %d", end-start, len(resp.Data))
		}
		for _, d := range resp.Data {
			idx := start + int(d.Index)
			if d.Index < 0 || idx >= end {
				return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
			}
			out[idx] = toFloat32(d.Embedding)
		}
	}
	return out, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
