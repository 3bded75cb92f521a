package fastembed

import (
	"context"
	"fmt"

	fe "github.com/anush008/fastembed-go"
)

var models = map[string]fe.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fe.BGESmallENV15,
	"BAAI/bge-small-en":                      fe.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fe.BGEBaseENV15,
	"BAAI/bge-base-en":                       fe.BGEBaseEN,
	"sentence-transformers/all-MiniLM-L6-v2": fe.AllMiniLML6V2,
}

// Config configures the local ONNX embedding model.
type Config struct {
	Model     string
	CacheDir  string
	BatchSize int
}

// Embedder runs a pretrained sentence-embedding model locally.
// The model files are downloaded into CacheDir on first use.
type Embedder struct {
	name      string
	model     *fe.FlagEmbedding
	batchSize int
}

// ResolveModel maps a Hugging Face model name to the fastembed model identifier.
func ResolveModel(name string) (fe.EmbeddingModel, error) {
	m, ok := models[name]
	if !ok {
		return "", fmt.Errorf("unsupported fastembed model: %s", name)
	}
	return m, nil
}

func NewEmbedder(cfg Config) (*Embedder, error) {
	model, err := ResolveModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	showProgress := false
	flag, err := fe.NewFlagEmbedding(&fe.InitOptions{
		Model:                model,
		CacheDir:             cfg.CacheDir,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("init fastembed model %s: %w", cfg.Model, err)
	}
	return &Embedder{name: cfg.Model, model: flag, batchSize: cfg.BatchSize}, nil
}

func (e *Embedder) Name() string { return e.name }

// Prepare is a no-op for pretrained models.
func (e *Embedder) Prepare(context.Context, []string) error { return nil }

// Embed encodes texts without any query or passage prefix, so chunks and
// questions land in the same vector space.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vecs, err := e.model.Embed(texts, e.batchSize)
	if err != nil {
		return nil, fmt.Errorf("fastembed: %w", err)
	}
	return vecs, nil
}

// Close releases the ONNX session.
func (e *Embedder) Close() error {
	return e.model.Destroy()
}
