package setup

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"movierag/internal/answer"
	"movierag/internal/bedrock"
	"movierag/internal/chunker"
	"movierag/internal/config"
	"movierag/internal/domain"
	bedrockembed "movierag/internal/embedding/bedrock"
	"movierag/internal/embedding/fastembed"
	openaiembed "movierag/internal/embedding/openai"
	"movierag/internal/embedding/tfidf"
	"movierag/internal/llm"
	bedrockllm "movierag/internal/llm/bedrock"
	"movierag/internal/llm/gpt"
	"movierag/internal/loader"
	"movierag/internal/service"
	"movierag/internal/vectorstore/chromem"
	"movierag/internal/vectorstore/memory"
)

type Dependencies struct {
	Service  *service.RAGService
	Answerer *answer.Answerer
	Logger   *zerolog.Logger

	closers []io.Closer
}

// Close releases resources held by the embedding model.
func (d *Dependencies) Close() error {
	var firstErr error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Wire assembles the pipeline selected by cfg. creds must come from cfg.ResolveCredentials.
func Wire(ctx context.Context, cfg *config.AppConfig, creds config.Credentials, logger *zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: logger}

	ch, err := chunker.NewRecursiveChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	emb, err := embedderFactory(ctx, cfg, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if c, ok := emb.(io.Closer); ok {
		deps.closers = append(deps.closers, c)
	}

	store, err := createVectorStore(cfg)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	client, err := createLLMClient(ctx, cfg, creds)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	prompts, err := answer.LoadPromptBuilder(cfg.LLM.PromptTemplatePath)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.Answerer = answer.NewAnswerer(emb, store, client, prompts, answer.Options{
		TopK:        cfg.Retrieval.TopK,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, logger)
	deps.Service = service.NewRAGService(loader.NewCSVLoader(logger), ch, emb, store, deps.Answerer, logger)
	return deps, nil
}

// embedderFactory is replaced in tests to observe the embedder lifecycle.
var embedderFactory = createEmbedder

func createEmbedder(ctx context.Context, cfg *config.AppConfig, creds config.Credentials) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "fastembed":
		fc := cfg.Embedder.FastEmbed
		return fastembed.NewEmbedder(fastembed.Config{
			Model:     fc.Model,
			CacheDir:  fc.CacheDir,
			BatchSize: fc.BatchSize,
		})
	case "openai":
		oc := cfg.Embedder.OpenAI
		return openaiembed.NewEmbedder(openaiembed.Config{
			APIKey:     creds.OpenAIEmbeddingKey,
			BaseURL:    oc.BaseURL,
			Model:      oc.Model,
			Dimensions: oc.Dimensions,
			BatchSize:  oc.BatchSize,
		})
	case "bedrock":
		bc := cfg.Embedder.Bedrock
		runtime, err := bedrock.NewRuntime(ctx, bc.Region)
		if err != nil {
			return nil, err
		}
		return bedrockembed.NewTitanEmbedder(runtime, bc.ModelID, bc.Dimensions)
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func createVectorStore(cfg *config.AppConfig) (domain.VectorStore, error) {
	switch cfg.VectorStore.Type {
	case "chromem":
		return chromem.NewStorage(cfg.VectorStore.Collection), nil
	case "memory":
		return memory.NewStorage(memory.Metric(cfg.VectorStore.Metric))
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

func createLLMClient(ctx context.Context, cfg *config.AppConfig, creds config.Credentials) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return gpt.NewClient(creds.OpenAIChatKey, cfg.LLM.OpenAI.Model, cfg.LLM.OpenAI.BaseURL)
	case "bedrock":
		runtime, err := bedrock.NewRuntime(ctx, cfg.LLM.Bedrock.Region)
		if err != nil {
			return nil, err
		}
		return bedrockllm.NewClient(runtime, cfg.LLM.Bedrock.ModelID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}
