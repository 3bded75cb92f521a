package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDataPath       = "data/wiki_movie_plots_deduped.csv"
	DefaultRowLimit       = 300
	DefaultChunkSize      = 500
	DefaultChunkOverlap   = 50
	DefaultEmbeddingModel = "BAAI/bge-small-en-v1.5"
	DefaultCollection     = "movie_plots"
	DefaultTopK           = 3
	DefaultChatModel      = "gpt-4o"
	DefaultAPIKeyEnv      = "OPENAI_API_KEY"
	DefaultQuery          = "Which movie is about a beautiful girl who is forced into hiding?"

	// ConfigPathEnv overrides the config file location when no -config flag is given.
	ConfigPathEnv = "MOVIERAG_CONFIG"
)

var ErrMissingCredential = errors.New("missing credential")

// DataConfig points at the source CSV.
type DataConfig struct {
	Path     string `yaml:"path"`
	RowLimit int    `yaml:"row_limit"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type         string `yaml:"type"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

// FastEmbedConfig configures the local ONNX embedding model.
type FastEmbedConfig struct {
	Model     string `yaml:"model"`
	CacheDir  string `yaml:"cache_dir"`
	BatchSize int    `yaml:"batch_size"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI embedder.
type OpenAIEmbedderConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
}

// BedrockEmbedderConfig holds configuration for Titan embeddings on Bedrock.
type BedrockEmbedderConfig struct {
	Region     string `yaml:"region"`
	ModelID    string `yaml:"model_id"`
	Dimensions int    `yaml:"dimensions"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                 `yaml:"type"`
	FastEmbed *FastEmbedConfig       `yaml:"fastembed,omitempty"`
	OpenAI    *OpenAIEmbedderConfig  `yaml:"openai,omitempty"`
	Bedrock   *BedrockEmbedderConfig `yaml:"bedrock,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type       string `yaml:"type"`
	Collection string `yaml:"collection"`
	Metric     string `yaml:"metric"`
}

// RetrievalConfig controls how many chunks ground the answer.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// OpenAILLMConfig configures the OpenAI chat model.
type OpenAILLMConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// BedrockLLMConfig configures Claude on Bedrock.
type BedrockLLMConfig struct {
	Region  string `yaml:"region"`
	ModelID string `yaml:"model_id"`
}

// LLMConfig selects the answering model.
type LLMConfig struct {
	Provider           string            `yaml:"provider"`
	OpenAI             *OpenAILLMConfig  `yaml:"openai,omitempty"`
	Bedrock            *BedrockLLMConfig `yaml:"bedrock,omitempty"`
	MaxTokens          int               `yaml:"max_tokens"`
	Temperature        float64           `yaml:"temperature"`
	PromptTemplatePath string            `yaml:"prompt_template_path"`
}

// OutputConfig selects how the answer is presented.
type OutputConfig struct {
	Mode string `yaml:"mode"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Data        DataConfig        `yaml:"data"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	LLM         LLMConfig         `yaml:"llm"`
	Query       string            `yaml:"query"`
	Output      OutputConfig      `yaml:"output"`
	Log         LogConfig         `yaml:"log"`
}

// Credentials are the secrets read from the environment for the selected providers.
type Credentials struct {
	OpenAIChatKey      string
	OpenAIEmbeddingKey string
}

// Load reads a config from an explicitly given path. A missing file is an
// error; only LoadDefault falls back to the built-in defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/movierag/config.yaml.
// If neither exists the built-in defaults are returned; nothing is written.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return Default(), "", nil
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	return Default(), "", nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "movierag", "config.yaml"), nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Data.Path == "" {
		cfg.Data.Path = DefaultDataPath
	}
	if cfg.Data.RowLimit == 0 {
		cfg.Data.RowLimit = DefaultRowLimit
	}

	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "recursive"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = DefaultChunkSize
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = DefaultChunkOverlap
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "fastembed"
	}
	switch cfg.Embedder.Type {
	case "fastembed":
		if cfg.Embedder.FastEmbed == nil {
			cfg.Embedder.FastEmbed = &FastEmbedConfig{}
		}
		if cfg.Embedder.FastEmbed.Model == "" {
			cfg.Embedder.FastEmbed.Model = DefaultEmbeddingModel
		}
		if cfg.Embedder.FastEmbed.CacheDir == "" {
			cfg.Embedder.FastEmbed.CacheDir = "local_cache"
		}
		if cfg.Embedder.FastEmbed.BatchSize == 0 {
			cfg.Embedder.FastEmbed.BatchSize = 256
		}
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = DefaultAPIKeyEnv
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 64
		}
	case "bedrock":
		if cfg.Embedder.Bedrock == nil {
			cfg.Embedder.Bedrock = &BedrockEmbedderConfig{}
		}
		if cfg.Embedder.Bedrock.Region == "" {
			cfg.Embedder.Bedrock.Region = "us-east-1"
		}
		if cfg.Embedder.Bedrock.ModelID == "" {
			cfg.Embedder.Bedrock.ModelID = "amazon.titan-embed-text-v2:0"
		}
		if cfg.Embedder.Bedrock.Dimensions == 0 {
			cfg.Embedder.Bedrock.Dimensions = 1024
		}
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "chromem"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = DefaultCollection
	}
	if cfg.VectorStore.Metric == "" {
		cfg.VectorStore.Metric = "cosine"
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.OpenAI == nil {
			cfg.LLM.OpenAI = &OpenAILLMConfig{}
		}
		if cfg.LLM.OpenAI.APIKeyEnv == "" {
			cfg.LLM.OpenAI.APIKeyEnv = DefaultAPIKeyEnv
		}
		if cfg.LLM.OpenAI.Model == "" {
			cfg.LLM.OpenAI.Model = DefaultChatModel
		}
	case "bedrock":
		if cfg.LLM.Bedrock == nil {
			cfg.LLM.Bedrock = &BedrockLLMConfig{}
		}
		if cfg.LLM.Bedrock.Region == "" {
			cfg.LLM.Bedrock.Region = "us-east-1"
		}
		if cfg.LLM.MaxTokens == 0 {
			cfg.LLM.MaxTokens = 1024
		}
	}

	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	if cfg.Output.Mode == "" {
		cfg.Output.Mode = "log"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// Validate checks the combination of settings after defaults are applied.
func (c *AppConfig) Validate() error {
	if c.Chunker.Type != "recursive" {
		return fmt.Errorf("unknown chunker: %s", c.Chunker.Type)
	}
	if c.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.Chunker.ChunkSize)
	}
	if c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, %d), got %d", c.Chunker.ChunkSize, c.Chunker.ChunkOverlap)
	}
	switch c.Embedder.Type {
	case "fastembed", "openai", "bedrock", "tfidf":
	default:
		return fmt.Errorf("unknown embedder: %s", c.Embedder.Type)
	}
	switch c.VectorStore.Type {
	case "chromem", "memory":
	default:
		return fmt.Errorf("unknown vector store: %s", c.VectorStore.Type)
	}
	if c.VectorStore.Metric != "cosine" && c.VectorStore.Metric != "l2" {
		return fmt.Errorf("unknown metric: %s", c.VectorStore.Metric)
	}
	if c.VectorStore.Type == "chromem" && c.VectorStore.Metric != "cosine" {
		return errors.New("chromem vector store only supports the cosine metric")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.Retrieval.TopK)
	}
	switch c.LLM.Provider {
	case "openai":
	case "bedrock":
		if c.LLM.Bedrock.ModelID == "" {
			return errors.New("llm.bedrock.model_id is required")
		}
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}
	switch c.Output.Mode {
	case "log", "tui":
	default:
		return fmt.Errorf("unknown output mode: %s", c.Output.Mode)
	}
	return nil
}

// ResolveCredentials reads the API keys required by the selected providers from the environment.
// Bedrock relies on the AWS default credential chain and needs nothing here.
func (c *AppConfig) ResolveCredentials() (Credentials, error) {
	var creds Credentials
	if c.LLM.Provider == "openai" {
		key, err := lookupKey(c.LLM.OpenAI.APIKeyEnv)
		if err != nil {
			return creds, err
		}
		creds.OpenAIChatKey = key
	}
	if c.Embedder.Type == "openai" {
		key, err := lookupKey(c.Embedder.OpenAI.APIKeyEnv)
		if err != nil {
			return creds, err
		}
		creds.OpenAIEmbeddingKey = key
	}
	return creds, nil
}

func lookupKey(envName string) (string, error) {
	key := os.Getenv(envName)
	if key == "" {
		return "", fmt.Errorf("%s not found in environment or .env file: %w", envName, ErrMissingCredential)
	}
	return key, nil
}
