package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"movierag/internal/domain"
	"movierag/internal/llm"
)

var ErrMalformedAnswer = errors.New("malformed answer")

// Options tune a single answer request.
type Options struct {
	TopK        int
	MaxTokens   int
	Temperature float64
}

// Answerer retrieves the chunks closest to a question and asks the LLM to
// answer from them.
type Answerer struct {
	embedder domain.Embedder
	store    domain.VectorStore
	client   llm.Client
	prompts  *PromptBuilder
	opts     Options
	logger   *zerolog.Logger
}

func NewAnswerer(embedder domain.Embedder, store domain.VectorStore, client llm.Client, prompts *PromptBuilder, opts Options, logger *zerolog.Logger) *Answerer {
	if prompts == nil {
		prompts = DefaultPromptBuilder()
	}
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	return &Answerer{
		embedder: embedder,
		store:    store,
		client:   client,
		prompts:  prompts,
		opts:     opts,
		logger:   logger,
	}
}

// Retrieve embeds the question and returns the top-k stored chunks.
func (a *Answerer) Retrieve(ctx context.Context, question string) ([]domain.SearchResult, error) {
	vecs, err := a.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vecs))
	}
	results, err := a.store.Query(ctx, vecs[0], a.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("query vector store: %w", err)
	}
	return results, nil
}

// Answer runs retrieval, one LLM call and JSON parsing. Failures are returned
// as is; nothing is retried.
func (a *Answerer) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	a.logger.Info().Str("query", question).Msg("Processing query")

	results, err := a.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	contexts := make([]string, len(results))
	for i, r := range results {
		contexts[i] = r.Chunk.Text
		a.logger.Debug().Str("chunk", r.Chunk.ID).Float64("score", r.Score).Msg("Retrieved chunk")
	}

	prompt, err := a.prompts.Build(question, contexts)
	if err != nil {
		return nil, err
	}

	a.logger.Info().Int("contexts", len(contexts)).Msg("Generating answer")
	now := time.Now()
	resp, err := a.client.InvokeModel(ctx, llm.LLMRequest{
		Prompt:      prompt,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	a.logger.Debug().
		Str("stop_reason", resp.StopReason).
		Dur("duration", time.Since(now)).
		Msg("LLM responded")

	answer, err := ParseAnswer(resp.Content)
	if err != nil {
		a.logger.Error().Err(err).Str("content", resp.Content).Msg("failed to deserialize LLM response")
		return nil, err
	}
	return answer, nil
}

var requiredKeys = []string{"answer", "contexts", "reasoning"}

// ParseAnswer decodes the model output into an Answer. Every required key
// must be present; extra keys are ignored.
func ParseAnswer(content string) (*domain.Answer, error) {
	content = stripMarkdownCodeBlock(content)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
	}
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformedAnswer, key)
		}
	}

	var answer domain.Answer
	if err := json.Unmarshal([]byte(content), &answer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
	}
	return &answer, nil
}

// stripMarkdownCodeBlock removes a surrounding ```json fence if present.
func stripMarkdownCodeBlock(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	firstNewline := strings.Index(content, "\n")
	if firstNewline == -1 {
		return content
	}
	closing := strings.LastIndex(content, "```")
	if closing <= firstNewline {
		return content
	}
	return strings.TrimSpace(content[firstNewline+1 : closing])
}
