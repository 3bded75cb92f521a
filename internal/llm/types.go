package llm

type LLMRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	// JSONMode asks the provider to return a single JSON object when it supports it.
	JSONMode bool
}

type LLMResponse struct {
	Content    string
	StopReason string
}
