package llm

import (
	"context"
)

//go:generate mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks

// Client invokes a hosted chat model with a single user prompt.
type Client interface {
	InvokeModel(ctx context.Context, request LLMRequest) (*LLMResponse, error)
}
