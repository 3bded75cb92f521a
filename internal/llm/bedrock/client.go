package bedrock

import (
	"errors"

	bedrockclient "movierag/internal/bedrock"
)

type Client struct {
	Runtime bedrockclient.Runtime
	ModelID string
}

func NewClient(runtime bedrockclient.Runtime, modelID string) (*Client, error) {
	if runtime == nil {
		return nil, errors.New("bedrock runtime client is required")
	}
	if modelID == "" {
		return nil, errors.New("claude model ID is required")
	}
	return &Client{Runtime: runtime, ModelID: modelID}, nil
}
