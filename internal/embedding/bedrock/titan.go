package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	bedrockclient "movierag/internal/bedrock"
)

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// TitanEmbedder embeds text with Amazon Titan text embedding models.
// Titan accepts a single input per call, so texts are sent one at a time.
type TitanEmbedder struct {
	client     bedrockclient.Runtime
	modelID    string
	dimensions int
}

func NewTitanEmbedder(client bedrockclient.Runtime, modelID string, dimensions int) (*TitanEmbedder, error) {
	if client == nil {
		return nil, errors.New("bedrock runtime client is required")
	}
	if modelID == "" {
		return nil, errors.New("titan model ID is required")
	}
	return &TitanEmbedder{client: client, modelID: modelID, dimensions: dimensions}, nil
}

func (e *TitanEmbedder) Name() string { return e.modelID }

// Prepare is a no-op for pretrained models.
func (e *TitanEmbedder) Prepare(context.Context, []string) error { return nil }

func (e *TitanEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func (e *TitanEmbedder) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanRequest{InputText: text, Dimensions: e.dimensions, Normalize: true})
	if err != nil {
		return nil, fmt.Errorf("marshal titan request: %w", err)
	}

	output, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("invoke titan model: %w", err)
	}

	var response titanResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("unmarshal titan response: %w", err)
	}
	if len(response.Embedding) == 0 {
		return nil, errors.New("titan returned an empty embedding")
	}
	return response.Embedding, nil
}
