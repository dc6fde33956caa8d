package embedding

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
)

// OpenAIModel is an embedding client for the OpenAI API.
type OpenAIModel struct {
	client    *openai.Client
	model     string
	dimension int
}

// NewOpenAIModel creates a new OpenAIModel client with a fixed output
// dimension.
func NewOpenAIModel(apiKey, modelName string, dimension int) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is not configured")
	}
	config := openai.DefaultConfig(apiKey)
	return &OpenAIModel{
		client:    openai.NewClientWithConfig(config),
		model:     modelName,
		dimension: dimension,
	}, nil
}

// Embed generates an embedding vector for a single text.
func (m *OpenAIModel) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embedding vectors for a batch of texts.
func (m *OpenAIModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(m.model),
		Dimensions: m.dimension,
	}

	resp, err := m.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = data.Embedding
	}
	return embeddings, nil
}

// Dimension reports the configured vector length.
func (m *OpenAIModel) Dimension() int {
	return m.dimension
}

var _ interfaces.EmbeddingModel = (*OpenAIModel)(nil)
