package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
)

// GoogleModel is an embedding client for the Google GenAI API.
type GoogleModel struct {
	model     *genai.EmbeddingModel
	dimension int
}

// NewGoogleModel creates a new GoogleModel client. The configured dimension
// must match what the chosen model actually produces.
func NewGoogleModel(ctx context.Context, apiKey, modelName string, dimension int) (*GoogleModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GoogleModel{model: client.EmbeddingModel(modelName), dimension: dimension}, nil
}

// Embed generates an embedding vector for a single text.
func (m *GoogleModel) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := m.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}
	return res.Embedding.Values, nil
}

// Dimension reports the configured vector length.
func (m *GoogleModel) Dimension() int {
	return m.dimension
}

var _ interfaces.EmbeddingModel = (*GoogleModel)(nil)
