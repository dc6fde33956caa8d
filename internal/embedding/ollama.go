package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"

	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
)

// OllamaModel is an embedding client for a local Ollama server.
type OllamaModel struct {
	client    *ollama.Client
	model     string
	dimension int
}

// NewOllamaModel creates a new OllamaModel client. An empty baseURL defaults
// to the standard local address.
func NewOllamaModel(model, baseURL string, dimension int) (*OllamaModel, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{Timeout: 120 * time.Second}
	return &OllamaModel{client: ollama.NewClient(parsedURL, hc), model: model, dimension: dimension}, nil
}

// Embed generates an embedding vector for a single text.
func (m *OllamaModel) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := m.client.Embeddings(ctx, &ollama.EmbeddingRequest{
		Model:  m.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}

	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimension reports the configured vector length.
func (m *OllamaModel) Dimension() int {
	return m.dimension
}

var _ interfaces.EmbeddingModel = (*OllamaModel)(nil)
