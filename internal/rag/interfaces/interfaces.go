package interfaces

import (
	"context"
	"errors"

	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
)

// ErrStorage marks fatal vector-index failures (backing store unreachable,
// collection cannot be created). Unlike transient capability failures, these
// propagate to the caller.
var ErrStorage = errors.New("vector storage failure")

// Loader is the interface for loading data from a source (e.g. file, URL)
// and converting it into a list of Document objects.
type Loader interface {
	Load(ctx context.Context, path string) ([]*schema.Document, error)
}

// Splitter is the interface for splitting raw text into overlapping chunks.
// Implementations are pure: same input, same chunks, no shared state.
type Splitter interface {
	Split(text string) []string
}

// VectorStore is the interface for a named-collection vector index.
type VectorStore interface {
	// GetOrCreateCollection is idempotent: it returns the existing collection
	// or creates one with the embedding dimension fixed at creation time.
	GetOrCreateCollection(ctx context.Context, name string) error

	// Add writes all documents as one logical batch into the named collection.
	Add(ctx context.Context, collection string, docs []*schema.Document) error

	// Query returns up to topK nearest matches sorted descending by relevance.
	Query(ctx context.Context, collection string, embedding []float32, topK int) ([]*schema.RetrievedMatch, error)

	// Clear drops the named collection. Deleting an absent collection is not
	// an error.
	Clear(ctx context.Context, collection string) error
}

// EmbeddingModel is the interface for a text embedding model.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension reports the fixed vector length this model produces.
	Dimension() int
}

// LLM is the interface for a large language model that can generate text.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
