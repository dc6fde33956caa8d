package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

const (
	// msgNoDocuments is returned when the collection holds nothing at all.
	msgNoDocuments = "No hay documentos disponibles en la base de conocimiento."
	// msgNoRelevantDocuments is returned when matches exist but none clears
	// the relevance threshold.
	msgNoRelevantDocuments = "No se encontraron documentos relevantes para la consulta."
)

// RetrievalPipeline retrieves relevant context for a query: it embeds the
// query, searches the vector index and filters the matches by relevance.
type RetrievalPipeline struct {
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	log         *logger.Logger

	maxResults         int
	relevanceThreshold float64
}

// NewRetrievalPipeline creates a new RetrievalPipeline.
func NewRetrievalPipeline(
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	maxResults int,
	relevanceThreshold float64,
	log *logger.Logger,
) *RetrievalPipeline {
	return &RetrievalPipeline{
		embedder:           embedder,
		vectorStore:        vectorStore,
		log:                log,
		maxResults:         maxResults,
		relevanceThreshold: relevanceThreshold,
	}
}

// Run returns up to maxResults matches for the query, unfiltered, sorted
// descending by relevance.
func (p *RetrievalPipeline) Run(ctx context.Context, collection, query string) ([]*schema.RetrievedMatch, error) {
	embedding, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := p.vectorStore.Query(ctx, collection, embedding, p.maxResults)
	if err != nil {
		return nil, err
	}

	p.log.Debug(fmt.Sprintf("retrieved %d candidates from collection '%s'", len(matches), collection))
	return matches, nil
}

// RelevantContext renders the matches that clear the relevance threshold into
// a human-readable block for prompt grounding. An empty collection or a query
// with no sufficiently relevant matches yields a literal explanatory string;
// callers treat "no context" as a common valid outcome, not a failure. The
// error is non-nil only for hard embedding/storage failures.
func (p *RetrievalPipeline) RelevantContext(ctx context.Context, collection, query string) (string, error) {
	matches, err := p.Run(ctx, collection, query)
	if err != nil {
		return "", err
	}

	if len(matches) == 0 {
		return msgNoDocuments, nil
	}

	var sb strings.Builder
	sb.WriteString("Información relevante de los documentos:\n\n")

	included := 0
	for _, match := range matches {
		// Strictly above the threshold; borderline matches are dropped.
		if match.Relevance <= p.relevanceThreshold {
			continue
		}
		included++
		sb.WriteString(fmt.Sprintf("Documento %d (Relevancia: %.2f):\n", included, match.Relevance))
		sb.WriteString(match.Text)
		sb.WriteString("\n\n")
	}

	if included == 0 {
		return msgNoRelevantDocuments, nil
	}
	return sb.String(), nil
}
