package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

// embedWorkers bounds concurrent embedding calls during indexing.
const embedWorkers = 4

// IndexingPipeline orchestrates splitting, embedding and storing documents.
type IndexingPipeline struct {
	splitter    interfaces.Splitter
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	log         *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	log *logger.Logger,
) *IndexingPipeline {
	return &IndexingPipeline{
		splitter:    splitter,
		embedder:    embedder,
		vectorStore: vectorStore,
		log:         log,
	}
}

// Run chunks every source document, embeds the chunks and writes them into
// the named collection as one logical batch.
//
// Chunk IDs are stable: "doc_{docIndex}_chunk_{chunkIndex}". A chunk whose
// embedding call fails is stored with a zero vector so one flaky call cannot
// abort the batch; the degradation is logged. The boolean result is false
// only when there was nothing to index at all.
func (p *IndexingPipeline) Run(ctx context.Context, collection string, sources []*schema.SourceDocument) (bool, error) {
	if err := p.vectorStore.GetOrCreateCollection(ctx, collection); err != nil {
		return false, err
	}

	var docs []*schema.Document
	for i, source := range sources {
		if source.Content == "" {
			continue
		}

		chunks := p.splitter.Split(source.Content)
		for j, chunk := range chunks {
			metadata := make(map[string]interface{}, len(source.Metadata)+4)
			for k, v := range source.Metadata {
				metadata[k] = v
			}
			metadata[schema.MetadataKeyDocumentID] = i
			metadata[schema.MetadataKeyChunkIndex] = j
			metadata[schema.MetadataKeyTotalChunks] = len(chunks)
			metadata[schema.MetadataKeyTextLength] = len(chunk)

			docs = append(docs, &schema.Document{
				ID:       fmt.Sprintf("doc_%d_chunk_%d", i, j),
				Text:     chunk,
				Metadata: metadata,
			})
		}
	}

	if len(docs) == 0 {
		p.log.Info("no content to vectorize")
		return false, nil
	}

	p.log.Info(fmt.Sprintf("generating embeddings for %d chunks", len(docs)))
	p.embedAll(ctx, docs)

	if err := p.vectorStore.Add(ctx, collection, docs); err != nil {
		return false, err
	}

	p.log.Info(fmt.Sprintf("indexed %d chunks into collection '%s'", len(docs), collection))
	return true, nil
}

// embedAll fills in the embedding of every document, substituting a zero
// vector of the configured dimension when an individual call fails.
func (p *IndexingPipeline) embedAll(ctx context.Context, docs []*schema.Document) {
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(embedWorkers)

	for _, doc := range docs {
		doc := doc
		eg.Go(func() error {
			embedding, err := p.embedder.Embed(gCtx, doc.Text)
			if err != nil {
				p.log.Warn(fmt.Sprintf("embedding failed for chunk %s, using zero vector: %v", doc.ID, err))
				embedding = make([]float32, p.embedder.Dimension())
			}
			doc.Embedding = embedding
			return nil
		})
	}

	// Workers never return an error; embedding failures degrade per chunk.
	_ = eg.Wait()
}
