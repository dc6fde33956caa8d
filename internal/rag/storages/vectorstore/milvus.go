package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/Jampi276/pymescore-ai/internal/database/milvus"
	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

const (
	fieldID        = "id"
	fieldText      = "text"
	fieldEmbedding = "embedding"
	fieldMetadata  = "metadata"
)

// MilvusStore is the server-backed VectorStore implementation. Collections
// are created with the COSINE metric so distances map onto the same bounded
// relevance scale the on-disk backing uses.
type MilvusStore struct {
	log       *logger.Logger
	client    client.Client
	dimension int
}

// NewMilvusStore wraps the shared Milvus client as a VectorStore.
func NewMilvusStore(milvusClient *milvus.MilvusClient, dimension int, log *logger.Logger) (*MilvusStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("%w: milvus client is not initialized", interfaces.ErrStorage)
	}
	return &MilvusStore{log: log, client: milvusClient.Client, dimension: dimension}, nil
}

// GetOrCreateCollection creates the collection and its vector index when
// absent. The embedding dimension is fixed at creation time.
func (s *MilvusStore) GetOrCreateCollection(ctx context.Context, name string) error {
	exists, err := s.client.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: check collection %s: %v", interfaces.ErrStorage, name, err)
	}
	if exists {
		s.log.Info(fmt.Sprintf("collection '%s' recovered", name))
		return nil
	}

	collSchema := entity.NewSchema().WithName(name).
		WithDescription("Documentos financieros de PYMEs para análisis de riesgo").
		WithField(entity.NewField().WithName(fieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(128).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(fieldText).WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
		WithField(entity.NewField().WithName(fieldMetadata).WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
		WithField(entity.NewField().WithName(fieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dimension)))

	if err := s.client.CreateCollection(ctx, collSchema, 1); err != nil {
		return fmt.Errorf("%w: create collection %s: %v", interfaces.ErrStorage, name, err)
	}

	index, err := entity.NewIndexIvfFlat(entity.COSINE, 128)
	if err != nil {
		return fmt.Errorf("%w: build index definition: %v", interfaces.ErrStorage, err)
	}
	if err := s.client.CreateIndex(ctx, name, fieldEmbedding, index, false); err != nil {
		return fmt.Errorf("%w: create index on %s: %v", interfaces.ErrStorage, name, err)
	}

	s.log.Info(fmt.Sprintf("collection '%s' created", name))
	return nil
}

// Add inserts the documents into the collection as one batch.
func (s *MilvusStore) Add(ctx context.Context, collection string, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	metadatas := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		texts[i] = doc.Text
		embeddings[i] = doc.Embedding
		encoded, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("%w: encode metadata for %s: %v", interfaces.ErrStorage, doc.ID, err)
		}
		metadatas[i] = string(encoded)
	}

	idCol := entity.NewColumnVarChar(fieldID, ids)
	textCol := entity.NewColumnVarChar(fieldText, texts)
	metadataCol := entity.NewColumnVarChar(fieldMetadata, metadatas)
	embeddingCol := entity.NewColumnFloatVector(fieldEmbedding, s.dimension, embeddings)

	if _, err := s.client.Insert(ctx, collection, "" /* default partition */, idCol, textCol, metadataCol, embeddingCol); err != nil {
		return fmt.Errorf("%w: insert into %s: %v", interfaces.ErrStorage, collection, err)
	}

	s.log.Info(fmt.Sprintf("wrote %d documents into collection '%s'", len(docs), collection))
	return nil
}

// Query performs a vector search and converts hits into RetrievedMatch
// values sorted descending by relevance.
func (s *MilvusStore) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]*schema.RetrievedMatch, error) {
	if err := s.client.LoadCollection(ctx, collection, false); err != nil {
		return nil, fmt.Errorf("%w: load collection %s: %v", interfaces.ErrStorage, collection, err)
	}

	searchParams, _ := entity.NewIndexIvfFlatSearchParam(10)
	searchResults, err := s.client.Search(
		ctx, collection, []string{}, "", []string{fieldText, fieldMetadata},
		[]entity.Vector{entity.FloatVector(embedding)},
		fieldEmbedding, entity.COSINE, topK, searchParams,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %v", interfaces.ErrStorage, collection, err)
	}

	var matches []*schema.RetrievedMatch
	for _, res := range searchResults {
		findColumn := func(name string) *entity.ColumnVarChar {
			for _, field := range res.Fields {
				if field.Name() == name {
					if col, ok := field.(*entity.ColumnVarChar); ok {
						return col
					}
				}
			}
			return nil
		}

		textCol := findColumn(fieldText)
		metadataCol := findColumn(fieldMetadata)
		if textCol == nil {
			s.log.Warn("search result is missing the text field, skipping")
			continue
		}

		for i := 0; i < res.ResultCount; i++ {
			metadata := map[string]interface{}{}
			if metadataCol != nil && i < len(metadataCol.Data()) {
				if err := json.Unmarshal([]byte(metadataCol.Data()[i]), &metadata); err != nil {
					metadata = map[string]interface{}{}
				}
			}

			// COSINE scores are similarities in [-1,1]; convert to the
			// bounded distance/relevance pair the pipelines expect.
			similarity := float64(res.Scores[i])
			distance := 1 - similarity
			matches = append(matches, &schema.RetrievedMatch{
				Text:      textCol.Data()[i],
				Metadata:  metadata,
				Distance:  distance,
				Relevance: clampRelevance(similarity),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Relevance > matches[j].Relevance
	})
	return matches, nil
}

// Clear drops the collection. Dropping an absent collection succeeds.
func (s *MilvusStore) Clear(ctx context.Context, collection string) error {
	exists, err := s.client.HasCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("%w: check collection %s: %v", interfaces.ErrStorage, collection, err)
	}
	if !exists {
		s.log.Info(fmt.Sprintf("collection '%s' did not exist", collection))
		return nil
	}
	if err := s.client.DropCollection(ctx, collection); err != nil {
		return fmt.Errorf("%w: drop collection %s: %v", interfaces.ErrStorage, collection, err)
	}
	s.log.Info(fmt.Sprintf("collection '%s' dropped", collection))
	return nil
}

var _ interfaces.VectorStore = (*MilvusStore)(nil)
