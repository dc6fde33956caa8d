package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
	"github.com/Jampi276/pymescore-ai/internal/rag/splitters"
)

func TestIndexingRunNothingToIndex(t *testing.T) {
	store := newFakeVectorStore()
	p := NewIndexingPipeline(splitters.NewCharacterSplitter(100, 0, 10), &fakeEmbedder{dim: 3}, store, testLogger())

	indexed, err := p.Run(context.Background(), "docs", nil)
	require.NoError(t, err)
	assert.False(t, indexed)

	indexed, err = p.Run(context.Background(), "docs", []*schema.SourceDocument{{Content: ""}})
	require.NoError(t, err)
	assert.False(t, indexed)
	assert.Empty(t, store.added["docs"])
}

func TestIndexingRunChunkIDsAndMetadata(t *testing.T) {
	store := newFakeVectorStore()
	p := NewIndexingPipeline(splitters.NewCharacterSplitter(1000, 200, 100), &fakeEmbedder{dim: 3}, store, testLogger())

	sources := []*schema.SourceDocument{
		{Content: "ventas anuales de la empresa", Metadata: map[string]interface{}{schema.MetadataKeyFileName: "balance.pdf"}},
		{Content: "gastos operativos del periodo", Metadata: nil},
	}
	indexed, err := p.Run(context.Background(), "docs", sources)
	require.NoError(t, err)
	assert.True(t, indexed)

	docs := store.added["docs"]
	require.Len(t, docs, 2)

	assert.Equal(t, "doc_0_chunk_0", docs[0].ID)
	assert.Equal(t, "doc_1_chunk_0", docs[1].ID)
	assert.Equal(t, "balance.pdf", docs[0].Metadata[schema.MetadataKeyFileName])
	assert.Equal(t, 0, docs[0].Metadata[schema.MetadataKeyDocumentID])
	assert.Equal(t, 1, docs[1].Metadata[schema.MetadataKeyDocumentID])
	assert.Equal(t, 0, docs[0].Metadata[schema.MetadataKeyChunkIndex])
	assert.Equal(t, 1, docs[0].Metadata[schema.MetadataKeyTotalChunks])
	assert.Equal(t, len(docs[0].Text), docs[0].Metadata[schema.MetadataKeyTextLength])
}

func TestIndexingRunEmbeddingFailureDegradesToZeroVector(t *testing.T) {
	store := newFakeVectorStore()
	embedder := &fakeEmbedder{dim: 4, failOn: "ilegible"}
	p := NewIndexingPipeline(splitters.NewCharacterSplitter(1000, 200, 100), embedder, store, testLogger())

	sources := []*schema.SourceDocument{
		{Content: "texto normal"},
		{Content: "fragmento ilegible"},
	}
	indexed, err := p.Run(context.Background(), "docs", sources)
	require.NoError(t, err)
	assert.True(t, indexed)

	docs := store.added["docs"]
	require.Len(t, docs, 2)

	assert.Equal(t, []float32{1, 0, 0, 0}, docs[0].Embedding)
	// The failing chunk is still indexed, with a zero vector of the model's
	// dimension, instead of aborting the batch.
	assert.Equal(t, []float32{0, 0, 0, 0}, docs[1].Embedding)
}

func TestIndexingRunCollectionFailureIsFatal(t *testing.T) {
	store := newFakeVectorStore()
	store.createErr = assert.AnError
	p := NewIndexingPipeline(splitters.NewCharacterSplitter(1000, 200, 100), &fakeEmbedder{dim: 3}, store, testLogger())

	_, err := p.Run(context.Background(), "docs", []*schema.SourceDocument{{Content: "texto"}})
	require.Error(t, err)
}
