package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

func newTestStore(t *testing.T, dimension int) *SQLiteStore {
	t.Helper()
	logger.Init(logrus.ErrorLevel)
	store, err := NewSQLiteStore(t.TempDir(), dimension, logger.New("test", ""))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 3)
	require.NoError(t, store.GetOrCreateCollection(ctx, "docs"))

	docs := []*schema.Document{
		{ID: "doc_0_chunk_0", Text: "ventas anuales", Embedding: []float32{1, 0, 0}, Metadata: map[string]interface{}{"tipo": "estado_financiero"}},
		{ID: "doc_0_chunk_1", Text: "gastos operativos", Embedding: []float32{0, 1, 0}, Metadata: map[string]interface{}{}},
	}
	require.NoError(t, store.Add(ctx, "docs", docs))

	matches, err := store.Query(ctx, "docs", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "ventas anuales", matches[0].Text)
	assert.InDelta(t, 1.0, matches[0].Relevance, 1e-6)
	assert.InDelta(t, 0.0, matches[1].Relevance, 1e-6)
	assert.Equal(t, "estado_financiero", matches[0].Metadata["tipo"])
}

func TestSQLiteStoreTopK(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 2)
	require.NoError(t, store.GetOrCreateCollection(ctx, "docs"))

	var docs []*schema.Document
	for i := 0; i < 5; i++ {
		docs = append(docs, &schema.Document{
			ID:        fmt.Sprintf("doc_0_chunk_%d", i),
			Text:      fmt.Sprintf("chunk %d", i),
			Embedding: []float32{1, float32(i)},
			Metadata:  map[string]interface{}{},
		})
	}
	require.NoError(t, store.Add(ctx, "docs", docs))

	matches, err := store.Query(ctx, "docs", []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
	assert.Equal(t, "chunk 0", matches[0].Text)
}

func TestSQLiteStoreZeroVectorHasNoRelevance(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 3)
	require.NoError(t, store.GetOrCreateCollection(ctx, "docs"))

	// Zero vectors are what indexing stores when an embedding call fails.
	docs := []*schema.Document{
		{ID: "doc_0_chunk_0", Text: "sin embedding", Embedding: []float32{0, 0, 0}, Metadata: map[string]interface{}{}},
	}
	require.NoError(t, store.Add(ctx, "docs", docs))

	matches, err := store.Query(ctx, "docs", []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.0, matches[0].Relevance)
	assert.Equal(t, 1.0, matches[0].Distance)
}

func TestSQLiteStoreDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 3)
	require.NoError(t, store.GetOrCreateCollection(ctx, "docs"))

	err := store.Add(ctx, "docs", []*schema.Document{
		{ID: "doc_0_chunk_0", Text: "x", Embedding: []float32{1, 0}, Metadata: map[string]interface{}{}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrStorage))
}

func TestSQLiteStoreCollectionDimensionConflict(t *testing.T) {
	ctx := context.Background()
	logger.Init(logrus.ErrorLevel)
	dir := t.TempDir()

	store3, err := NewSQLiteStore(dir, 3, logger.New("test", ""))
	require.NoError(t, err)
	require.NoError(t, store3.GetOrCreateCollection(ctx, "docs"))
	require.NoError(t, store3.GetOrCreateCollection(ctx, "docs")) // idempotent
	store3.Close()

	store4, err := NewSQLiteStore(dir, 4, logger.New("test", ""))
	require.NoError(t, err)
	defer store4.Close()

	err = store4.GetOrCreateCollection(ctx, "docs")
	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrStorage))
}

func TestSQLiteStoreAddReplacesExistingIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 2)
	require.NoError(t, store.GetOrCreateCollection(ctx, "docs"))

	first := []*schema.Document{{ID: "doc_0_chunk_0", Text: "viejo", Embedding: []float32{1, 0}, Metadata: map[string]interface{}{}}}
	require.NoError(t, store.Add(ctx, "docs", first))
	second := []*schema.Document{{ID: "doc_0_chunk_0", Text: "nuevo", Embedding: []float32{1, 0}, Metadata: map[string]interface{}{}}}
	require.NoError(t, store.Add(ctx, "docs", second))

	matches, err := store.Query(ctx, "docs", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "nuevo", matches[0].Text)
}

func TestSQLiteStoreClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 2)
	require.NoError(t, store.GetOrCreateCollection(ctx, "docs"))
	require.NoError(t, store.Add(ctx, "docs", []*schema.Document{
		{ID: "doc_0_chunk_0", Text: "x", Embedding: []float32{1, 0}, Metadata: map[string]interface{}{}},
	}))

	require.NoError(t, store.Clear(ctx, "docs"))
	require.NoError(t, store.Clear(ctx, "docs"))
	require.NoError(t, store.Clear(ctx, "never_existed"))

	matches, err := store.Query(ctx, "docs", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0.0, cosineDistance([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 1.0, cosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, 2.0, cosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.InDelta(t, 1.0, cosineDistance([]float32{0, 0}, []float32{1, 0}), 1e-9)
}

func TestClampRelevance(t *testing.T) {
	assert.Equal(t, 0.0, clampRelevance(-0.5))
	assert.Equal(t, 0.5, clampRelevance(0.5))
	assert.Equal(t, 1.0, clampRelevance(1.5))
}
