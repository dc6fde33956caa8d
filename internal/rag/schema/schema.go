package schema

const (
	// MetadataKeyFileName is the key for the source file name.
	MetadataKeyFileName = "archivo"
	// MetadataKeyDocType is the key for the logical document type
	// (e.g. "estado_financiero", "datos_sociales").
	MetadataKeyDocType = "tipo"
	// MetadataKeyDocumentID is the key for the source document ordinal.
	MetadataKeyDocumentID = "documento_id"
	// MetadataKeyChunkIndex is the key for the chunk position within its document.
	MetadataKeyChunkIndex = "chunk_index"
	// MetadataKeyTotalChunks is the key for the total chunk count of the document.
	MetadataKeyTotalChunks = "total_chunks"
	// MetadataKeyTextLength is the key for the chunk character length.
	MetadataKeyTextLength = "texto_length"
)

// Document is the central data structure representing a piece of text and its
// associated data. It is the primary carrier throughout the indexing and
// retrieval pipelines.
type Document struct {
	// ID is the unique identifier for this document chunk within a collection.
	// Chunk IDs are derived from the source document and chunk position
	// ("doc_{docID}_chunk_{chunkIndex}") and are stable across re-indexing.
	ID string

	// Text is the string content of the document chunk.
	Text string

	// Embedding is the vector representation of the text. Its length equals
	// the dimension the collection was created with.
	Embedding []float32

	// Metadata holds arbitrary data about the document.
	Metadata map[string]interface{}
}

// RetrievedMatch is a query result: a stored document together with its
// distance to the query vector and the derived relevance score.
type RetrievedMatch struct {
	Text     string
	Metadata map[string]interface{}

	// Distance is the raw metric reported by the backing store.
	Distance float64

	// Relevance is 1 - Distance clamped to [0,1]. Higher is more similar.
	Relevance float64
}

// SourceDocument is a raw input to the indexing pipeline: full text plus
// metadata carried onto every chunk derived from it.
type SourceDocument struct {
	Content  string
	Metadata map[string]interface{}
}
