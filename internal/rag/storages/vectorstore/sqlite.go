package vectorstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

// SQLiteStore is the on-disk vector store backing. Collections live in a
// single database file under the configured directory ("data/chromadb" by
// default) so the index survives restarts at a fixed path other components
// rely on. Similarity search is brute-force cosine over the collection, which
// is adequate for per-company document corpora of a few thousand chunks.
type SQLiteStore struct {
	db        *sqlx.DB
	dimension int
	log       *logger.Logger
}

// NewSQLiteStore opens (creating if needed) the database under dir and
// initializes the schema. Any failure here is a fatal storage error.
func NewSQLiteStore(dir string, dimension int, log *logger.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create store directory: %v", interfaces.ErrStorage, err)
	}

	db, err := sqlx.Connect("sqlite3", filepath.Join(dir, "chroma.sqlite3"))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", interfaces.ErrStorage, err)
	}

	store := &SQLiteStore{db: db, dimension: dimension, log: log}
	if err := store.initSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dimension INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			text TEXT NOT NULL,
			embedding BLOB NOT NULL,
			metadata TEXT NOT NULL,
			PRIMARY KEY (collection, id),
			FOREIGN KEY (collection) REFERENCES collections(name)
		)`,
	}
	for _, tableSQL := range tables {
		if _, err := s.db.Exec(tableSQL); err != nil {
			return fmt.Errorf("%w: init schema: %v", interfaces.ErrStorage, err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetOrCreateCollection returns the named collection, creating it with the
// configured dimension when absent. Repeated calls are idempotent.
func (s *SQLiteStore) GetOrCreateCollection(ctx context.Context, name string) error {
	var existing int
	err := s.db.GetContext(ctx, &existing, `SELECT dimension FROM collections WHERE name = ?`, name)
	if err == nil {
		if existing != s.dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, store configured for %d",
				interfaces.ErrStorage, name, existing, s.dimension)
		}
		s.log.Info(fmt.Sprintf("collection '%s' recovered", name))
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (name, dimension) VALUES (?, ?)`, name, s.dimension); err != nil {
		return fmt.Errorf("%w: create collection %s: %v", interfaces.ErrStorage, name, err)
	}
	s.log.Info(fmt.Sprintf("collection '%s' created", name))
	return nil
}

// Add writes the documents into the named collection as one transaction.
// Existing IDs are replaced, which is how chunks are re-indexed.
func (s *SQLiteStore) Add(ctx context.Context, collection string, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin batch: %v", interfaces.ErrStorage, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		`INSERT OR REPLACE INTO documents (collection, id, text, embedding, metadata) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", interfaces.ErrStorage, err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if len(doc.Embedding) != s.dimension {
			return fmt.Errorf("%w: document %s has embedding of length %d, want %d",
				interfaces.ErrStorage, doc.ID, len(doc.Embedding), s.dimension)
		}
		metadata, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("%w: encode metadata for %s: %v", interfaces.ErrStorage, doc.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, doc.ID, doc.Text, encodeVector(doc.Embedding), metadata); err != nil {
			return fmt.Errorf("%w: insert document %s: %v", interfaces.ErrStorage, doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit batch: %v", interfaces.ErrStorage, err)
	}

	s.log.Info(fmt.Sprintf("wrote %d documents into collection '%s'", len(docs), collection))
	return nil
}

// Query returns the topK nearest documents by cosine distance, sorted
// descending by relevance.
func (s *SQLiteStore) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]*schema.RetrievedMatch, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT text, embedding, metadata FROM documents WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: query collection %s: %v", interfaces.ErrStorage, collection, err)
	}
	defer rows.Close()

	var matches []*schema.RetrievedMatch
	for rows.Next() {
		var text string
		var blob []byte
		var metadataJSON string
		if err := rows.Scan(&text, &blob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("%w: scan row: %v", interfaces.ErrStorage, err)
		}

		metadata := map[string]interface{}{}
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			metadata = map[string]interface{}{}
		}

		distance := cosineDistance(embedding, decodeVector(blob))
		matches = append(matches, &schema.RetrievedMatch{
			Text:      text,
			Metadata:  metadata,
			Distance:  distance,
			Relevance: clampRelevance(1 - distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %v", interfaces.ErrStorage, err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Relevance > matches[j].Relevance
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Clear drops the named collection and its documents. Clearing an absent
// collection succeeds.
func (s *SQLiteStore) Clear(ctx context.Context, collection string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin clear: %v", interfaces.ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("%w: clear documents of %s: %v", interfaces.ErrStorage, collection, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, collection); err != nil {
		return fmt.Errorf("%w: clear collection %s: %v", interfaces.ErrStorage, collection, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit clear: %v", interfaces.ErrStorage, err)
	}

	s.log.Info(fmt.Sprintf("collection '%s' cleared", collection))
	return nil
}

// encodeVector serializes a float32 slice as little-endian bytes.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// cosineDistance is 1 - cosine similarity, in [0,2]. A zero vector (the
// embedding-failure substitute) has no direction, so its distance is 1 and
// its relevance 0.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// clampRelevance bounds 1-distance to [0,1] since cosine distance can exceed 1.
func clampRelevance(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

var _ interfaces.VectorStore = (*SQLiteStore)(nil)
