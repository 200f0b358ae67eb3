package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"docfind/internal/domain"
	"docfind/internal/vectorstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    text TEXT NOT NULL,
    vector BLOB NOT NULL,
    page_number INTEGER NOT NULL,
    indexed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
CREATE TABLE IF NOT EXISTS store_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const dimensionKey = "dimension"

// Store is an embedded, file-backed vector store on SQLite. Vectors are
// little-endian float32 BLOBs; similarity search is a brute-force scan
// scored by L2 distance. Writes are serialized by a store-level mutex,
// since concurrent insert/delete callers are not serialized anywhere
// above this layer.
type Store struct {
	mu          sync.Mutex
	path        string
	log         *log.Logger
	db          *sql.DB
	dimension   int
	migrated    bool
	initialized bool
}

// New creates a store backed by the SQLite database at path. The file
// and its parent directory are created on Init.
func New(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{path: path, log: logger.With("component", "vectorstore")}
}

// Init opens or creates the backing table for the given vector
// dimension. If the existing table was created for a different
// dimension, it is dropped and recreated: an intentional, destructive
// migration that loses all stored records. It is only safe because the
// caller re-ingests everything after an embedding-model change; the
// event is logged and reported via Migrated.
func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("sqlite: invalid dimension %d", dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("sqlite: ensure directory: %w", err)
		}
		db, err := sql.Open("sqlite", s.path)
		if err != nil {
			return fmt.Errorf("sqlite: open %q: %w", s.path, err)
		}
		s.db = db
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: ensure schema: %w", err)
	}

	stored, err := s.storedDimension(ctx)
	if err != nil {
		return err
	}
	if stored > 0 && stored != dimension {
		s.log.Warn("vector dimension mismatch, dropping table for re-creation",
			"have", stored, "want", dimension, "path", s.path)
		if _, err := s.db.ExecContext(ctx, `DROP TABLE chunks`); err != nil {
			return fmt.Errorf("sqlite: drop chunks table: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("sqlite: recreate schema: %w", err)
		}
		s.migrated = true
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO store_meta(key, value) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		dimensionKey, strconv.Itoa(dimension)); err != nil {
		return fmt.Errorf("sqlite: record dimension: %w", err)
	}
	s.dimension = dimension
	s.initialized = true
	return nil
}

// Migrated reports whether the last Init dropped an existing table due
// to a dimension change.
func (s *Store) Migrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.migrated
}

func (s *Store) storedDimension(ctx context.Context) (int, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM store_meta WHERE key = ?`, dimensionKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: read stored dimension: %w", err)
	}
	dim, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("sqlite: corrupt stored dimension %q: %w", value, err)
	}
	return dim, nil
}

// Insert appends a batch of records in one transaction. There is no
// dedup: re-ingesting a document id without deleting it first leaves
// duplicate entries. Callers update via delete-then-insert.
func (s *Store) Insert(ctx context.Context, records []domain.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return vectorstore.ErrNotInitialized
	}
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks
		(id, document_id, filename, chunk_index, text, vector, page_number, indexed_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		if len(rec.Vector) != s.dimension {
			return fmt.Errorf("sqlite: record %q dimension mismatch (got %d want %d)",
				rec.ID, len(rec.Vector), s.dimension)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.DocumentID, rec.Filename,
			rec.ChunkIndex, rec.Text, encodeVector(rec.Vector), rec.PageNumber,
			rec.IndexedAt); err != nil {
			return fmt.Errorf("sqlite: insert record %q: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit insert: %w", err)
	}
	return nil
}

// Search scans all records, scores them by L2 distance to the query
// vector, and returns up to topK results by descending similarity.
// Ties keep insertion order. An empty store yields an empty result.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return nil, vectorstore.ErrNotInitialized
	}
	dimension := s.dimension
	db := s.db
	s.mu.Unlock()

	if len(vector) != dimension {
		return nil, fmt.Errorf("sqlite: query dimension mismatch (got %d want %d)", len(vector), dimension)
	}
	if topK <= 0 {
		topK = 5
	}

	rows, err := db.QueryContext(ctx, `SELECT document_id, filename, chunk_index,
		text, vector, page_number FROM chunks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan chunks: %w", err)
	}
	defer rows.Close()

	results := make([]domain.SearchResult, 0, topK)
	for rows.Next() {
		var (
			res  domain.SearchResult
			blob []byte
		)
		if err := rows.Scan(&res.DocumentID, &res.Filename, &res.ChunkIndex,
			&res.Text, &blob, &res.PageNumber); err != nil {
			return nil, fmt.Errorf("sqlite: scan row: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		res.Score = 1.0 / (1.0 + l2Distance(vec, vector))
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate rows: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteDocument removes every record of the given document id and
// returns the count removed.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return 0, vectorstore.ErrNotInitialized
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete document %q: %w", documentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: count deleted rows: %w", err)
	}
	return int(n), nil
}

// ListDocuments returns one summary per distinct document id, with the
// first-seen filename and timestamp and the total chunk count.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return nil, vectorstore.ErrNotInitialized
	}
	db := s.db
	s.mu.Unlock()

	rows, err := db.QueryContext(ctx,
		`SELECT document_id, filename, indexed_at FROM chunks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list documents: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]int)
	var docs []domain.DocumentSummary
	for rows.Next() {
		var id, filename, indexedAt string
		if err := rows.Scan(&id, &filename, &indexedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan document row: %w", err)
		}
		if idx, ok := byID[id]; ok {
			docs[idx].Chunks++
			continue
		}
		byID[id] = len(docs)
		docs = append(docs, domain.DocumentSummary{ID: id, Filename: filename, Chunks: 1, IndexedAt: indexedAt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate document rows: %w", err)
	}
	return docs, nil
}

// Stats returns the distinct document count and the total record count.
func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return domain.StoreStats{}, vectorstore.ErrNotInitialized
	}
	db := s.db
	s.mu.Unlock()

	var stats domain.StoreStats
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT document_id), COUNT(*) FROM chunks`).
		Scan(&stats.Documents, &stats.TotalChunks)
	if err != nil {
		return domain.StoreStats{}, fmt.Errorf("sqlite: read stats: %w", err)
	}
	return stats, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.initialized = false
	return err
}

var _ vectorstore.Storage = (*Store)(nil)
