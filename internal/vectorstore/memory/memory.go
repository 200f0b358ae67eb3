package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"docfind/internal/domain"
	"docfind/internal/vectorstore"
)

// Store is an in-memory vector store with brute-force L2 search. It
// implements the same contract as the sqlite store, including the
// destructive re-initialization on dimension change, and exists for
// tests and fully offline runs.
type Store struct {
	mu          sync.RWMutex
	dimension   int
	records     []domain.EmbeddingRecord
	initialized bool
}

// New creates an empty, uninitialized store.
func New() *Store { return &Store{} }

// Init prepares the store for the given dimension. A dimension change
// discards all held records, mirroring the file-backed migration.
func (s *Store) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("memory: invalid dimension %d", dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized && s.dimension != dimension {
		s.records = nil
	}
	s.dimension = dimension
	s.initialized = true
	return nil
}

// Insert appends records after checking their dimension. No dedup.
func (s *Store) Insert(_ context.Context, records []domain.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return vectorstore.ErrNotInitialized
	}
	for i := range records {
		if len(records[i].Vector) != s.dimension {
			return fmt.Errorf("memory: record %q dimension mismatch (got %d want %d)",
				records[i].ID, len(records[i].Vector), s.dimension)
		}
	}
	s.records = append(s.records, records...)
	return nil
}

// Search returns up to topK records by descending similarity score.
func (s *Store) Search(_ context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, vectorstore.ErrNotInitialized
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("memory: query dimension mismatch (got %d want %d)", len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = 5
	}
	results := make([]domain.SearchResult, 0, len(s.records))
	for i := range s.records {
		rec := &s.records[i]
		results = append(results, domain.SearchResult{
			Text:       rec.Text,
			Score:      1.0 / (1.0 + l2Distance(rec.Vector, vector)),
			DocumentID: rec.DocumentID,
			Filename:   rec.Filename,
			ChunkIndex: rec.ChunkIndex,
			PageNumber: rec.PageNumber,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteDocument removes all records of the document and returns the
// count removed.
func (s *Store) DeleteDocument(_ context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return 0, vectorstore.ErrNotInitialized
	}
	kept := s.records[:0]
	removed := 0
	for i := range s.records {
		if s.records[i].DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, s.records[i])
	}
	s.records = kept
	return removed, nil
}

// ListDocuments aggregates one summary per distinct document id.
func (s *Store) ListDocuments(_ context.Context) ([]domain.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, vectorstore.ErrNotInitialized
	}
	byID := make(map[string]int)
	var docs []domain.DocumentSummary
	for i := range s.records {
		rec := &s.records[i]
		if idx, ok := byID[rec.DocumentID]; ok {
			docs[idx].Chunks++
			continue
		}
		byID[rec.DocumentID] = len(docs)
		docs = append(docs, domain.DocumentSummary{
			ID:        rec.DocumentID,
			Filename:  rec.Filename,
			Chunks:    1,
			IndexedAt: rec.IndexedAt,
		})
	}
	return docs, nil
}

// Stats returns document and record counts.
func (s *Store) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return domain.StoreStats{}, vectorstore.ErrNotInitialized
	}
	seen := make(map[string]struct{})
	for i := range s.records {
		seen[s.records[i].DocumentID] = struct{}{}
	}
	return domain.StoreStats{Documents: len(seen), TotalChunks: len(s.records)}, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

var _ vectorstore.Storage = (*Store)(nil)
