package vectorstore

import (
	"context"
	"errors"

	"docfind/internal/domain"
)

// ErrNotInitialized is returned by every store operation attempted
// before a successful Init.
var ErrNotInitialized = errors.New("vectorstore: store not initialized")

// Storage persists embedding records and supports similarity search.
//
// Init is destructive on dimension mismatch: a store created for one
// vector dimension drops and recreates its table when reopened with a
// different one (see the sqlite implementation). Search returns results
// ordered by descending similarity score, where score = 1/(1+distance).
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Insert(ctx context.Context, records []domain.EmbeddingRecord) error
	Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error)
	// DeleteDocument removes every record of the document and returns
	// the number removed; deleting an unknown id yields 0, not an error.
	DeleteDocument(ctx context.Context, documentID string) (int, error)
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)
	Stats(ctx context.Context) (domain.StoreStats, error)
	Close() error
}
