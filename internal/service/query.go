package service

import (
	"context"
	"fmt"

	"docfind/internal/domain"
	"docfind/internal/embedding"
	"docfind/internal/vectorstore"
)

// Query embeds a query string on the provider's query path and ranks
// stored chunks against it.
type Query struct {
	embedder embedding.Provider
	store    vectorstore.Storage
}

// NewQuery wires a query service from explicit handles.
func NewQuery(embedder embedding.Provider, store vectorstore.Storage) *Query {
	return &Query{embedder: embedder, store: store}
}

// Search returns up to topK results ordered by descending similarity.
// An empty store yields an empty result, not an error.
func (q *Query) Search(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	vec, err := q.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("service: embed query: %w", err)
	}
	results, err := q.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("service: search: %w", err)
	}
	return results, nil
}

// Delete removes a document and all of its chunks, returning the number
// of chunks removed.
func (q *Query) Delete(ctx context.Context, documentID string) (int, error) {
	return q.store.DeleteDocument(ctx, documentID)
}
