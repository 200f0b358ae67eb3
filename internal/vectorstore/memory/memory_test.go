package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfind/internal/domain"
	"docfind/internal/vectorstore"
)

func record(docID string, idx int, vec []float32) domain.EmbeddingRecord {
	return domain.EmbeddingRecord{
		ID:         docID + "_" + string(rune('0'+idx)),
		DocumentID: docID,
		Filename:   docID + ".txt",
		ChunkIndex: idx,
		Text:       "chunk of " + docID,
		Vector:     vec,
		IndexedAt:  "2026-01-02T03:04:05Z",
	}
}

func TestUninitializedOperationsFail(t *testing.T) {
	s := New()
	ctx := context.Background()
	err := s.Insert(ctx, nil)
	assert.ErrorIs(t, err, vectorstore.ErrNotInitialized)
	_, err = s.Search(ctx, []float32{1}, 5)
	assert.ErrorIs(t, err, vectorstore.ErrNotInitialized)
	_, err = s.Stats(ctx)
	assert.ErrorIs(t, err, vectorstore.ErrNotInitialized)
}

func TestRoundTripAndOrdering(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Insert(ctx, []domain.EmbeddingRecord{
		record("doc_a", 0, []float32{1, 0}),
		record("doc_b", 0, []float32{0, 1}),
	}))

	results, err := s.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc_a", results[0].DocumentID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestDeleteAndStats(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Insert(ctx, []domain.EmbeddingRecord{
		record("doc_a", 0, []float32{1, 0}),
		record("doc_a", 1, []float32{0, 1}),
		record("doc_b", 0, []float32{1, 1}),
	}))

	n, err := s.DeleteDocument(ctx, "doc_a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.DeleteDocument(ctx, "doc_a")
	require.NoError(t, err)
	assert.Zero(t, n)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStats{Documents: 1, TotalChunks: 1}, stats)

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc_b", docs[0].ID)
}

func TestReinitWithNewDimensionClears(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Insert(ctx, []domain.EmbeddingRecord{record("doc_a", 0, []float32{1, 0})}))

	require.NoError(t, s.Init(ctx, 3))
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStats{}, stats)
}
