package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfind/internal/domain"
	"docfind/internal/vectorstore"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docfind.db")
	s := New(path, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func record(docID string, idx int, vec []float32) domain.EmbeddingRecord {
	return domain.EmbeddingRecord{
		ID:         docID + "_" + string(rune('0'+idx)),
		DocumentID: docID,
		Filename:   docID + ".txt",
		ChunkIndex: idx,
		Text:       "chunk " + string(rune('0'+idx)) + " of " + docID,
		Vector:     vec,
		PageNumber: 0,
		IndexedAt:  "2026-01-02T03:04:05Z",
	}
}

func TestInitInvalidDimension(t *testing.T) {
	s, _ := newTestStore(t)
	require.Error(t, s.Init(context.Background(), 0))
}

func TestUninitializedOperationsFail(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	err := s.Insert(ctx, []domain.EmbeddingRecord{record("doc_a", 0, []float32{1})})
	assert.ErrorIs(t, err, vectorstore.ErrNotInitialized)
	_, err = s.Search(ctx, []float32{1}, 5)
	assert.ErrorIs(t, err, vectorstore.ErrNotInitialized)
	_, err = s.DeleteDocument(ctx, "doc_a")
	assert.ErrorIs(t, err, vectorstore.ErrNotInitialized)
	_, err = s.ListDocuments(ctx)
	assert.ErrorIs(t, err, vectorstore.ErrNotInitialized)
	_, err = s.Stats(ctx)
	assert.ErrorIs(t, err, vectorstore.ErrNotInitialized)
}

func TestInsertSearchRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 3))

	require.NoError(t, s.Insert(ctx, []domain.EmbeddingRecord{
		record("doc_a", 0, []float32{1, 0, 0}),
		record("doc_a", 1, []float32{0, 1, 0}),
		record("doc_b", 0, []float32{0, 0, 1}),
	}))

	results, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc_a", results[0].DocumentID)
	assert.Equal(t, 0, results[0].ChunkIndex)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Less(t, results[1].Score, results[0].Score)
}

func TestSearchEmptyStore(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 2))

	results, err := s.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchDimensionMismatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 3))
	_, err := s.Search(ctx, []float32{1, 0}, 5)
	require.Error(t, err)
}

func TestInsertDimensionMismatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 3))
	err := s.Insert(ctx, []domain.EmbeddingRecord{record("doc_a", 0, []float32{1, 2})})
	require.Error(t, err)
}

func TestDeleteDocument(t *testing.T) {
	s, _ := newTestStore(t)
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

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc_b", docs[0].ID)

	// Deleting an unknown document is not an error.
	n, err = s.DeleteDocument(ctx, "doc_missing")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListDocumentsAndStats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Insert(ctx, []domain.EmbeddingRecord{
		record("doc_a", 0, []float32{1, 0}),
		record("doc_a", 1, []float32{0, 1}),
		record("doc_b", 0, []float32{1, 1}),
	}))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc_a", docs[0].ID)
	assert.Equal(t, "doc_a.txt", docs[0].Filename)
	assert.Equal(t, 2, docs[0].Chunks)
	assert.Equal(t, "doc_b", docs[1].ID)
	assert.Equal(t, 1, docs[1].Chunks)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStats{Documents: 2, TotalChunks: 3}, stats)
}

func TestDimensionMigrationDropsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docfind.db")
	ctx := context.Background()

	first := New(path, nil)
	require.NoError(t, first.Init(ctx, 3))
	require.NoError(t, first.Insert(ctx, []domain.EmbeddingRecord{
		record("doc_a", 0, []float32{1, 0, 0}),
	}))
	require.NoError(t, first.Close())

	second := New(path, nil)
	defer second.Close()
	require.NoError(t, second.Init(ctx, 4))
	assert.True(t, second.Migrated())

	stats, err := second.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStats{}, stats)

	// New-dimension records are accepted after the migration.
	require.NoError(t, second.Insert(ctx, []domain.EmbeddingRecord{
		record("doc_c", 0, []float32{1, 0, 0, 0}),
	}))
}

func TestReinitSameDimensionKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docfind.db")
	ctx := context.Background()

	first := New(path, nil)
	require.NoError(t, first.Init(ctx, 2))
	require.NoError(t, first.Insert(ctx, []domain.EmbeddingRecord{
		record("doc_a", 0, []float32{1, 0}),
	}))
	require.NoError(t, first.Close())

	second := New(path, nil)
	defer second.Close()
	require.NoError(t, second.Init(ctx, 2))
	assert.False(t, second.Migrated())

	stats, err := second.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStats{Documents: 1, TotalChunks: 1}, stats)
}

func TestVectorEncodingRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.75, 0}
	out, err := decodeVector(encodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeVector([]byte{1, 2, 3})
	require.Error(t, err)
}
