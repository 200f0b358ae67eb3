package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedderDimension(t *testing.T) {
	assert.Equal(t, DefaultDimension, NewEmbedder(0).Dimension())
	assert.Equal(t, 128, NewEmbedder(128).Dimension())
}

func TestEmbedDeterministic(t *testing.T) {
	e := NewEmbedder(256)
	ctx := context.Background()
	a, err := e.EmbedQuery(ctx, "gophers chunk documents into passages")
	require.NoError(t, err)
	b, err := e.EmbedQuery(ctx, "gophers chunk documents into passages")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	require.Len(t, a, 256)
}

func TestEmbedNormalized(t *testing.T) {
	e := NewEmbedder(64)
	vec, err := e.EmbedQuery(context.Background(), "vectors should have unit length after normalization")
	require.NoError(t, err)
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestEmbedStopwordsOnly(t *testing.T) {
	e := NewEmbedder(64)
	vec, err := e.EmbedQuery(context.Background(), "the and of to in")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestEmbedDocumentsOrder(t *testing.T) {
	e := NewEmbedder(64)
	ctx := context.Background()
	texts := []string{"first passage about storage", "second passage about retrieval"}
	vecs, err := e.EmbedDocuments(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	one, err := e.EmbedQuery(ctx, texts[0])
	require.NoError(t, err)
	assert.Equal(t, one, vecs[0])
}
