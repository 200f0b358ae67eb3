package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbedServer(t *testing.T, dim int, record *[][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if record != nil {
			*record = append(*record, req.Input)
		}
		var resp embedResponse
		for i := range req.Input {
			vec := make([]float32, dim)
			vec[0] = float32(i + 1)
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: vec})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestAsymmetricPrefixes(t *testing.T) {
	var inputs [][]string
	srv := newEmbedServer(t, 4, &inputs)
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL, Model: "nomic-embed-text-v1.5"})
	ctx := context.Background()

	_, err := c.EmbedQuery(ctx, "what is a chunk")
	require.NoError(t, err)
	_, err = c.EmbedDocuments(ctx, []string{"a chunk is a passage"})
	require.NoError(t, err)

	require.Len(t, inputs, 2)
	assert.Equal(t, "search_query: what is a chunk", inputs[0][0])
	assert.Equal(t, "search_document: a chunk is a passage", inputs[1][0])
}

func TestPrefixOverrides(t *testing.T) {
	var inputs [][]string
	srv := newEmbedServer(t, 4, &inputs)
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL, QueryPrefix: "q: ", DocumentPrefix: "d: "})
	_, err := c.EmbedQuery(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "q: x", inputs[0][0])
}

func TestEmbedDocumentsBatchingAndOrder(t *testing.T) {
	var inputs [][]string
	srv := newEmbedServer(t, 3, &inputs)
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL, BatchSize: 2})
	texts := []string{"one", "two", "three", "four", "five"}
	vecs, err := c.EmbedDocuments(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, 5)
	// 5 inputs with batch size 2 -> 3 requests.
	assert.Len(t, inputs, 3)
	assert.Equal(t, 3, c.Dimension())
}

func TestEnsureDimension(t *testing.T) {
	srv := newEmbedServer(t, 8, nil)
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	assert.Equal(t, 0, c.Dimension())
	dim, err := c.EnsureDimension(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, dim)
	assert.Equal(t, 8, c.Dimension())
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Data: []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}{{Index: 0, Embedding: []float32{1, 2}}}})
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	vec, err := c.EmbedQuery(context.Background(), "retry me")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	_, err := c.EmbedQuery(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
