package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Client is an OpenAI-compatible embeddings client. It supports
// asymmetric encoding: query texts and document texts get distinct
// prefixes for models that are trained that way (e.g. the nomic
// embed-text family). Mixing the two paths degrades retrieval quality,
// so callers must use EmbedQuery for queries and EmbedDocuments for
// chunks.
type Client struct {
	baseURL        string
	apiKey         string
	model          string
	queryPrefix    string
	documentPrefix string
	batchSize      int
	dimension      int
	client         *http.Client
	maxRetries     int
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	BatchSize int
	// QueryPrefix and DocumentPrefix override the model-derived task
	// prefixes when non-empty.
	QueryPrefix    string
	DocumentPrefix string
}

// taskPrefixModels maps model-name substrings to (query, document)
// prefixes for models that require task-specific prefixes.
var taskPrefixModels = map[string][2]string{
	"nomic-embed-text": {"search_query: ", "search_document: "},
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("openai: missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	qp, dp := taskPrefixes(cfg.Model)
	if cfg.QueryPrefix != "" {
		qp = cfg.QueryPrefix
	}
	if cfg.DocumentPrefix != "" {
		dp = cfg.DocumentPrefix
	}
	return &Client{
		baseURL:        cfg.BaseURL,
		apiKey:         key,
		model:          cfg.Model,
		queryPrefix:    qp,
		documentPrefix: dp,
		batchSize:      cfg.BatchSize,
		client:         &http.Client{Timeout: cfg.Timeout},
		maxRetries:     5,
	}, nil
}

func taskPrefixes(model string) (string, string) {
	lower := strings.ToLower(model)
	for substring, prefixes := range taskPrefixModels {
		if strings.Contains(lower, substring) {
			return prefixes[0], prefixes[1]
		}
	}
	return "", ""
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Dimension returns the vector dimension, or 0 before the first
// successful embedding call.
func (c *Client) Dimension() int { return c.dimension }

// EnsureDimension makes the dimension known, probing the endpoint with
// a short query when it has not been discovered yet.
func (c *Client) EnsureDimension(ctx context.Context) (int, error) {
	if c.dimension > 0 {
		return c.dimension, nil
	}
	if _, err := c.EmbedQuery(ctx, "dimension probe"); err != nil {
		return 0, err
	}
	return c.dimension, nil
}

// EmbedQuery embeds a single query string using the query-path prefix.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embed(ctx, []string{c.queryPrefix + text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedDocuments embeds a batch of document chunks using the
// document-path prefix, preserving input order. Requests are issued in
// sub-batches of the configured batch size.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = c.documentPrefix + t
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(prefixed); start += c.batchSize {
		end := start + c.batchSize
		if end > len(prefixed) {
			end = len(prefixed)
		}
		vecs, err := c.embed(ctx, prefixed[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *Client) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	url := fmt.Sprintf("%s/embeddings", c.baseURL)
	data, err := json.Marshal(embedRequest{Input: inputs, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if attempt < c.maxRetries && ctx.Err() == nil {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			delay := retryDelay(attempt)
			// Respect Retry-After if provided.
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					delay = time.Duration(secs) * time.Second
				}
			}
			_ = resp.Body.Close()
			if attempt < c.maxRetries {
				time.Sleep(delay)
				continue
			}
			return nil, fmt.Errorf("openai: embeddings failed: %s", resp.Status)
		}

		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, fmt.Errorf("openai: embeddings failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, err
		}
		vecs, err := decodeEmbeddings(payload, len(inputs))
		if err != nil {
			return nil, err
		}
		if c.dimension == 0 {
			c.dimension = len(vecs[0])
		}
		return vecs, nil
	}
	return nil, errors.New("openai: no embedding returned")
}

func decodeEmbeddings(payload []byte, want int) ([][]float32, error) {
	var out embedResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(out.Data) != want {
		return nil, fmt.Errorf("openai: got %d embeddings for %d inputs", len(out.Data), want)
	}
	// The API is allowed to reorder entries; the index field is
	// authoritative.
	sort.Slice(out.Data, func(i, j int) bool { return out.Data[i].Index < out.Data[j].Index })
	vecs := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("openai: empty embedding at index %d", d.Index)
		}
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
