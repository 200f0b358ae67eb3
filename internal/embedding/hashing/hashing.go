package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultDimension keeps local vectors small while leaving enough
// buckets to make token collisions rare for ordinary documents.
const DefaultDimension = 512

// Embedder is a deterministic local vectorizer using the hashing trick:
// each token is hashed into a fixed number of signed buckets and the
// resulting term-frequency vector is L2-normalized. It needs no corpus
// preparation and no network, which makes it the offline default and
// the embedder used in tests.
type Embedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEmbedder creates a hashing embedder with the given dimension
// (DefaultDimension when non-positive).
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hashing" }

// Dimension returns the fixed dimensionality of produced vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// EmbedQuery embeds a single query string.
func (e *Embedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.vectorize(text), nil
}

// EmbedDocuments embeds a batch of texts, one vector per input.
func (e *Embedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vectorize(t)
	}
	return out, nil
}

func (e *Embedder) vectorize(text string) []float32 {
	vec := make([]float32, e.dimension)
	total := 0
	for _, tok := range e.tokenize(text) {
		bucket, sign := e.hash(tok)
		vec[bucket] += sign
		total++
	}
	if total == 0 {
		return vec
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

// hash maps a token to a bucket index and a +1/-1 sign. The sign bit
// keeps hash collisions from only ever accumulating, which preserves
// more of the inner-product structure.
func (e *Embedder) hash(token string) (int, float32) {
	h := fnv.New32a()
	h.Write([]byte(token))
	sum := h.Sum32()
	bucket := int(sum % uint32(e.dimension))
	sign := float32(1)
	if sum&0x80000000 != 0 {
		sign = -1
	}
	return bucket, sign
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
