package embedding

import "context"

// Provider converts text into fixed-dimension vectors. Implementations
// may encode queries and documents differently (asymmetric prefixes);
// EmbedQuery is the query path and EmbedDocuments the document path, and
// the two must not be mixed.
type Provider interface {
	Name() string
	// Dimension reports the vector length, or 0 if not yet known.
	Dimension() int
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// EmbedDocuments embeds a batch of document chunks, returning one
	// vector per input in the same order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}
