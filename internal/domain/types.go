package domain

// PageSegment is one page of a parsed document, used for best-effort
// page attribution during ingestion.
type PageSegment struct {
	PageNumber int
	Text       string
}

// Chunk is a bounded, possibly overlapping slice of a document's text,
// the unit of embedding and retrieval. It lives only between chunking
// and insertion; the store persists EmbeddingRecords.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
	TokenCount int
	PageNumber int
}

// EmbeddingRecord is the persisted unit of the vector store. ID is
// derived as "{document_id}_{chunk_index}" and is globally unique.
type EmbeddingRecord struct {
	ID         string
	DocumentID string
	Filename   string
	ChunkIndex int
	Text       string
	Vector     []float32
	PageNumber int
	IndexedAt  string
}

// SearchResult is a matching chunk with its similarity score.
// Score is 1/(1+distance): 1.0 for an exact match, approaching 0 as
// distance grows.
type SearchResult struct {
	Text       string
	Score      float64
	DocumentID string
	Filename   string
	ChunkIndex int
	PageNumber int
}

// DocumentSummary describes one ingested document: the first-seen
// filename and timestamp plus the total number of stored chunks.
type DocumentSummary struct {
	ID        string
	Filename  string
	Chunks    int
	IndexedAt string
}

// StoreStats aggregates store contents.
type StoreStats struct {
	Documents   int
	TotalChunks int
}

// Ingestion status values.
const (
	StatusIndexed = "indexed"
	StatusEmpty   = "empty"
)

// IngestResult reports the outcome of one ingestion call.
type IngestResult struct {
	DocumentID string
	Filename   string
	Chunks     int
	Status     string
}
