package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"docfind/internal/domain"
	"docfind/internal/embedding"
	"docfind/internal/vectorstore"
)

// pagePrefixLen is how many leading characters of a chunk are matched
// against page text for page attribution.
const pagePrefixLen = 100

// Pipeline orchestrates ingestion: chunk the raw text, batch-embed the
// chunks, attach page and document metadata, and persist everything in
// one store insert. Chunks exist only inside a single Ingest call; the
// store owns all persisted state.
type Pipeline struct {
	splitter domain.Splitter
	embedder embedding.Provider
	store    vectorstore.Storage
	log      *log.Logger
}

// NewPipeline wires the pipeline from explicit handles. Nothing here is
// global: multiple pipelines over distinct stores can coexist.
func NewPipeline(splitter domain.Splitter, embedder embedding.Provider, store vectorstore.Storage, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{splitter: splitter, embedder: embedder, store: store, log: logger.With("component", "ingest")}
}

// Ingest chunks, embeds, and stores rawText under a fresh document id.
// Pages, when provided, drive best-effort page attribution. Text that
// chunks to nothing returns StatusEmpty without touching the embedder
// or the store. On embedding failure nothing is stored.
func (p *Pipeline) Ingest(ctx context.Context, rawText string, pages []domain.PageSegment, filename string) (domain.IngestResult, error) {
	docID := newDocumentID()

	chunks := p.splitter.Split(rawText)
	if len(chunks) == 0 {
		p.log.Info("document produced no chunks", "document_id", docID, "filename", filename)
		return domain.IngestResult{DocumentID: docID, Filename: filename, Status: domain.StatusEmpty}, nil
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("service: embed %d chunks of %q: %w", len(chunks), filename, err)
	}
	if len(vectors) != len(chunks) {
		return domain.IngestResult{}, fmt.Errorf("service: embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	indexedAt := time.Now().UTC().Format(time.RFC3339)
	records := make([]domain.EmbeddingRecord, len(chunks))
	for i, text := range chunks {
		records[i] = domain.EmbeddingRecord{
			ID:         fmt.Sprintf("%s_%d", docID, i),
			DocumentID: docID,
			Filename:   filename,
			ChunkIndex: i,
			Text:       text,
			Vector:     vectors[i],
			PageNumber: attributePage(text, pages),
			IndexedAt:  indexedAt,
		}
	}

	if err := p.store.Insert(ctx, records); err != nil {
		return domain.IngestResult{}, fmt.Errorf("service: store %d records of %q: %w", len(records), filename, err)
	}
	p.log.Info("document indexed", "document_id", docID, "filename", filename, "chunks", len(records))
	return domain.IngestResult{DocumentID: docID, Filename: filename, Chunks: len(records), Status: domain.StatusIndexed}, nil
}

// newDocumentID returns a fresh, globally unique document id. Ids are
// never derived from filenames, so re-ingesting the same file yields a
// new document.
func newDocumentID() string {
	id := uuid.New()
	return fmt.Sprintf("doc_%x", id[:4])
}

// attributePage finds the first page whose text contains the chunk's
// leading characters. The heuristic misattributes chunks that straddle
// page boundaries or whose prefix recurs on several pages; 0 means no
// attribution.
func attributePage(chunk string, pages []domain.PageSegment) int {
	if len(pages) == 0 {
		return 0
	}
	prefix := chunk
	if runes := []rune(chunk); len(runes) > pagePrefixLen {
		prefix = string(runes[:pagePrefixLen])
	}
	for _, page := range pages {
		if strings.Contains(page.Text, prefix) {
			return page.PageNumber
		}
	}
	return 0
}
