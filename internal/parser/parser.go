package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"docfind/internal/domain"
)

// Parsed is the extraction result handed to the ingestion pipeline.
// Pages is populated only for formats with a native page structure.
type Parsed struct {
	Text     string
	Filename string
	Pages    []domain.PageSegment
}

// Parse extracts text from the file at path. Plain text and markdown
// are read as-is; PDFs are extracted page by page so the pipeline can
// attribute chunks to pages. Unsupported extensions are an error.
func Parse(path string) (Parsed, error) {
	filename := filepath.Base(path)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return Parsed{}, fmt.Errorf("parser: read %q: %w", path, err)
		}
		return Parsed{Text: string(data), Filename: filename}, nil
	case ".pdf":
		text, pages, err := parsePDF(path)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Text: text, Filename: filename, Pages: pages}, nil
	default:
		return Parsed{}, fmt.Errorf("parser: unsupported file type %q", ext)
	}
}

func parsePDF(path string) (string, []domain.PageSegment, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("parser: open pdf %q: %w", path, err)
	}
	defer f.Close()

	var (
		pages []domain.PageSegment
		parts []string
	)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return "", nil, fmt.Errorf("parser: extract page %d of %q: %w", i, path, err)
		}
		pages = append(pages, domain.PageSegment{PageNumber: i, Text: text})
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n"), pages, nil
}
