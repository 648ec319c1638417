package extract

import (
	"context"
	"fmt"

	fitz "github.com/gen2brain/go-fitz"

	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure PDF implements the interface.
var _ driven.TextExtractor = (*PDF)(nil)

// PDF extracts text per page using MuPDF. Page numbers are 1-based and
// carried through to chunks so answers can cite physical pages.
type PDF struct{}

// NewPDF creates a PDF extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// Supports reports whether ext is pdf.
func (p *PDF) Supports(ext string) bool {
	return ext == "pdf"
}

// Extract returns one Page per physical page. Pages that fail to render
// or contain no text are skipped rather than failing the document.
func (p *PDF) Extract(ctx context.Context, path, _ string) ([]driven.Page, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var pages []driven.Page //nolint:prealloc // blank pages are skipped
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(i)
		if err != nil || text == "" {
			continue
		}
		pages = append(pages, driven.Page{Number: i + 1, Text: text})
	}
	return pages, nil
}
