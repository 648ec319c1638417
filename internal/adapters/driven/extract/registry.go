// Package extract turns uploaded files into extracted pages of text.
// Plain text formats produce a single unpaginated page; PDFs produce one
// page per physical page so chunks can carry page numbers for citations.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// Registry dispatches extraction by file extension.
type Registry struct {
	extractors []driven.TextExtractor
}

// NewRegistry creates a registry with the default extractors: plain
// text (.txt, .md), DOCX, and PDF.
func NewRegistry() *Registry {
	return &Registry{
		extractors: []driven.TextExtractor{
			NewPlaintext(),
			NewDOCX(),
			NewPDF(),
		},
	}
}

// Extract dispatches to the extractor supporting ext. Returns
// ErrUnsupportedFormat when no extractor claims the extension.
func (r *Registry) Extract(ctx context.Context, path, ext string) ([]driven.Page, error) {
	ext = normaliseExt(ext)
	for _, e := range r.extractors {
		if e.Supports(ext) {
			return e.Extract(ctx, path, ext)
		}
	}
	return nil, fmt.Errorf("extension %q: %w", ext, domain.ErrUnsupportedFormat)
}

// Supports reports whether any registered extractor handles ext.
func (r *Registry) Supports(ext string) bool {
	ext = normaliseExt(ext)
	for _, e := range r.extractors {
		if e.Supports(ext) {
			return true
		}
	}
	return false
}

func normaliseExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
