package driven

import "context"

// Page is a unit of extracted text. Number is 1-based for paginated
// formats and 0 for formats without page structure.
type Page struct {
	Number int
	Text   string
}

// TextExtractor turns an uploaded file into raw text.
// Paginated formats return one Page per source page so chunk page
// attribution survives; others return a single Page with Number 0.
type TextExtractor interface {
	// Extract reads the file at path and returns its text.
	// Returns domain.ErrUnsupportedFormat for unknown extensions.
	Extract(ctx context.Context, path, ext string) ([]Page, error)

	// Supports reports whether the extension can be extracted.
	Supports(ext string) bool
}
