package extract

import (
	"context"
	"fmt"
	"os"

	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure Plaintext implements the interface.
var _ driven.TextExtractor = (*Plaintext)(nil)

// Plaintext handles text-native formats. The whole file becomes a single
// unpaginated page.
type Plaintext struct{}

// NewPlaintext creates a plain text extractor.
func NewPlaintext() *Plaintext {
	return &Plaintext{}
}

// Supports reports whether ext is a text-native format.
func (p *Plaintext) Supports(ext string) bool {
	switch ext {
	case "txt", "md":
		return true
	}
	return false
}

// Extract reads the file as UTF-8 text.
func (p *Plaintext) Extract(_ context.Context, path, _ string) ([]driven.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return []driven.Page{{Number: 0, Text: string(data)}}, nil
}
