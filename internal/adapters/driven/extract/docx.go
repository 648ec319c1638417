package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure DOCX implements the interface.
var _ driven.TextExtractor = (*DOCX)(nil)

// DOCX extracts paragraph text from Word documents. DOCX has no fixed
// page layout, so the whole document becomes a single unpaginated page.
type DOCX struct{}

// NewDOCX creates a DOCX extractor.
func NewDOCX() *DOCX {
	return &DOCX{}
}

// Supports reports whether ext is docx.
func (d *DOCX) Supports(ext string) bool {
	return ext == "docx"
}

// Extract opens the file as a ZIP archive and pulls paragraph text out
// of word/document.xml.
func (d *DOCX) Extract(_ context.Context, path, _ string) ([]driven.Page, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", domain.ErrInvalidInput)
	}
	defer reader.Close()

	text, err := extractDocumentText(&reader.Reader)
	if err != nil {
		return nil, err
	}
	return []driven.Page{{Number: 0, Text: text}}, nil
}

// extractDocumentText extracts text from word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", domain.ErrInvalidInput
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", domain.ErrInvalidInput
		}

		return parseDocumentXML(content), nil
	}
	return "", nil
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML extracts text content from the document XML.
func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, text := range r.Text {
				result.WriteString(text.Content)
			}
		}
	}

	return strings.TrimSpace(result.String())
}
