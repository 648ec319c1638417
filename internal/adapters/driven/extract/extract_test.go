package extract

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeDOCX builds a minimal valid DOCX archive with the given paragraphs.
func writeDOCX(t *testing.T, paragraphs []string) string {
	t.Helper()

	var body string
	for _, p := range paragraphs {
		body += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	documentXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body + `</w:body>
</w:document>`

	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return path
}

func TestRegistrySupports(t *testing.T) {
	reg := NewRegistry()

	assert.True(t, reg.Supports("txt"))
	assert.True(t, reg.Supports("md"))
	assert.True(t, reg.Supports("pdf"))
	assert.True(t, reg.Supports("docx"))
	assert.True(t, reg.Supports(".TXT"), "extension matching is case-insensitive")
	assert.False(t, reg.Supports("exe"))
	assert.False(t, reg.Supports(""))
}

func TestRegistryUnsupportedFormat(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Extract(context.Background(), "whatever.xyz", "xyz")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestPlaintextExtract(t *testing.T) {
	reg := NewRegistry()
	path := writeFile(t, "notes.txt", "hello world\nsecond line")

	pages, err := reg.Extract(context.Background(), path, "txt")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 0, pages[0].Number, "plain text is unpaginated")
	assert.Equal(t, "hello world\nsecond line", pages[0].Text)
}

func TestMarkdownExtract(t *testing.T) {
	reg := NewRegistry()
	path := writeFile(t, "readme.md", "# Title\n\nBody text.")

	pages, err := reg.Extract(context.Background(), path, ".md")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Text, "# Title")
}

func TestPlaintextMissingFile(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Extract(context.Background(), "/nonexistent/file.txt", "txt")
	assert.Error(t, err)
}

func TestDOCXExtract(t *testing.T) {
	reg := NewRegistry()
	path := writeDOCX(t, []string{"First paragraph", "Second paragraph"})

	pages, err := reg.Extract(context.Background(), path, "docx")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 0, pages[0].Number)
	assert.Equal(t, "First paragraph\nSecond paragraph", pages[0].Text)
}

func TestDOCXNotAZip(t *testing.T) {
	reg := NewRegistry()
	path := writeFile(t, "fake.docx", "this is not a zip archive")

	_, err := reg.Extract(context.Background(), path, "docx")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDOCXMissingDocumentXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("other.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("irrelevant"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	reg := NewRegistry()
	pages, err := reg.Extract(context.Background(), path, "docx")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Empty(t, pages[0].Text)
}
