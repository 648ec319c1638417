package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/adapters/driven/storage/memory"
	"github.com/docfold/docfold-cli/internal/core/domain"
)

func newTestRegistry(t *testing.T) (*DocumentRegistry, *memory.DocStore, string) {
	t.Helper()
	store := memory.NewDocStore()
	uploads := filepath.Join(t.TempDir(), "uploads")
	reg := NewDocumentRegistry(store, newMockExtractor(), uploads)
	return reg, store, uploads
}

func writeUpload(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegisterNewDocument(t *testing.T) {
	reg, store, uploads := newTestRegistry(t)

	path := writeUpload(t, "notes.txt", "some notes about things")
	doc, err := reg.Register(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, doc.Status)
	assert.Equal(t, "notes.txt", doc.Filename)
	assert.Equal(t, "txt", doc.Ext)
	assert.Equal(t, int64(23), doc.SizeBytes)
	assert.Len(t, doc.SHA256, 64)

	// The upload was copied under the uploads dir, named by document ID.
	assert.Equal(t, filepath.Join(uploads, doc.ID+"_notes.txt"), doc.Path)
	data, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, "some notes about things", string(data))

	stored, err := store.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestRegisterDuplicateContent(t *testing.T) {
	reg, store, _ := newTestRegistry(t)

	first, err := reg.Register(context.Background(), writeUpload(t, "a.txt", "identical bytes"))
	require.NoError(t, err)

	// Same content under a different name is still a duplicate.
	second, err := reg.Register(context.Background(), writeUpload(t, "b.txt", "identical bytes"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "duplicate reports the existing document")
	assert.Equal(t, domain.StatusDuplicate, second.Status)

	// The stored row keeps its real status; DUPLICATE is report-only.
	stored, err := store.GetDocument(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)

	docs, err := store.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1, "no second document created")
}

func TestRegisterUnsupportedExtension(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	path := writeUpload(t, "binary.exe", "MZ")
	_, err := reg.Register(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestRegisterMissingFile(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	_, err := reg.Register(context.Background(), "/nonexistent/file.txt")
	assert.Error(t, err)
}

func TestRegisterSanitisesFilename(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	path := writeUpload(t, "my report (final).txt", "content")
	doc, err := reg.Register(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "my_report__final_.txt", doc.Filename)
}

func TestListReturnsChunkCounts(t *testing.T) {
	reg, store, _ := newTestRegistry(t)

	doc, err := reg.Register(context.Background(), writeUpload(t, "a.txt", "content a"))
	require.NoError(t, err)

	require.NoError(t, store.InsertChunks(context.Background(), []domain.Chunk{
		{ID: domain.ChunkID(doc.ID, 0), DocumentID: doc.ID, Seq: 0, Text: "content"},
		{ID: domain.ChunkID(doc.ID, 1), DocumentID: doc.ID, Seq: 1, Text: "a"},
	}))

	infos, err := reg.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 2, infos[0].ChunkCount)
}

func TestChunkLookup(t *testing.T) {
	reg, store, _ := newTestRegistry(t)

	doc, err := reg.Register(context.Background(), writeUpload(t, "a.txt", "content a"))
	require.NoError(t, err)

	require.NoError(t, store.InsertChunks(context.Background(), []domain.Chunk{
		{ID: domain.ChunkID(doc.ID, 3), DocumentID: doc.ID, Seq: 3, Text: "third"},
	}))

	chunk, err := reg.Chunk(context.Background(), doc.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "third", chunk.Text)

	_, err = reg.Chunk(context.Background(), doc.ID, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
