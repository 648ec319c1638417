package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func testDoc(id, hash string) *domain.Document {
	return &domain.Document{
		ID:        id,
		Filename:  id + ".txt",
		Ext:       "txt",
		Path:      "/tmp/" + id + ".txt",
		SizeBytes: 42,
		SHA256:    hash,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestUpsertAndGetDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("doc_1", "hash-1")
	require.NoError(t, store.UpsertDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc_1")
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.Equal(t, doc.SHA256, got.SHA256)
	assert.Equal(t, domain.StatusPending, got.Status)

	// Upsert by same ID updates in place.
	doc.Status = domain.StatusReady
	require.NoError(t, store.UpsertDocument(ctx, doc))

	got, err = store.GetDocument(ctx, "doc_1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, got.Status)
}

func TestGetDocumentNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetDocumentByHash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc_1", "hash-1")))

	got, err := store.GetDocumentByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "doc_1", got.ID)

	_, err = store.GetDocumentByHash(ctx, "hash-other")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContentHashUniqueConstraint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc_1", "same-hash")))

	// A second document with the same hash violates the constraint.
	err := store.UpsertDocument(ctx, testDoc("doc_2", "same-hash"))
	assert.Error(t, err)
}

func TestUpdateDocumentStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc_1", "hash-1")))
	require.NoError(t, store.UpdateDocumentStatus(ctx, "doc_1", domain.ErrorStatus("boom")))

	got, err := store.GetDocument(ctx, "doc_1")
	require.NoError(t, err)
	assert.True(t, got.Status.IsError())

	// Idempotent.
	require.NoError(t, store.UpdateDocumentStatus(ctx, "doc_1", domain.ErrorStatus("boom")))
}

func TestInsertChunksPreservesEmbeddingOnNilUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc_1", "hash-1")))

	chunk := domain.Chunk{
		ID:         domain.ChunkID("doc_1", 0),
		DocumentID: "doc_1",
		Seq:        0,
		Text:       "hello",
		Embedding:  []float32{0.1, 0.2, 0.3},
	}
	require.NoError(t, store.InsertChunks(ctx, []domain.Chunk{chunk}))

	// Re-insert the same chunk without an embedding, as re-extraction does.
	chunk.Embedding = nil
	chunk.Text = "hello again"
	require.NoError(t, store.InsertChunks(ctx, []domain.Chunk{chunk}))

	got, err := store.ChunksForDocument(ctx, "doc_1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello again", got[0].Text)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got[0].Embedding)

	// A non-nil embedding replaces the stored one.
	chunk.Embedding = []float32{0.9, 0.9, 0.9}
	require.NoError(t, store.InsertChunks(ctx, []domain.Chunk{chunk}))

	got, err = store.ChunksForDocument(ctx, "doc_1")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.9, 0.9, 0.9}, got[0].Embedding)
}

func TestChunkPageRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc_1", "hash-1")))

	page := 3
	chunks := []domain.Chunk{
		{ID: domain.ChunkID("doc_1", 0), DocumentID: "doc_1", Seq: 0, Text: "paged", Page: &page},
		{ID: domain.ChunkID("doc_1", 1), DocumentID: "doc_1", Seq: 1, Text: "unpaged"},
	}
	require.NoError(t, store.InsertChunks(ctx, chunks))

	got, err := store.ChunksForDocument(ctx, "doc_1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Page)
	assert.Equal(t, 3, *got[0].Page)
	assert.Nil(t, got[1].Page)
}

func TestAllEmbeddedChunksOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc_a", "hash-a")))
	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc_b", "hash-b")))

	vec := []float32{1}
	chunks := []domain.Chunk{
		{ID: domain.ChunkID("doc_b", 0), DocumentID: "doc_b", Seq: 0, Text: "b0", Embedding: vec},
		{ID: domain.ChunkID("doc_a", 1), DocumentID: "doc_a", Seq: 1, Text: "a1", Embedding: vec},
		{ID: domain.ChunkID("doc_a", 0), DocumentID: "doc_a", Seq: 0, Text: "a0", Embedding: vec},
		{ID: domain.ChunkID("doc_b", 1), DocumentID: "doc_b", Seq: 1, Text: "b1"}, // not embedded
	}
	require.NoError(t, store.InsertChunks(ctx, chunks))

	got, err := store.AllEmbeddedChunks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a0", got[0].Text)
	assert.Equal(t, "a1", got[1].Text)
	assert.Equal(t, "b0", got[2].Text)
}

func TestFindChunk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc_1", "hash-1")))
	require.NoError(t, store.InsertChunks(ctx, []domain.Chunk{
		{ID: domain.ChunkID("doc_1", 5), DocumentID: "doc_1", Seq: 5, Text: "five"},
	}))

	got, err := store.FindChunk(ctx, "doc_1", 5)
	require.NoError(t, err)
	assert.Equal(t, "five", got.Text)

	_, err = store.FindChunk(ctx, "doc_1", 6)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSettings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetSetting(ctx, "embed_model")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.SetSetting(ctx, "embed_model", "text-embedding-3-small"))
	require.NoError(t, store.SetSetting(ctx, "embed_model", "text-embedding-3-large"))

	val, err := store.GetSetting(ctx, "embed_model")
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large", val)
}

func TestListDocumentsWithCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("doc_1", "hash-1")
	require.NoError(t, store.UpsertDocument(ctx, doc))
	require.NoError(t, store.InsertChunks(ctx, []domain.Chunk{
		{ID: domain.ChunkID("doc_1", 0), DocumentID: "doc_1", Seq: 0, Text: "a"},
		{ID: domain.ChunkID("doc_1", 1), DocumentID: "doc_1", Seq: 1, Text: "b"},
	}))

	infos, err := store.ListDocumentsWithCounts(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 2, infos[0].ChunkCount)
}
