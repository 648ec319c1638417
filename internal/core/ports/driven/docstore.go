package driven

import (
	"context"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// DocumentStore persists documents, chunks and settings.
// It owns write atomicity per call; callers never hold long-lived
// in-memory copies of its rows.
type DocumentStore interface {
	// UpsertDocument inserts or updates a document by ID.
	// The content hash carries a unique constraint.
	UpsertDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByHash retrieves a document by content hash.
	// Returns domain.ErrNotFound if no document has the hash.
	GetDocumentByHash(ctx context.Context, sha256 string) (*domain.Document, error)

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ListDocumentsWithCounts returns all documents with their chunk
	// counts, newest first.
	ListDocumentsWithCounts(ctx context.Context) ([]domain.DocumentInfo, error)

	// UpdateDocumentStatus sets the lifecycle status. Idempotent.
	UpdateDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus) error

	// InsertChunks upserts chunk rows by ID. On conflict an existing
	// embedding is preserved when the incoming value is nil, so
	// re-running extraction never discards computed embeddings.
	InsertChunks(ctx context.Context, chunks []domain.Chunk) error

	// ChunksForDocument returns a document's chunks ordered by sequence.
	ChunksForDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// AllEmbeddedChunks returns every chunk with a non-nil embedding,
	// ordered by (document ID, sequence). The vector index's positional
	// mapping is defined against exactly this ordering.
	AllEmbeddedChunks(ctx context.Context) ([]domain.Chunk, error)

	// FindChunk retrieves one chunk by document and sequence number.
	FindChunk(ctx context.Context, documentID string, seq int) (*domain.Chunk, error)

	// GetSetting returns a settings value, or domain.ErrNotFound.
	GetSetting(ctx context.Context, key string) (string, error)

	// SetSetting stores a settings value.
	SetSetting(ctx context.Context, key, value string) error

	// Close releases resources.
	Close() error
}
