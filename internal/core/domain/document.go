package domain

import (
	"fmt"
	"strings"
	"time"
)

// DocumentStatus is the lifecycle state of an uploaded document.
// Error states carry their message inline as "ERROR: <msg>".
type DocumentStatus string

// Document lifecycle states.
const (
	StatusPending         DocumentStatus = "PENDING"
	StatusNeedsProcessing DocumentStatus = "NEEDS_PROCESSING"
	StatusReady           DocumentStatus = "READY"
	StatusDuplicate       DocumentStatus = "DUPLICATE"
)

// ErrorStatus builds the status value for a failed document.
func ErrorStatus(msg string) DocumentStatus {
	return DocumentStatus("ERROR: " + msg)
}

// IsError reports whether the status carries an error message.
func (s DocumentStatus) IsError() bool {
	return strings.HasPrefix(string(s), "ERROR:")
}

// Document represents an uploaded file tracked by the row store.
// Content bytes live on disk at Path; the record only carries metadata.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the sanitised display name.
	Filename string

	// Ext is the lowercase extension without the dot (pdf, docx, txt, md).
	Ext string

	// Path is where the uploaded bytes are stored.
	Path string

	// SizeBytes is the upload size.
	SizeBytes int64

	// SHA256 is the content hash, unique across all documents.
	SHA256 string

	// Status is the ingestion lifecycle state.
	Status DocumentStatus

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time
}

// DocumentInfo is a document with its chunk count, for listings.
type DocumentInfo struct {
	Document
	ChunkCount int
}

// Chunk is a contiguous text window from a document, the unit of
// embedding and retrieval.
type Chunk struct {
	// ID is derived deterministically from the document and sequence.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Seq is the zero-based position within the document. Sequence
	// numbers are dense and never reordered after creation.
	Seq int

	// Page is the 1-based source page, nil for unpaginated formats.
	Page *int

	// Text is the chunk content.
	Text string

	// Embedding is nil until the chunk has been embedded.
	Embedding []float32
}

// ChunkID builds the deterministic chunk identity. Re-ingesting a
// document therefore upserts the same rows instead of duplicating them.
func ChunkID(documentID string, seq int) string {
	return fmt.Sprintf("chunk_%s_%d", documentID, seq)
}
