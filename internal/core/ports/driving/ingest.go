package driving

import (
	"context"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// Registrar records uploaded files as documents.
type Registrar interface {
	// Register reads the file at path, hashes it, and creates a
	// PENDING document. A byte-identical prior upload yields the
	// existing record reported with status DUPLICATE, never a second
	// document.
	Register(ctx context.Context, path string) (*domain.Document, error)

	// List returns all documents with chunk counts, newest first.
	List(ctx context.Context) ([]domain.DocumentInfo, error)

	// Chunk looks up one chunk by document ID and sequence number.
	Chunk(ctx context.Context, documentID string, seq int) (*domain.Chunk, error)
}

// Ingestor runs background ingestion jobs and rebuilds the index.
type Ingestor interface {
	// StartIngestion creates and immediately starts a job over the
	// given documents. With no IDs it snapshots all documents whose
	// status is PENDING or NEEDS_PROCESSING at that instant. The
	// returned job ID is already running or about to run.
	StartIngestion(ctx context.Context, docIDs []string) (string, error)

	// JobStatus returns a snapshot of a job's progress, or false when
	// the job is unknown.
	JobStatus(jobID string) (*domain.Job, bool)

	// RebuildIndex rebuilds the persisted vector index from every
	// embedded chunk in the store and returns the count indexed.
	RebuildIndex(ctx context.Context) (int, error)
}
