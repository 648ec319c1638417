package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates an upload extension with no extractor.
	// Surfaced as a per-document error; the job continues.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDimensionMismatch indicates a query embedding whose dimensionality
	// differs from the stored chunk embeddings. Fatal for that retrieval
	// call, never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexUnavailable indicates no persisted vector index could be
	// loaded. Recovered locally by brute-force search, never surfaced.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the language model service is not
	// configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
