package driven

import "context"

// VectorIndexStore holds the persisted similarity index over chunk
// embeddings. The index is a derived, rebuildable cache: it carries no
// chunk identity, only positions into the (document ID, sequence)
// ordering of all embedded chunks at the moment of the last rebuild.
type VectorIndexStore interface {
	// Rebuild replaces the persisted index with one built from the
	// given vectors, in order. Vectors are normalised so inner product
	// equals cosine similarity. The index and manifest are written
	// atomically as a pair.
	Rebuild(ctx context.Context, vectors [][]float32, manifest IndexManifest) error

	// Search returns the top m positions by similarity, best first.
	// Returns domain.ErrIndexUnavailable when no index is persisted.
	Search(ctx context.Context, query []float32, m int) ([]VectorHit, error)

	// Manifest returns the persisted manifest, or
	// domain.ErrIndexUnavailable when no index is persisted.
	Manifest(ctx context.Context) (*IndexManifest, error)
}

// VectorHit is one similarity search result.
type VectorHit struct {
	// Position indexes into the embedded-chunk ordering the index was
	// built from.
	Position int

	// Score is the cosine similarity (inner product of unit vectors).
	Score float64
}

// IndexManifest records what the persisted index was built with.
type IndexManifest struct {
	Model     string `json:"model"`
	Dimension int    `json:"dim"`
}
