package driving

import (
	"context"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// Retriever finds the chunks most similar to a query.
type Retriever interface {
	// Retrieve returns at most k scored chunks, best first, from a
	// candidate pool of m index hits. An empty corpus returns an empty
	// slice, never an error.
	Retrieve(ctx context.Context, query string, k, m int) ([]domain.RetrievedChunk, error)
}

// Answerer answers questions grounded in retrieved chunks.
type Answerer interface {
	// Ask retrieves evidence for the query and synthesises an answer.
	// Weak evidence returns the fixed insufficient-evidence answer
	// without a model call.
	Ask(ctx context.Context, query string, k int) (*domain.Answer, error)
}
