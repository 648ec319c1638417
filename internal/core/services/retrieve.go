package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
	"github.com/docfold/docfold-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// Default retrieval parameters.
const (
	// DefaultK is the number of chunks returned to the caller.
	DefaultK = 5

	// DefaultM is the candidate pool size taken from the index.
	DefaultM = 20
)

// RetrievalService finds the chunks most similar to a query. Index
// hits are positions into the (document ID, sequence) ordering of all
// embedded chunks; both the index build and the query side read that
// ordering from the same store call, which is what keeps positions
// meaningful.
type RetrievalService struct {
	docStore    driven.DocumentStore
	embedder    driven.EmbeddingService
	vectorIndex driven.VectorIndexStore
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	docStore driven.DocumentStore,
	embedder driven.EmbeddingService,
	vectorIndex driven.VectorIndexStore,
) *RetrievalService {
	return &RetrievalService{
		docStore:    docStore,
		embedder:    embedder,
		vectorIndex: vectorIndex,
	}
}

// scoredRow pairs a row position with its similarity score.
type scoredRow struct {
	score    float64
	position int
}

// Retrieve returns at most k scored chunks, best first, drawn from a
// candidate pool of m index hits. An empty corpus returns nil without
// touching the embedding service. When no index is persisted the
// service falls back to brute-force cosine over all embedded chunks.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k, m int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		k = DefaultK
	}
	if m <= 0 {
		m = DefaultM
	}
	if m < k {
		m = k
	}

	rows, err := s.docStore.AllEmbeddedChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load embedded chunks: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %v: %w", err, domain.ErrEmbeddingUnavailable)
	}
	if len(qvec) != len(rows[0].Embedding) {
		return nil, fmt.Errorf("query dimension %d, corpus dimension %d: %w",
			len(qvec), len(rows[0].Embedding), domain.ErrDimensionMismatch)
	}

	candidates, err := s.searchIndex(ctx, qvec, m, len(rows))
	if err != nil {
		if !errors.Is(err, domain.ErrIndexUnavailable) {
			return nil, err
		}
		logger.Debug("Vector index unavailable, scanning %d chunks", len(rows))
		candidates = bruteForce(qvec, rows, m)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if k < len(candidates) {
		candidates = candidates[:k]
	}

	filenames, err := s.filenamesByID(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RetrievedChunk, 0, len(candidates))
	for _, c := range candidates {
		row := rows[c.position]
		filename, ok := filenames[row.DocumentID]
		if !ok {
			filename = row.DocumentID
		}
		results = append(results, domain.RetrievedChunk{
			DocumentID: row.DocumentID,
			Filename:   filename,
			Seq:        row.Seq,
			Page:       row.Page,
			Text:       row.Text,
			Score:      c.score,
		})
	}
	return results, nil
}

// searchIndex queries the persisted index and drops hits whose
// position no longer maps into the current corpus. Stale positions
// appear when documents were removed or re-embedded since the last
// rebuild; dropping them trades recall for never citing the wrong
// chunk.
func (s *RetrievalService) searchIndex(ctx context.Context, qvec []float32, m, corpusLen int) ([]scoredRow, error) {
	hits, err := s.vectorIndex.Search(ctx, qvec, m)
	if err != nil {
		return nil, err
	}

	candidates := make([]scoredRow, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= corpusLen {
			continue
		}
		candidates = append(candidates, scoredRow{score: h.Score, position: h.Position})
	}
	return candidates, nil
}

// filenamesByID maps document IDs to filenames for result resolution.
func (s *RetrievalService) filenamesByID(ctx context.Context) (map[string]string, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	m := make(map[string]string, len(docs))
	for _, d := range docs {
		m[d.ID] = d.Filename
	}
	return m, nil
}

// bruteForce scores every embedded chunk by cosine similarity and
// returns the top m.
func bruteForce(qvec []float32, rows []domain.Chunk, m int) []scoredRow {
	qn := vectorNorm(qvec)

	scored := make([]scoredRow, len(rows))
	for i, row := range rows {
		scored[i] = scoredRow{score: cosine(qvec, qn, row.Embedding), position: i}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})
	if m < len(scored) {
		scored = scored[:m]
	}
	return scored
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine computes cosine similarity. The small epsilon keeps zero
// vectors from dividing by zero.
func cosine(q []float32, qn float64, v []float32) float64 {
	if len(q) != len(v) {
		return 0
	}
	var dot float64
	for i := range q {
		dot += float64(q[i]) * float64(v[i])
	}
	return dot / ((qn + 1e-12) * (vectorNorm(v) + 1e-12))
}
