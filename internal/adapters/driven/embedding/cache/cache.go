// Package cache wraps an embedding service with a content-addressed file
// cache. Each cached vector lives in its own file keyed by the model name
// and the SHA-256 of the text, so re-ingesting unchanged documents never
// hits the upstream service.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/logger"
)

// Ensure Service implements the interface.
var _ driven.EmbeddingService = (*Service)(nil)

// Service decorates an EmbeddingService with a file-based cache.
type Service struct {
	upstream driven.EmbeddingService
	dir      string
}

// New creates a caching wrapper around upstream. Vectors are stored
// under dir, which is created if missing.
func New(upstream driven.EmbeddingService, dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Service{upstream: upstream, dir: dir}, nil
}

// Embed returns a cached vector when one exists, otherwise calls the
// upstream service and stores the result.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := s.read(text); ok {
		return vec, nil
	}

	vec, err := s.upstream.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.write(text, vec)
	return vec, nil
}

// EmbedBatch resolves each text against the cache and sends all misses
// to the upstream service in a single call. Output order matches input
// order regardless of which entries were cached.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	var missTexts []string //nolint:prealloc // miss count unknown up front
	var missIdx []int      //nolint:prealloc // miss count unknown up front

	for i, text := range texts {
		if vec, ok := s.read(text); ok {
			results[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	logger.Debug("Embedding cache: %d hits, %d misses", len(texts)-len(missTexts), len(missTexts))

	fresh, err := s.upstream.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedding cache: expected %d vectors, got %d", len(missTexts), len(fresh))
	}

	for j, vec := range fresh {
		results[missIdx[j]] = vec
		s.write(missTexts[j], vec)
	}

	return results, nil
}

// Dimensions returns the upstream embedding vector size.
func (s *Service) Dimensions() int {
	return s.upstream.Dimensions()
}

// ModelName returns the upstream model name.
func (s *Service) ModelName() string {
	return s.upstream.ModelName()
}

// Ping validates the upstream service is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.upstream.Ping(ctx)
}

// Close releases the upstream service.
func (s *Service) Close() error {
	return s.upstream.Close()
}

// path builds the cache file name for text under the current model.
// The model component is hashed too: model names may contain path
// separators (ollama namespaces like "user/model").
func (s *Service) path(text string) string {
	model := sha256.Sum256([]byte(s.upstream.ModelName()))
	sum := sha256.Sum256([]byte(text))
	name := fmt.Sprintf("%s_%s.vec", hex.EncodeToString(model[:]), hex.EncodeToString(sum[:]))
	return filepath.Join(s.dir, name)
}

// read loads a cached vector. Entries whose dimension no longer matches
// the upstream model are evicted so a model swap cannot serve stale data.
func (s *Service) read(text string) ([]float32, bool) {
	path := s.path(text)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	if len(data) == 0 || len(data)%4 != 0 {
		_ = os.Remove(path)
		return nil, false
	}

	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}

	if want := s.upstream.Dimensions(); want > 0 && len(vec) != want {
		_ = os.Remove(path)
		return nil, false
	}
	return vec, true
}

// write stores a vector as little-endian float32s. Cache writes are
// best-effort: a failed write only costs a future recompute.
func (s *Service) write(text string, vec []float32) {
	data := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	if err := os.WriteFile(s.path(text), data, 0o644); err != nil {
		logger.Debug("Embedding cache write failed: %v", err)
	}
}
