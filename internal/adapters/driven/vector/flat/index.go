// Package flat provides an exact inner-product vector index persisted on
// disk. Vectors are unit-normalised at build time, so inner product equals
// cosine similarity and search is an exhaustive scan over the matrix.
//
// The index lives in two files under its directory: vectors.bin holds the
// packed float32 matrix and manifest.json records the embedding model and
// dimensionality it was built with. The index counts as absent unless both
// files load cleanly, which forces a rebuild rather than serving results
// from a half-written state.
package flat

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorIndexStore = (*Store)(nil)

const (
	vectorsFile  = "vectors.bin"
	manifestFile = "manifest.json"
)

// Store is a flat inner-product index backed by two files on disk.
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	dir      string
	loaded   bool
	vectors  [][]float32
	manifest driven.IndexManifest
}

// NewStore creates a flat index store rooted at dir. The directory is
// created if missing; any existing index files are loaded lazily on the
// first Search or Manifest call.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Rebuild replaces the index with the given vectors and persists it
// atomically. Vector positions are significant: callers resolve search
// hits back to rows by position, so the order passed here must match
// the order used at query time. An empty vector set removes the index
// files entirely.
func (s *Store) Rebuild(_ context.Context, vectors [][]float32, manifest driven.IndexManifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(vectors) == 0 {
		s.vectors = nil
		s.manifest = driven.IndexManifest{}
		s.loaded = true
		return s.removeFiles()
	}

	normalised := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if len(vec) != manifest.Dimension {
			return fmt.Errorf("vector %d has dimension %d, manifest says %d: %w",
				i, len(vec), manifest.Dimension, domain.ErrDimensionMismatch)
		}
		normalised[i] = normalise(vec)
	}

	if err := s.save(normalised, manifest); err != nil {
		return err
	}

	s.vectors = normalised
	s.manifest = manifest
	s.loaded = true
	logger.Debug("Rebuilt flat index: %d vectors, dim %d", len(normalised), manifest.Dimension)
	return nil
}

// Search returns the top-m positions by inner product against query.
// The query is normalised before scoring. Returns ErrIndexUnavailable
// when no index exists on disk or in memory.
func (s *Store) Search(_ context.Context, query []float32, m int) ([]driven.VectorHit, error) {
	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		s.mu.Lock()
		err := s.load()
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
		s.mu.RLock()
	}
	defer s.mu.RUnlock()

	if len(s.vectors) == 0 {
		return nil, domain.ErrIndexUnavailable
	}
	if len(query) != s.manifest.Dimension {
		return nil, fmt.Errorf("query has dimension %d, index has %d: %w",
			len(query), s.manifest.Dimension, domain.ErrDimensionMismatch)
	}
	if m <= 0 {
		return nil, nil
	}

	q := normalise(query)

	hits := make([]driven.VectorHit, len(s.vectors))
	for i, vec := range s.vectors {
		hits[i] = driven.VectorHit{Position: i, Score: dot(q, vec)}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if m < len(hits) {
		hits = hits[:m]
	}
	return hits, nil
}

// Manifest returns the model and dimensionality the index was built with.
// Returns ErrIndexUnavailable when no index exists.
func (s *Store) Manifest(_ context.Context) (*driven.IndexManifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	if len(s.vectors) == 0 {
		return nil, domain.ErrIndexUnavailable
	}
	m := s.manifest
	return &m, nil
}

// load reads both index files. Callers must hold the write lock.
// A missing or corrupt file leaves the store loaded-but-empty so the
// caller sees ErrIndexUnavailable instead of a partial index.
func (s *Store) load() error {
	s.loaded = true
	s.vectors = nil
	s.manifest = driven.IndexManifest{}

	manifestData, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read manifest: %w", err)
	}

	var manifest driven.IndexManifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		logger.Warn("Index manifest is corrupt, treating index as absent: %v", err)
		return nil
	}

	data, err := os.ReadFile(filepath.Join(s.dir, vectorsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read vectors: %w", err)
	}

	vectors, err := decodeVectors(data)
	if err != nil {
		logger.Warn("Index vectors file is corrupt, treating index as absent: %v", err)
		return nil
	}

	s.vectors = vectors
	s.manifest = manifest
	return nil
}

// save writes both files through temp-and-rename so readers never observe
// a torn write.
func (s *Store) save(vectors [][]float32, manifest driven.IndexManifest) error {
	manifestData, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, vectorsFile), encodeVectors(vectors, manifest.Dimension)); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, manifestFile), manifestData); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func (s *Store) removeFiles() error {
	for _, name := range []string{vectorsFile, manifestFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// encodeVectors packs the matrix as uint32 count, uint32 dim, then
// row-major float32 values, all little-endian.
func encodeVectors(vectors [][]float32, dim int) []byte {
	data := make([]byte, 8+len(vectors)*dim*4)
	binary.LittleEndian.PutUint32(data[0:], uint32(len(vectors)))
	binary.LittleEndian.PutUint32(data[4:], uint32(dim))
	off := 8
	for _, vec := range vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint32(data[off:], math.Float32bits(v))
			off += 4
		}
	}
	return data
}

func decodeVectors(data []byte) ([][]float32, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("vectors file too short: %d bytes", len(data))
	}
	count := int(binary.LittleEndian.Uint32(data[0:]))
	dim := int(binary.LittleEndian.Uint32(data[4:]))
	if len(data) != 8+count*dim*4 {
		return nil, fmt.Errorf("vectors file size mismatch: header says %d x %d, have %d bytes", count, dim, len(data))
	}

	vectors := make([][]float32, count)
	off := 8
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// normalise returns a unit-length copy of vec. Zero vectors are returned
// as-is so they score zero against everything instead of producing NaN.
func normalise(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
