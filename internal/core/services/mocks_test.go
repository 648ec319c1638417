package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// mockExtractor returns canned pages per path.
type mockExtractor struct {
	pages map[string][]driven.Page
	errs  map[string]error
}

func newMockExtractor() *mockExtractor {
	return &mockExtractor{
		pages: make(map[string][]driven.Page),
		errs:  make(map[string]error),
	}
}

func (m *mockExtractor) Extract(_ context.Context, path, _ string) ([]driven.Page, error) {
	if err, ok := m.errs[path]; ok {
		return nil, err
	}
	if pages, ok := m.pages[path]; ok {
		return pages, nil
	}
	return nil, domain.ErrUnsupportedFormat
}

func (m *mockExtractor) Supports(ext string) bool {
	switch ext {
	case "txt", "md", "pdf", "docx":
		return true
	}
	return false
}

// stubEmbedder returns fixed-dimension vectors derived from text length.
// fail makes every call error; calls counts batch invocations.
type stubEmbedder struct {
	mu    sync.Mutex
	dim   int
	model string
	fail  bool
	calls int
}

func newStubEmbedder(dim int) *stubEmbedder {
	return &stubEmbedder{dim: dim, model: "stub-model"}
}

func (m *stubEmbedder) vector(text string) []float32 {
	vec := make([]float32, m.dim)
	for i := range vec {
		vec[i] = float32((len(text)+i)%7) + 1
	}
	return vec
}

func (m *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail {
		return nil, errors.New("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *stubEmbedder) Dimensions() int              { return m.dim }
func (m *stubEmbedder) ModelName() string            { return m.model }
func (m *stubEmbedder) Ping(_ context.Context) error { return nil }
func (m *stubEmbedder) Close() error                 { return nil }

// memoryIndex is an in-memory VectorIndexStore with scripted hits.
type memoryIndex struct {
	mu       sync.Mutex
	vectors  [][]float32
	manifest driven.IndexManifest
	built    bool
	rebuilds int
	// searchHits overrides Search results when non-nil.
	searchHits []driven.VectorHit
	searchErr  error
	// rebuildErr fails Rebuild; rebuildPanic makes it panic instead.
	rebuildErr   error
	rebuildPanic bool
}

func (m *memoryIndex) Rebuild(_ context.Context, vectors [][]float32, manifest driven.IndexManifest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rebuildPanic {
		panic("index storage corrupted")
	}
	if m.rebuildErr != nil {
		return m.rebuildErr
	}
	m.vectors = vectors
	m.manifest = manifest
	m.built = len(vectors) > 0
	m.rebuilds++
	return nil
}

func (m *memoryIndex) Search(_ context.Context, _ []float32, topM int) ([]driven.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchHits != nil {
		hits := m.searchHits
		if topM < len(hits) {
			hits = hits[:topM]
		}
		return hits, nil
	}
	if !m.built {
		return nil, domain.ErrIndexUnavailable
	}
	hits := make([]driven.VectorHit, 0, topM)
	for i := range m.vectors {
		if i >= topM {
			break
		}
		hits = append(hits, driven.VectorHit{Position: i, Score: 1.0 - float64(i)*0.1})
	}
	return hits, nil
}

func (m *memoryIndex) Manifest(_ context.Context) (*driven.IndexManifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.built {
		return nil, domain.ErrIndexUnavailable
	}
	mf := m.manifest
	return &mf, nil
}

// mockLLM records the last prompts and returns a canned answer.
type mockLLM struct {
	answer     string
	err        error
	calls      int
	lastSystem string
	lastUser   string
	lastOpts   driven.CompletionOptions
}

func (m *mockLLM) Complete(_ context.Context, system, user string, opts driven.CompletionOptions) (string, error) {
	m.calls++
	m.lastSystem = system
	m.lastUser = user
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockPrompts serves the embedded defaults without touching disk.
type mockPrompts struct{}

func (mockPrompts) Load(name string) (string, error) {
	switch name {
	case driven.PromptAnswerStrict:
		return "Answer only using the provided context.", nil
	default:
		return "", fmt.Errorf("unknown prompt %q", name)
	}
}

// mapConfig is an in-memory ConfigStore.
type mapConfig map[string]any

func (c mapConfig) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

func (c mapConfig) GetString(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c mapConfig) GetInt(key string) int {
	if v, ok := c[key].(int); ok {
		return v
	}
	return 0
}

func (c mapConfig) GetFloat(key string) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (c mapConfig) Set(key string, value any) error {
	c[key] = value
	return nil
}
