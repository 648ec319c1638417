// Package memory provides in-memory storage adapters for testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure DocStore implements the interface.
var _ driven.DocumentStore = (*DocStore)(nil)

// DocStore is an in-memory DocumentStore with the same upsert and
// ordering semantics as the SQLite store.
type DocStore struct {
	mu       sync.RWMutex
	docs     map[string]domain.Document
	order    []string // insertion order, oldest first
	chunks   map[string]domain.Chunk
	settings map[string]string
}

// NewDocStore creates an empty in-memory document store.
func NewDocStore() *DocStore {
	return &DocStore{
		docs:     make(map[string]domain.Document),
		chunks:   make(map[string]domain.Chunk),
		settings: make(map[string]string),
	}
}

// UpsertDocument inserts or updates a document by ID.
func (s *DocStore) UpsertDocument(_ context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.docs {
		if existing.SHA256 == doc.SHA256 && id != doc.ID {
			return domain.ErrInvalidInput
		}
	}

	if _, ok := s.docs[doc.ID]; !ok {
		s.order = append(s.order, doc.ID)
	}
	s.docs[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByHash retrieves a document by content hash.
func (s *DocStore) GetDocumentByHash(_ context.Context, sha256 string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.docs {
		if doc.SHA256 == sha256 {
			d := doc
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListDocuments returns all documents, newest first.
func (s *DocStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		docs = append(docs, s.docs[s.order[i]])
	}
	return docs, nil
}

// ListDocumentsWithCounts returns all documents with chunk counts.
func (s *DocStore) ListDocumentsWithCounts(ctx context.Context) ([]domain.DocumentInfo, error) {
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.DocumentInfo, len(docs))
	for i, doc := range docs {
		count := 0
		for _, chunk := range s.chunks {
			if chunk.DocumentID == doc.ID {
				count++
			}
		}
		infos[i] = domain.DocumentInfo{Document: doc, ChunkCount: count}
	}
	return infos, nil
}

// UpdateDocumentStatus sets the lifecycle status for a document.
func (s *DocStore) UpdateDocumentStatus(_ context.Context, id string, status domain.DocumentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil
	}
	doc.Status = status
	s.docs[id] = doc
	return nil
}

// InsertChunks upserts chunk rows, preserving stored embeddings when
// the incoming value is nil.
func (s *DocStore) InsertChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		if existing, ok := s.chunks[chunk.ID]; ok && chunk.Embedding == nil {
			chunk.Embedding = existing.Embedding
		}
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// ChunksForDocument returns a document's chunks ordered by sequence.
func (s *DocStore) ChunksForDocument(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			chunks = append(chunks, chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Seq < chunks[j].Seq })
	return chunks, nil
}

// AllEmbeddedChunks returns embedded chunks ordered by (document, seq).
func (s *DocStore) AllEmbeddedChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.Embedding != nil {
			chunks = append(chunks, chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].DocumentID != chunks[j].DocumentID {
			return chunks[i].DocumentID < chunks[j].DocumentID
		}
		return chunks[i].Seq < chunks[j].Seq
	})
	return chunks, nil
}

// FindChunk retrieves one chunk by document and sequence number.
func (s *DocStore) FindChunk(_ context.Context, documentID string, seq int) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, ok := s.chunks[domain.ChunkID(documentID, seq)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// GetSetting returns a settings value.
func (s *DocStore) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.settings[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return value, nil
}

// SetSetting stores a settings value.
func (s *DocStore) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	return nil
}

// Close releases resources.
func (s *DocStore) Close() error {
	return nil
}
