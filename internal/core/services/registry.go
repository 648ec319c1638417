package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
	"github.com/docfold/docfold-cli/internal/logger"
)

// Ensure DocumentRegistry implements the interface.
var _ driving.Registrar = (*DocumentRegistry)(nil)

// MaxUploadBytes is the largest file Register accepts.
const MaxUploadBytes = 20 << 20 // 20 MB

var safeFilenameRE = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// DocumentRegistry records uploaded files as documents. Each accepted
// file is copied into the uploads directory under a name derived from
// the new document ID, so later ingestion never depends on the
// original path surviving.
type DocumentRegistry struct {
	docStore   driven.DocumentStore
	extractor  driven.TextExtractor
	uploadsDir string
}

// NewDocumentRegistry creates a new document registry. Uploaded files
// are copied into uploadsDir, created on first use.
func NewDocumentRegistry(
	docStore driven.DocumentStore,
	extractor driven.TextExtractor,
	uploadsDir string,
) *DocumentRegistry {
	return &DocumentRegistry{
		docStore:   docStore,
		extractor:  extractor,
		uploadsDir: uploadsDir,
	}
}

// Register reads the file at path, hashes its content, and records a
// PENDING document. A byte-identical prior upload returns the existing
// record reported as DUPLICATE; the stored row is left untouched and
// no new document is created.
func (r *DocumentRegistry) Register(ctx context.Context, path string) (*domain.Document, error) {
	filename := filepath.Base(path)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !r.extractor.Supports(ext) {
		return nil, fmt.Errorf("extension %q: %w", ext, domain.ErrUnsupportedFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("file too large (%d bytes, max %d): %w", len(data), MaxUploadBytes, domain.ErrInvalidInput)
	}

	sum := sha256.Sum256(data)
	sha := hex.EncodeToString(sum[:])

	existing, err := r.docStore.GetDocumentByHash(ctx, sha)
	if err == nil {
		logger.Debug("Duplicate upload of %s matches document %s", filename, existing.ID)
		dup := *existing
		dup.Status = domain.StatusDuplicate
		return &dup, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("hash lookup: %w", err)
	}

	docID := "doc_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	safeName := safeFilename(filename)
	savePath := filepath.Join(r.uploadsDir, docID+"_"+safeName)

	if err := os.MkdirAll(r.uploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(savePath, data, 0o644); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc := &domain.Document{
		ID:        docID,
		Filename:  safeName,
		Ext:       ext,
		Path:      savePath,
		SizeBytes: int64(len(data)),
		SHA256:    sha,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.docStore.UpsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("record document: %w", err)
	}

	logger.Info("Registered %s as document %s (%d bytes)", safeName, docID, len(data))
	return doc, nil
}

// List returns all documents with chunk counts, newest first.
func (r *DocumentRegistry) List(ctx context.Context) ([]domain.DocumentInfo, error) {
	return r.docStore.ListDocumentsWithCounts(ctx)
}

// Chunk looks up one chunk by document ID and sequence number.
func (r *DocumentRegistry) Chunk(ctx context.Context, documentID string, seq int) (*domain.Chunk, error) {
	return r.docStore.FindChunk(ctx, documentID, seq)
}

// safeFilename strips characters that are unsafe in stored file names.
func safeFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = safeFilenameRE.ReplaceAllString(name, "_")
	if len(name) > 200 {
		name = name[:200]
	}
	return name
}
