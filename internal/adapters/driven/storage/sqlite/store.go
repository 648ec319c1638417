package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docfold/docfold-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is a SQLite-backed document store holding documents, chunks
// and settings.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docfold/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docfold", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docfold.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Documents ====================

// UpsertDocument inserts or updates a document by ID.
func (s *Store) UpsertDocument(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, ext, path, size_bytes, sha256, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			ext = excluded.ext,
			path = excluded.path,
			size_bytes = excluded.size_bytes,
			sha256 = excluded.sha256,
			status = excluded.status
	`, doc.ID, doc.Filename, doc.Ext, doc.Path, doc.SizeBytes,
		doc.SHA256, string(doc.Status), doc.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, ext, path, size_bytes, sha256, status, created_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// GetDocumentByHash retrieves a document by content hash.
func (s *Store) GetDocumentByHash(ctx context.Context, sha256 string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, ext, path, size_bytes, sha256, status, created_at
		FROM documents WHERE sha256 = ?
	`, sha256)

	return scanDocument(row)
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, ext, path, size_bytes, sha256, status, created_at
		FROM documents ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var status string
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.Ext, &doc.Path,
			&doc.SizeBytes, &doc.SHA256, &status, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.Status = domain.DocumentStatus(status)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// ListDocumentsWithCounts returns all documents with their chunk counts.
func (s *Store) ListDocumentsWithCounts(ctx context.Context) ([]domain.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.filename, d.ext, d.path, d.size_bytes, d.sha256, d.status, d.created_at,
		       (SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id) AS chunk_count
		FROM documents d
		ORDER BY d.created_at DESC, d.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var infos []domain.DocumentInfo //nolint:prealloc // size unknown from query
	for rows.Next() {
		var info domain.DocumentInfo
		var status string
		if err := rows.Scan(&info.ID, &info.Filename, &info.Ext, &info.Path,
			&info.SizeBytes, &info.SHA256, &status, &info.CreatedAt, &info.ChunkCount); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		info.Status = domain.DocumentStatus(status)
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return infos, nil
}

// UpdateDocumentStatus sets the lifecycle status for a document.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
	}
	return nil
}

// ==================== Chunks ====================

// InsertChunks upserts chunk rows. On conflict the stored embedding is
// preserved when the incoming value is nil, so re-running extraction
// never discards computed embeddings.
func (s *Store) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, seq, text, page, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			seq = excluded.seq,
			text = excluded.text,
			page = excluded.page,
			embedding = COALESCE(excluded.embedding, chunks.embedding)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		var page any
		if chunk.Page != nil {
			page = *chunk.Page
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID,
			chunk.Seq, chunk.Text, page, embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ChunksForDocument returns a document's chunks ordered by sequence.
func (s *Store) ChunksForDocument(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, seq, text, page, embedding
		FROM chunks WHERE document_id = ?
		ORDER BY seq
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// AllEmbeddedChunks returns every chunk with a non-nil embedding,
// ordered by (document ID, sequence).
func (s *Store) AllEmbeddedChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, seq, text, page, embedding
		FROM chunks WHERE embedding IS NOT NULL
		ORDER BY document_id, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying embedded chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// FindChunk retrieves one chunk by document and sequence number.
func (s *Store) FindChunk(ctx context.Context, documentID string, seq int) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, seq, text, page, embedding
		FROM chunks WHERE document_id = ? AND seq = ?
	`, documentID, seq)

	var chunk domain.Chunk
	var page sql.NullInt64
	var embeddingBlob []byte
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Seq,
		&chunk.Text, &page, &embeddingBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	if page.Valid {
		p := int(page.Int64)
		chunk.Page = &p
	}
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	return &chunk, nil
}

// ==================== Settings ====================

// GetSetting returns a settings value.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("scanning setting: %w", err)
	}
	return value, nil
}

// SetSetting stores a settings value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var status string

	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Ext, &doc.Path,
		&doc.SizeBytes, &doc.SHA256, &status, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

// scanChunks scans chunk rows.
func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var page sql.NullInt64
		var embeddingBlob []byte

		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Seq,
			&chunk.Text, &page, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		if page.Valid {
			p := int(page.Int64)
			chunk.Page = &p
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}
