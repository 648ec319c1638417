package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/docfold/docfold-cli/internal/chunker"
	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
	"github.com/docfold/docfold-cli/internal/logger"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.Ingestor = (*IngestOrchestrator)(nil)

// IngestOrchestrator runs ingestion jobs: extract, chunk, embed and
// index. Jobs run in background goroutines and are tracked in memory
// for the process lifetime; a crashed process loses job records but
// not work, because re-ingestion is idempotent.
type IngestOrchestrator struct {
	docStore    driven.DocumentStore
	extractor   driven.TextExtractor
	embedder    driven.EmbeddingService
	vectorIndex driven.VectorIndexStore
	config      driven.ConfigStore

	mu   sync.Mutex
	jobs map[string]*domain.Job
}

// NewIngestOrchestrator creates a new ingestion orchestrator.
func NewIngestOrchestrator(
	docStore driven.DocumentStore,
	extractor driven.TextExtractor,
	embedder driven.EmbeddingService,
	vectorIndex driven.VectorIndexStore,
	config driven.ConfigStore,
) *IngestOrchestrator {
	return &IngestOrchestrator{
		docStore:    docStore,
		extractor:   extractor,
		embedder:    embedder,
		vectorIndex: vectorIndex,
		config:      config,
		jobs:        make(map[string]*domain.Job),
	}
}

// StartIngestion creates a job over the given documents and starts it
// in the background. With no IDs it snapshots every document currently
// PENDING or NEEDS_PROCESSING; documents registered after that instant
// belong to the next job.
func (o *IngestOrchestrator) StartIngestion(ctx context.Context, docIDs []string) (string, error) {
	if len(docIDs) == 0 {
		docs, err := o.docStore.ListDocuments(ctx)
		if err != nil {
			return "", fmt.Errorf("list documents: %w", err)
		}
		for _, d := range docs {
			if d.Status == domain.StatusPending || d.Status == domain.StatusNeedsProcessing {
				docIDs = append(docIDs, d.ID)
			}
		}
	}

	jobID := "job_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	job := &domain.Job{
		ID:         jobID,
		State:      domain.JobQueued,
		QueuedDocs: append([]string(nil), docIDs...),
	}

	o.mu.Lock()
	o.jobs[jobID] = job
	o.mu.Unlock()

	logger.Info("Starting ingestion job %s over %d documents", jobID, len(docIDs))

	// The job outlives the request that started it.
	go o.run(context.Background(), jobID, docIDs)

	return jobID, nil
}

// JobStatus returns a snapshot of a job's progress, or false when the
// job is unknown.
func (o *IngestOrchestrator) JobStatus(jobID string) (*domain.Job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	job, ok := o.jobs[jobID]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// RebuildIndex rebuilds the persisted vector index from every embedded
// chunk and returns the count indexed. An empty corpus removes the
// index files.
func (o *IngestOrchestrator) RebuildIndex(ctx context.Context) (int, error) {
	rows, err := o.docStore.AllEmbeddedChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("load embedded chunks: %w", err)
	}

	if len(rows) == 0 {
		if err := o.vectorIndex.Rebuild(ctx, nil, driven.IndexManifest{}); err != nil {
			return 0, fmt.Errorf("clear index: %w", err)
		}
		return 0, nil
	}

	vectors := make([][]float32, len(rows))
	for i, row := range rows {
		vectors[i] = row.Embedding
	}
	manifest := driven.IndexManifest{
		Model:     o.embedder.ModelName(),
		Dimension: len(vectors[0]),
	}
	if err := o.vectorIndex.Rebuild(ctx, vectors, manifest); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	logger.Info("Rebuilt vector index over %d chunks", len(rows))
	return len(rows), nil
}

// update applies fn to a job under the lock.
func (o *IngestOrchestrator) update(jobID string, fn func(*domain.Job)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if job, ok := o.jobs[jobID]; ok {
		fn(job)
	}
}

// run executes one job. A document that fails is marked ERROR and the
// job moves on; only a panic or an index rebuild failure fails the
// whole job.
func (o *IngestOrchestrator) run(ctx context.Context, jobID string, docIDs []string) {
	defer func() {
		if r := recover(); r != nil {
			o.update(jobID, func(j *domain.Job) {
				j.State = domain.JobError
				j.Error = fmt.Sprintf("%v\n%s", r, debug.Stack())
			})
			logger.Warn("Ingestion job %s panicked: %v", jobID, r)
		}
	}()

	o.update(jobID, func(j *domain.Job) { j.State = domain.JobProcessing })

	for _, docID := range docIDs {
		doc, err := o.docStore.GetDocument(ctx, docID)
		if err != nil {
			logger.Warn("Job %s: document %s not found, skipping", jobID, docID)
			continue
		}
		if doc.Status == domain.StatusDuplicate {
			o.update(jobID, func(j *domain.Job) {
				j.ProcessedDocs = append(j.ProcessedDocs, docID)
			})
			continue
		}

		if err := o.processDocument(ctx, jobID, doc); err != nil {
			logger.Warn("Job %s: document %s failed: %v", jobID, docID, err)
			status := domain.ErrorStatus(err.Error())
			if uerr := o.docStore.UpdateDocumentStatus(ctx, docID, status); uerr != nil {
				logger.Warn("Job %s: could not mark document %s failed: %v", jobID, docID, uerr)
			}
			continue
		}

		if err := o.docStore.UpdateDocumentStatus(ctx, docID, domain.StatusReady); err != nil {
			logger.Warn("Job %s: could not mark document %s ready: %v", jobID, docID, err)
		}
		o.update(jobID, func(j *domain.Job) {
			j.ProcessedDocs = append(j.ProcessedDocs, docID)
		})
	}

	if _, err := o.RebuildIndex(ctx); err != nil {
		o.update(jobID, func(j *domain.Job) {
			j.State = domain.JobError
			j.Error = err.Error()
		})
		return
	}

	o.update(jobID, func(j *domain.Job) { j.State = domain.JobDone })
	logger.Info("Ingestion job %s done", jobID)
}

// processDocument extracts, chunks and embeds one document. Chunk
// sequence numbers continue across pages so a document has one flat
// sequence regardless of pagination.
func (o *IngestOrchestrator) processDocument(ctx context.Context, jobID string, doc *domain.Document) error {
	pages, err := o.extractor.Extract(ctx, doc.Path, doc.Ext)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	size := o.config.GetInt(driven.ConfigChunkSize)
	if size <= 0 {
		size = chunker.DefaultSize
	}
	// An explicit overlap of 0 is a valid setting; only an unset or
	// negative value falls back to the default.
	overlap := o.config.GetInt(driven.ConfigChunkOverlap)
	if _, ok := o.config.Get(driven.ConfigChunkOverlap); !ok || overlap < 0 {
		overlap = chunker.DefaultOverlap
	}

	var rows []domain.Chunk
	seq := 0
	for _, page := range pages {
		var pageNum *int
		if page.Number > 0 {
			n := page.Number
			pageNum = &n
		}
		for _, w := range chunker.Chunk(page.Text, size, overlap) {
			rows = append(rows, domain.Chunk{
				ID:         domain.ChunkID(doc.ID, seq),
				DocumentID: doc.ID,
				Seq:        seq,
				Page:       pageNum,
				Text:       w.Text,
			})
			seq++
		}
	}

	if len(rows) > 0 {
		// Nil embeddings here: the store preserves any embedding an
		// earlier run already computed for the same chunk ID.
		if err := o.docStore.InsertChunks(ctx, rows); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
	}

	stored, err := o.docStore.ChunksForDocument(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}

	var missing []domain.Chunk //nolint:prealloc // usually all or none
	for _, c := range stored {
		if c.Embedding == nil {
			missing = append(missing, c)
		}
	}
	o.update(jobID, func(j *domain.Job) { j.TotalChunks += len(missing) })

	if len(missing) == 0 {
		return nil
	}

	texts := make([]string, len(missing))
	for i, c := range missing {
		texts[i] = c.Text
	}
	vectors, err := o.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(missing) {
		return fmt.Errorf("embed: expected %d vectors, got %d", len(missing), len(vectors))
	}

	// Persist one chunk at a time so the embedded counter tracks
	// real progress and a mid-batch failure keeps what finished.
	for i := range missing {
		missing[i].Embedding = vectors[i]
		if err := o.docStore.InsertChunks(ctx, []domain.Chunk{missing[i]}); err != nil {
			return fmt.Errorf("store embedding: %w", err)
		}
		o.update(jobID, func(j *domain.Job) { j.EmbeddedChunks++ })
	}

	return nil
}
