// Package index runs indexing jobs: scan a directory, extract and chunk
// each file, embed the chunks, then build and publish a new index.
//
// At most one job runs at a time. The job record is polled; there is no
// event stream.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/nlpfinder/internal/chunk"
	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
	"github.com/Aman-CERP/nlpfinder/internal/scanner"
	"github.com/Aman-CERP/nlpfinder/internal/store"
)

// Embedder is the part of embed.Embedder the orchestrator uses.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// Extractor turns a file into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

// Dependencies contains the injected dependencies for Orchestrator.
type Dependencies struct {
	// Scanner enumerates candidate files (required).
	Scanner *scanner.Scanner

	// ScanOptions carries the allow-list, excludes and size cap. RootDir
	// is ignored; each job sets its own.
	ScanOptions scanner.ScanOptions

	// Extractor reads file text (required).
	Extractor Extractor

	// Embedder embeds chunk text (required).
	Embedder Embedder

	// Store receives the built index (required).
	Store *store.Store

	// ChunkSize and ChunkOverlap default to chunk.DefaultSize and
	// chunk.DefaultOverlap.
	ChunkSize    int
	ChunkOverlap int

	// BatchSize is the number of chunks per EmbedBatch call (default 32).
	BatchSize int
}

// DefaultBatchSize is the default number of chunks per embedding call.
const DefaultBatchSize = 32

// Orchestrator owns the job record and runs jobs in the background.
type Orchestrator struct {
	scanner   *scanner.Scanner
	scanOpts  scanner.ScanOptions
	extractor Extractor
	embedder  Embedder
	store     *store.Store
	chunker   *chunk.WindowChunker
	batchSize int

	mu       sync.Mutex
	job      Job
	done     chan struct{} // closed when the current job finishes
	clearing int           // Clear calls doing disk I/O
}

// New creates an Orchestrator with injected dependencies.
func New(deps Dependencies) (*Orchestrator, error) {
	if deps.Scanner == nil {
		return nil, fmt.Errorf("scanner is required")
	}
	if deps.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if deps.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	size, overlap := deps.ChunkSize, deps.ChunkOverlap
	if size == 0 {
		size = chunk.DefaultSize
	}
	if overlap == 0 && deps.ChunkSize == 0 {
		overlap = chunk.DefaultOverlap
	}
	chunker, err := chunk.NewWindowChunker(chunk.Options{Size: size, Overlap: overlap})
	if err != nil {
		return nil, err
	}

	batchSize := deps.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	done := make(chan struct{})
	close(done)

	return &Orchestrator{
		scanner:   deps.Scanner,
		scanOpts:  deps.ScanOptions,
		extractor: deps.Extractor,
		embedder:  deps.Embedder,
		store:     deps.Store,
		chunker:   chunker,
		batchSize: batchSize,
		job:       Job{Status: StatusIdle},
		done:      done,
	}, nil
}

// Start begins indexing dir in the background and returns the new job.
// It fails with ConcurrentIndexError while another job is active or the
// index is being cleared, and with InvalidDirectory when dir is not a
// readable directory. The job outlives ctx.
func (o *Orchestrator) Start(ctx context.Context, dir string) (Job, error) {
	if err := o.checkIdle(); err != nil {
		return Job{}, err
	}

	absDir, err := scanner.ValidateRoot(dir)
	if err != nil {
		return Job{}, err
	}

	o.mu.Lock()
	if err := o.busyLocked(); err != nil {
		o.mu.Unlock()
		return Job{}, err
	}
	o.job = Job{
		ID:        uuid.New(),
		Status:    StatusScanning,
		Message:   "Scanning directory...",
		Directory: absDir,
		StartedAt: time.Now(),
	}
	o.done = make(chan struct{})
	job, done := o.job, o.done
	o.mu.Unlock()

	slog.Info("index_job_started",
		slog.String("job_id", job.ID.String()),
		slog.String("directory", absDir))

	go func() {
		defer close(done)
		o.run(context.WithoutCancel(ctx), absDir)
	}()

	return job, nil
}

func (o *Orchestrator) checkIdle() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busyLocked()
}

// busyLocked reports why a new job cannot start. o.mu must be held.
func (o *Orchestrator) busyLocked() error {
	if o.job.Status.Active() {
		return nferrors.New(nferrors.ErrCodeIndexInProgress, "indexing already in progress", nil).
			WithDetail("directory", o.job.Directory).
			WithDetail("status", string(o.job.Status))
	}
	if o.clearing > 0 {
		return nferrors.New(nferrors.ErrCodeIndexInProgress, "index is being cleared", nil)
	}
	return nil
}

// Progress returns a copy of the job record. It never blocks on the job.
func (o *Orchestrator) Progress() Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.job
}

// Wait blocks until the current job is no longer active and returns its
// final record. It returns immediately when no job is running.
func (o *Orchestrator) Wait(ctx context.Context) (Job, error) {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	select {
	case <-done:
		return o.Progress(), nil
	case <-ctx.Done():
		return o.Progress(), ctx.Err()
	}
}

// Clear resets the job record to Idle and deletes the index. It fails
// with ClearWhileRunning while a job is active. The record is reset
// before the disk work so Progress stays responsive while the data
// directory lock is held elsewhere.
func (o *Orchestrator) Clear(ctx context.Context) error {
	o.mu.Lock()
	if o.job.Status.Active() {
		o.mu.Unlock()
		return nferrors.ErrClearWhileRunning
	}
	o.job = Job{Status: StatusIdle}
	o.clearing++
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.clearing--
		o.mu.Unlock()
	}()
	return o.store.Clear(ctx)
}

// update applies fn to the job record under the lock.
func (o *Orchestrator) update(fn func(j *Job)) {
	o.mu.Lock()
	fn(&o.job)
	o.mu.Unlock()
}

func (o *Orchestrator) finish(status Status, message string) {
	var job Job
	o.update(func(j *Job) {
		j.Status = status
		j.Message = message
		j.FinishedAt = time.Now()
		job = *j
	})

	attrs := []any{
		slog.String("job_id", job.ID.String()),
		slog.String("directory", job.Directory),
		slog.Int("indexed", job.Indexed),
		slog.Int("skipped", job.Skipped),
		slog.Int("failed", job.Failed),
		slog.Int("chunks", job.Chunks),
		slog.Duration("duration", job.Elapsed()),
	}
	if status == StatusFailed {
		slog.Error("index_job_failed", append(attrs, slog.String("message", message))...)
		return
	}
	slog.Info("index_job_completed", attrs...)
}

// run executes one job. Per-file problems are counted and skipped; an
// embedding failure ends the job and leaves the published index alone.
func (o *Orchestrator) run(ctx context.Context, dir string) {
	files, err := o.scan(ctx, dir)
	if err != nil {
		o.finish(StatusFailed, fmt.Sprintf("Failed to scan directory: %v", err))
		return
	}
	if len(files) == 0 {
		o.finish(StatusCompleted, "No files found to index")
		return
	}

	o.update(func(j *Job) {
		j.Status = StatusProcessing
		j.Total = len(files)
		j.Message = fmt.Sprintf("Processing %d files...", len(files))
	})

	builder := o.store.NewBuilder(dir, o.embedder.ModelName())
	b := &batcher{embedder: o.embedder, builder: builder, size: o.batchSize}

	for _, f := range files {
		outcome, n, err := o.processFile(ctx, b, f)
		if err != nil {
			o.finish(StatusFailed, describeEmbedError(o.embedder, err))
			return
		}
		o.update(func(j *Job) {
			j.Current++
			switch outcome {
			case fileIndexed:
				j.Indexed++
				j.Chunks += n
			case fileSkipped:
				j.Skipped++
			case fileFailed:
				j.Failed++
			}
			j.Message = fmt.Sprintf("Processing %s", f.Name)
		})
	}

	if err := b.flush(ctx); err != nil {
		o.finish(StatusFailed, describeEmbedError(o.embedder, err))
		return
	}

	job := o.Progress()
	if job.Indexed == 0 {
		o.finish(StatusFailed, "No files were successfully indexed")
		return
	}

	o.update(func(j *Job) {
		j.Status = StatusBuilding
		j.Message = "Building index..."
	})

	idx, err := builder.Build()
	if err != nil {
		o.finish(StatusFailed, fmt.Sprintf("Failed to build index: %v", err))
		return
	}
	o.store.Publish(idx)

	job = o.Progress()
	message := fmt.Sprintf("Successfully indexed %d files (%d skipped, %d failed)",
		job.Indexed, job.Skipped, job.Failed)
	if err := o.store.Persist(ctx, idx); err != nil {
		slog.Warn("index_persist_failed", append([]any{slog.String("job_id", job.ID.String())}, nferrors.FormatForLog(err)...)...)
		message += fmt.Sprintf("; warning: index is searchable but could not be saved: %v", err)
	}
	o.finish(StatusCompleted, message)
}

// scan collects candidates. Skip records from the walk count as skipped
// but are not part of Total.
func (o *Orchestrator) scan(ctx context.Context, dir string) ([]scanner.FileInfo, error) {
	opts := o.scanOpts
	opts.RootDir = dir

	results, err := o.scanner.Scan(ctx, &opts)
	if err != nil {
		return nil, err
	}

	var files []scanner.FileInfo
	for r := range results {
		switch {
		case r.Error != nil:
			return nil, r.Error
		case r.Skipped != nil:
			slog.Warn("index_file_skipped",
				slog.String("path", r.Skipped.Path),
				slog.String("reason", r.Skipped.Reason.Error()))
			o.update(func(j *Job) { j.Skipped++ })
		case r.File != nil:
			files = append(files, *r.File)
		}
	}
	return files, nil
}

type fileOutcome int

const (
	fileIndexed fileOutcome = iota
	fileSkipped
	fileFailed
)

// processFile extracts, chunks and queues one file. Only embedding errors
// are returned; everything else is an outcome.
func (o *Orchestrator) processFile(ctx context.Context, b *batcher, f scanner.FileInfo) (fileOutcome, int, error) {
	text, err := o.extractor.Extract(f.Path)
	if err != nil {
		slog.Warn("index_file_failed", append([]any{slog.String("path", f.Path)}, nferrors.FormatForLog(err)...)...)
		return fileFailed, 0, nil
	}

	chunks := o.chunker.Chunk(text)
	if len(chunks) == 0 {
		slog.Debug("index_file_skipped", slog.String("path", f.Path), slog.String("reason", "no text"))
		return fileSkipped, 0, nil
	}

	b.builder.AddDocument(store.Document{
		Path:        f.Path,
		Name:        f.Name,
		SizeBytes:   f.Size,
		Extension:   f.Extension,
		TotalChunks: len(chunks),
	})
	for _, c := range chunks {
		c.DocumentPath = f.Path
		if err := b.add(ctx, c); err != nil {
			return fileFailed, 0, err
		}
	}
	return fileIndexed, len(chunks), nil
}

// batcher buffers chunks and embeds them batchSize at a time.
type batcher struct {
	embedder Embedder
	builder  *store.Builder
	size     int
	pending  []chunk.Chunk
}

func (b *batcher) add(ctx context.Context, c chunk.Chunk) error {
	b.pending = append(b.pending, c)
	if len(b.pending) >= b.size {
		return b.flush(ctx)
	}
	return nil
}

func (b *batcher) flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}

	texts := make([]string, len(b.pending))
	for i, c := range b.pending {
		texts[i] = c.Text
	}

	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(b.pending) {
		return nferrors.New(nferrors.ErrCodeEmbeddingFailed,
			fmt.Sprintf("embedding service returned %d vectors for %d texts", len(vectors), len(b.pending)), nil)
	}

	entries := make([]store.Entry, len(b.pending))
	for i, c := range b.pending {
		entries[i] = store.Entry{Chunk: c, Vector: vectors[i]}
	}
	if err := b.builder.AddBatch(entries); err != nil {
		return err
	}
	b.pending = b.pending[:0]
	return nil
}

// describeEmbedError renders a job-fatal error for the progress message.
func describeEmbedError(e Embedder, err error) string {
	model := e.ModelName()
	switch nferrors.GetCode(err) {
	case nferrors.ErrCodeServiceUnavailable, nferrors.ErrCodeNetworkTimeout:
		where := "the configured URL"
		if h, ok := e.(interface{ Host() string }); ok {
			where = h.Host()
		}
		return fmt.Sprintf("Embedding service is not reachable at %s. Is Ollama running?", where)
	case nferrors.ErrCodeModelUnavailable:
		return fmt.Sprintf("Embedding model %s is not available; run `ollama pull %s`", model, model)
	case nferrors.ErrCodeDimensionMismatch:
		return fmt.Sprintf("Embedding model %s returned vectors of inconsistent size: %v", model, err)
	default:
		return fmt.Sprintf("Embedding failed: %v", err)
	}
}
