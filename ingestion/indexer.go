package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/filehawk/ai"
	"github.com/poiesic/filehawk/chunking"
	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/similarity"
	"github.com/poiesic/filehawk/storage"
)

// DefaultBatchSize is the number of chunk texts sent per embedding call.
const DefaultBatchSize = 32

// Document is raw text to index under a path.
type Document struct {
	Path string
	Text string
}

// Indexer builds and stores file records for documents.
type Indexer struct {
	files       storage.FileRepository
	checkpoints storage.CheckpointRepository
	embedder    *chunkEmbedder
	segmenters  []*chunking.Segmenter
	pool        *ants.Pool
	logger      *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithPoolSize sets the worker pool size for concurrent indexing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if ix.pool != nil {
			ix.pool.Release()
		}
		ix.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// WithModes sets the chunking modes every document is indexed under,
// using the default parameters of each mode.
// Default is Gist and Pinpoint.
func WithModes(modes ...core.ChunkMode) Option {
	return func(ix *Indexer) error {
		if len(modes) == 0 {
			return ErrNoModes
		}
		segmenters := make([]*chunking.Segmenter, 0, len(modes))
		for _, mode := range modes {
			seg, err := chunking.NewSegmenter(mode)
			if err != nil {
				return err
			}
			segmenters = append(segmenters, seg)
		}
		ix.segmenters = segmenters
		return nil
	}
}

// WithSegmenter replaces the segmenter of seg's mode, adding the mode if
// it was not configured.
func WithSegmenter(seg *chunking.Segmenter) Option {
	return func(ix *Indexer) error {
		if seg == nil {
			return errors.New("segmenter required")
		}
		for i, existing := range ix.segmenters {
			if existing.Mode() == seg.Mode() {
				ix.segmenters[i] = seg
				return nil
			}
		}
		ix.segmenters = append(ix.segmenters, seg)
		return nil
	}
}

// WithCheckpoints enables incremental indexing: a document whose content
// matches the checkpoint of its path, and whose records exist under every
// configured mode, is not embedded again. nil disables it.
func WithCheckpoints(checkpoints storage.CheckpointRepository) Option {
	return func(ix *Indexer) error {
		ix.checkpoints = checkpoints
		return nil
	}
}

// WithBatchSize sets how many chunk texts are embedded per call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			return fmt.Errorf("batch size must be at least 1, got %d", size)
		}
		ix.embedder.batchSize = size
		return nil
	}
}

// NewIndexer creates a new indexer.
func NewIndexer(files storage.FileRepository, provider ai.AIProvider, opts ...Option) (*Indexer, error) {
	if files == nil {
		return nil, ErrFileRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	ix := &Indexer{
		files: files,
		embedder: &chunkEmbedder{
			embedder:  provider.Embedder(),
			batchSize: DefaultBatchSize,
		},
		pool:   pool,
		logger: slog.Default(),
	}
	if err := WithModes(core.ChunkModeGist, core.ChunkModePinpoint)(ix); err != nil {
		ix.Release()
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(ix); err != nil {
			ix.Release()
			return nil, err
		}
	}
	ix.embedder.logger = ix.logger.With("component", "chunk-embedder")

	return ix, nil
}

// Modes returns the chunking modes documents are indexed under.
func (ix *Indexer) Modes() []core.ChunkMode {
	modes := make([]core.ChunkMode, len(ix.segmenters))
	for i, seg := range ix.segmenters {
		modes[i] = seg.Mode()
	}
	return modes
}

// BuildRecords segments and embeds doc under every configured mode without
// storing anything.
func (ix *Indexer) BuildRecords(ctx context.Context, doc Document) ([]*core.FileRecord, error) {
	if doc.Path == "" {
		return nil, core.ErrEmptyPath
	}

	nameVector, err := ix.embedder.embedName(ctx, doc.Path)
	if err != nil {
		return nil, err
	}

	records := make([]*core.FileRecord, 0, len(ix.segmenters))
	for _, seg := range ix.segmenters {
		id := core.FileIDFor(doc.Path, seg.Mode())
		chunks := seg.SegmentFile(id, doc.Text)
		if len(chunks) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, doc.Path)
		}

		if err := ix.embedder.embedChunks(ctx, chunks); err != nil {
			return nil, fmt.Errorf("%s %s: %w", seg.Mode(), doc.Path, err)
		}

		vectors := make([]core.Vector, len(chunks))
		for i := range chunks {
			vectors[i] = chunks[i].Embedding
		}
		centroid, err := similarity.Centroid(vectors)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", seg.Mode(), doc.Path, err)
		}

		records = append(records, &core.FileRecord{
			Id:         id,
			Path:       doc.Path,
			Mode:       seg.Mode(),
			Chunks:     chunks,
			Centroid:   centroid,
			NameVector: nameVector,
		})
	}
	return records, nil
}

// IndexDocument builds the records of doc and stores them, replacing any
// earlier records for the same path. With checkpoints enabled an
// unchanged document returns its stored records.
func (ix *Indexer) IndexDocument(ctx context.Context, doc Document) ([]*core.FileRecord, error) {
	hash := core.IDFromContent(doc.Text)
	if stored, ok := ix.unchanged(ctx, doc.Path, hash); ok {
		ix.logger.Debug("document unchanged", "path", doc.Path)
		return stored, nil
	}

	records, err := ix.BuildRecords(ctx, doc)
	if err != nil {
		ix.logger.Error("error building records", "path", doc.Path, "err", err)
		return nil, err
	}

	stored, err := ix.files.AddFiles(ctx, records...)
	if err != nil {
		ix.logger.Error("error storing records", "path", doc.Path, "err", err)
		return nil, err
	}

	if ix.checkpoints != nil {
		err := ix.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Path: doc.Path, ContentHash: hash})
		if err != nil {
			return nil, fmt.Errorf("checkpoint %s: %w", doc.Path, err)
		}
	}

	chunks := 0
	for _, r := range stored {
		chunks += len(r.Chunks)
	}
	ix.logger.Debug("indexed document", "path", doc.Path, "records", len(stored), "chunks", chunks)
	return stored, nil
}

// unchanged reports whether path was last indexed with content hash and
// still has a record under every mode, returning those records.
func (ix *Indexer) unchanged(ctx context.Context, path string, hash core.ID) ([]*core.FileRecord, bool) {
	if ix.checkpoints == nil || path == "" {
		return nil, false
	}
	cp, err := ix.checkpoints.LoadCheckpoint(ctx, path)
	if err != nil || cp == nil || cp.ContentHash != hash {
		return nil, false
	}
	records := make([]*core.FileRecord, 0, len(ix.segmenters))
	for _, seg := range ix.segmenters {
		file, err := ix.files.FindFileByPath(ctx, path, seg.Mode())
		if err != nil {
			return nil, false
		}
		records = append(records, file)
	}
	return records, true
}

// IndexDocuments indexes docs concurrently. Every document is attempted;
// the returned error joins the failures of individual documents. The
// records of successful documents are returned in input order.
func (ix *Indexer) IndexDocuments(ctx context.Context, docs []Document) ([]*core.FileRecord, error) {
	results := make([][]*core.FileRecord, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		err := ix.pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = ix.IndexDocument(ctx, doc)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	var records []*core.FileRecord
	for _, r := range results {
		records = append(records, r...)
	}
	if err := errors.Join(errs...); err != nil {
		return records, err
	}
	ix.logger.Info("indexed documents", "documents", len(docs), "records", len(records))
	return records, nil
}

// RemoveDocument deletes the records of path under every configured mode.
// It fails with storage.ErrNotFound when the path has no records.
func (ix *Indexer) RemoveDocument(ctx context.Context, path string) error {
	var ids []core.ID
	for _, seg := range ix.segmenters {
		file, err := ix.files.FindFileByPath(ctx, path, seg.Mode())
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		ids = append(ids, file.Id)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	}
	if err := ix.files.DeleteFiles(ctx, ids...); err != nil {
		return err
	}
	if ix.checkpoints != nil {
		if err := ix.checkpoints.DeleteCheckpoint(ctx, path); err != nil {
			return err
		}
	}
	ix.logger.Debug("removed document", "path", path, "records", len(ids))
	return nil
}

// Release releases resources including the worker pool.
// The indexer should not be used after calling Release.
func (ix *Indexer) Release() {
	if ix.pool != nil {
		ix.pool.Release()
	}
}
