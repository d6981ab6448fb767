package reembed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/filehawk/ai"
	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/similarity"
	"github.com/poiesic/filehawk/storage"
)

// BatchProcessor regenerates the embeddings of batches of files.
type BatchProcessor struct {
	repo           storage.FileRepository
	embedder       ai.Embedder
	embedBatchSize int
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// embedBatchSize: texts per embedding call; <= 0 selects DefaultEmbedBatchSize
// maxRetries: maximum number of attempts for each embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.FileRepository, embedder ai.Embedder, embedBatchSize, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	if embedBatchSize <= 0 {
		embedBatchSize = DefaultEmbedBatchSize
	}
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		embedBatchSize: embedBatchSize,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds every chunk and file name in files, recomputes the
// centroids and writes the files back. It returns the number of chunks
// embedded. Vectors are normalized before they are stored.
func (bp *BatchProcessor) Process(ctx context.Context, files []*core.FileRecord) (int, error) {
	if len(files) == 0 {
		return 0, nil
	}

	var texts []string
	for _, file := range files {
		for _, chunk := range file.Chunks {
			texts = append(texts, chunk.Text)
		}
	}

	embeddings, err := bp.embed(ctx, texts)
	if err != nil {
		return 0, err
	}

	next := 0
	for _, file := range files {
		vectors := make([]core.Vector, len(file.Chunks))
		for i := range file.Chunks {
			file.Chunks[i].Embedding = similarity.NormalizeVector(core.Vector(embeddings[next]))
			vectors[i] = file.Chunks[i].Embedding
			next++
		}
		if len(vectors) == 0 {
			file.Centroid = nil
			continue
		}
		centroid, err := similarity.Centroid(vectors)
		if err != nil {
			return 0, fmt.Errorf("centroid of %s: %w", file.Path, err)
		}
		file.Centroid = centroid
	}

	if err := bp.embedNames(ctx, files); err != nil {
		return 0, err
	}

	if _, err := bp.repo.UpdateFiles(ctx, files...); err != nil {
		return 0, fmt.Errorf("failed to update files: %w", err)
	}

	return len(texts), nil
}

// embedNames refreshes the name vectors of files whose names contain words.
func (bp *BatchProcessor) embedNames(ctx context.Context, files []*core.FileRecord) error {
	var names []string
	var owners []*core.FileRecord
	for _, file := range files {
		words := similarity.FilenameWords(file.Path)
		if len(words) == 0 {
			file.NameVector = nil
			continue
		}
		names = append(names, strings.Join(words, " "))
		owners = append(owners, file)
	}

	embeddings, err := bp.embed(ctx, names)
	if err != nil {
		return fmt.Errorf("file names: %w", err)
	}
	for i, file := range owners {
		file.NameVector = similarity.NormalizeVector(core.Vector(embeddings[i]))
	}
	return nil
}

// embed sends texts to the embedder embedBatchSize at a time, retrying
// each call, and checks the result counts.
func (bp *BatchProcessor) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += bp.embedBatchSize {
		batch := texts[start:min(start+bp.embedBatchSize, len(texts))]

		var embeddings [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var err error
			embeddings, err = bp.embedder.EmbedTexts(ctx, batch)
			return err
		}, bp.maxRetries, bp.retryBaseDelay)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
		}
		if len(embeddings) != len(batch) {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ai.ErrEmbeddingFailed, len(batch), len(embeddings))
		}
		all = append(all, embeddings...)
	}
	return all, nil
}
