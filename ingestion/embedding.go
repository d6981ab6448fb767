package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/filehawk/ai"
	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/similarity"
)

// chunkEmbedder attaches normalized embeddings to chunks and file names.
type chunkEmbedder struct {
	embedder  ai.Embedder
	batchSize int
	logger    *slog.Logger
}

// embedChunks embeds chunk texts in batches and stores unit-length
// vectors on the chunks.
func (ce *chunkEmbedder) embedChunks(ctx context.Context, chunks []core.Chunk) error {
	for start := 0; start < len(chunks); start += ce.batchSize {
		end := min(start+ce.batchSize, len(chunks))

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = chunks[start+i].Text
		}

		ce.logger.Debug("generating embeddings for chunks", "from", start, "count", len(texts))
		embeddings, err := ce.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			ce.logger.Error("error generating embeddings", "err", err)
			return err
		}
		if len(embeddings) != len(texts) {
			return fmt.Errorf("%w: expected %d embeddings, received %d", ai.ErrEmbeddingFailed, len(texts), len(embeddings))
		}

		for i, embedding := range embeddings {
			chunks[start+i].Embedding = similarity.NormalizeVector(core.Vector(embedding))
		}
	}
	return nil
}

// embedName embeds the words of a file name. A name without words has no
// vector.
func (ce *chunkEmbedder) embedName(ctx context.Context, path string) (core.Vector, error) {
	words := similarity.FilenameWords(path)
	if len(words) == 0 {
		return nil, nil
	}
	embedding, err := ce.embedder.EmbedText(ctx, strings.Join(words, " "))
	if err != nil {
		return nil, fmt.Errorf("embed name: %w", err)
	}
	return similarity.NormalizeVector(core.Vector(embedding)), nil
}
