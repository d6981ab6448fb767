package search

import (
	"math"
	"testing"

	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/similarity"
	"github.com/stretchr/testify/require"
)

// unit returns a 3-dimensional unit vector whose cosine with (1,0,0) is sim.
func unit(sim float64) core.Vector {
	return core.Vector{float32(sim), float32(math.Sqrt(1 - sim*sim)), 0}
}

// chunked builds a gist file record whose chunks carry the given texts and
// embeddings. The centroid is the mean of the chunk embeddings.
func chunked(t *testing.T, path string, texts []string, vectors ...core.Vector) *core.FileRecord {
	t.Helper()
	require.Equal(t, len(texts), len(vectors))

	id := core.FileIDFor(path, core.ChunkModeGist)
	file := &core.FileRecord{Id: id, Path: path, Mode: core.ChunkModeGist}
	for i, text := range texts {
		file.Chunks = append(file.Chunks, core.Chunk{
			Id:           core.ChunkIDFor(id, i),
			SourceFileId: id,
			Text:         text,
			StartLine:    i + 1,
			EndLine:      i + 1,
			Embedding:    vectors[i],
			Mode:         core.ChunkModeGist,
		})
	}
	centroid, err := similarity.Centroid(vectors)
	require.NoError(t, err)
	file.Centroid = centroid
	return file
}

// uniform builds a file whose chunks all sit at similarity sim to (1,0,0).
func uniform(t *testing.T, path, text string, chunks int, sim float64) *core.FileRecord {
	t.Helper()
	texts := make([]string, chunks)
	vectors := make([]core.Vector, chunks)
	for i := range texts {
		texts[i] = text
		vectors[i] = unit(sim)
	}
	return chunked(t, path, texts, vectors...)
}

func queryFor(text string) *core.QueryContext {
	return &core.QueryContext{
		RequestId: "test",
		RawText:   text,
		Terms:     similarity.Terms(text),
		Embedding: core.Vector{1, 0, 0},
	}
}
