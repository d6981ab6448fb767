package search

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/similarity"
)

const (
	// highQualityThreshold is the chunk similarity counted toward the
	// multi-chunk quality boost.
	highQualityThreshold = 0.6

	// qualityBoostStep is the boost per extra high quality chunk, up to
	// qualityBoostMaxSteps steps.
	qualityBoostStep     = 0.1
	qualityBoostMaxSteps = 3
)

// FileScore is the Stage 2 result for one file.
type FileScore struct {
	File      *core.FileRecord
	Breakdown core.ScoreBreakdown

	// Chunks holds every chunk with its similarity, best first.
	Chunks []core.ChunkScore
}

// ScoreFile computes the holistic score of file for query. Chunk and
// centroid similarities are clamped to [0,1] before blending. A nil idf
// weights every term equally. A file without chunks fails with
// core.ErrEmptyFile.
func ScoreFile(query *core.QueryContext, file *core.FileRecord, weights ScoringWeights, idf similarity.IDFFunc) (FileScore, error) {
	if err := weights.Validate(); err != nil {
		return FileScore{}, err
	}
	return scoreFile(query, file, weights, idf)
}

func scoreFile(query *core.QueryContext, file *core.FileRecord, weights ScoringWeights, idf similarity.IDFFunc) (FileScore, error) {
	n := len(file.Chunks)
	if n == 0 {
		return FileScore{}, fmt.Errorf("%w: %s", core.ErrEmptyFile, file.Path)
	}

	sims := make([]float64, n)
	chunks := make([]core.ChunkScore, n)
	for i := range file.Chunks {
		chunk := &file.Chunks[i]
		sim, err := similarity.CosineSimilarity(query.Embedding, chunk.Embedding)
		if err != nil {
			return FileScore{}, fmt.Errorf("chunk %d: %w", i, err)
		}
		sims[i] = similarity.Clamp01(sim)
		chunks[i] = core.ChunkScore{Chunk: chunk, Similarity: sims[i]}
	}

	centroid, err := similarity.CosineSimilarity(query.Embedding, file.Centroid)
	if err != nil {
		return FileScore{}, fmt.Errorf("centroid: %w", err)
	}

	if idf == nil {
		idf = func(string) float64 { return 1 }
	}

	b := core.ScoreBreakdown{
		SMax:         slices.Max(sims),
		STopKMean:    similarity.SoftTopKMean(sims, similarity.AdaptiveTopK(n), similarity.DefaultAlpha),
		SCentroid:    similarity.Clamp01(centroid),
		SBM25:        similarity.DefaultBM25Params().Score(query.Terms, file.Text(), idf),
		LengthFactor: LengthFactor(n),
	}
	b.Composite = similarity.Clamp01(weights.Max*b.SMax +
		weights.TopK*b.STopKMean +
		weights.Centroid*b.SCentroid +
		weights.BM25*b.SBM25 +
		weights.Length*b.LengthFactor)

	for _, s := range sims {
		if s >= highQualityThreshold {
			b.HighQualityChunks++
		}
	}
	b.Composite = similarity.Clamp01(b.Composite * QualityBoost(b.HighQualityChunks))

	slices.SortStableFunc(chunks, func(x, y core.ChunkScore) int {
		return cmp.Compare(y.Similarity, x.Similarity)
	})

	return FileScore{File: file, Breakdown: b, Chunks: chunks}, nil
}

// LengthFactor maps a chunk count to a mild length bonus or penalty:
// 0.8 rising by 0.02 per chunk below 10 chunks, 1.0 from 10 to 30, and
// approaching 1.2 above 30.
func LengthFactor(chunks int) float64 {
	switch {
	case chunks < 10:
		return 0.8 + 0.02*float64(max(chunks, 0))
	case chunks <= 30:
		return 1.0
	default:
		return 1.0 + 0.2*(1-math.Exp(-float64(chunks-30)/30))
	}
}

// QualityBoost returns the composite multiplier for a number of chunks at
// or above the high quality threshold. Fewer than two such chunks get no
// boost.
func QualityBoost(highQuality int) float64 {
	if highQuality < 2 {
		return 1.0
	}
	return 1.0 + qualityBoostStep*float64(min(highQuality-1, qualityBoostMaxSteps))
}
