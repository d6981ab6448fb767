package search

import (
	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/similarity"
)

const (
	// filenameMatchThreshold is the name similarity a file needs before its
	// name boosts its confidence.
	filenameMatchThreshold = 0.7
	filenameBoostScale     = 0.3

	exactTermBoostScale = 0.2
)

// FilenameBoost rewards files whose name matches the query. The name
// similarity is the best cosine between a query term embedding and the
// file's name vector, or 1 when a query term equals a word of the file
// name. Similarities above 0.7 yield 0.3*similarity, anything else 0.
func FilenameBoost(query *core.QueryContext, file *core.FileRecord) float64 {
	sim := filenameSimilarity(query, file)
	if sim <= filenameMatchThreshold {
		return 0
	}
	return min(filenameBoostScale*sim, MaxBoost)
}

func filenameSimilarity(query *core.QueryContext, file *core.FileRecord) float64 {
	words := similarity.FilenameWords(file.Path)
	if len(words) == 0 {
		return 0
	}
	for _, term := range query.Terms {
		for _, word := range words {
			if term == word {
				return 1
			}
		}
	}

	best := 0.0
	if len(file.NameVector) == 0 {
		return best
	}
	for _, vec := range query.TermEmbeddings {
		sim, err := similarity.CosineSimilarity(vec, file.NameVector)
		if err != nil {
			continue
		}
		best = max(best, similarity.Clamp01(sim))
	}
	return best
}

// ExactTermBoost is 0.2 times the fraction of query terms found in text.
func ExactTermBoost(query *core.QueryContext, text string) float64 {
	if len(query.Terms) == 0 {
		return 0
	}
	present := similarity.TermSet(text)
	found := 0
	for _, term := range query.Terms {
		if present[term] {
			found++
		}
	}
	return exactTermBoostScale * float64(found) / float64(len(query.Terms))
}
