package search

import (
	"context"

	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/similarity"
)

// DocFrequencyFunc returns the number of documents containing term.
type DocFrequencyFunc func(ctx context.Context, term string) (int, error)

// CountDocFrequency returns a DocFrequencyFunc counting over files.
func CountDocFrequency(files []*core.FileRecord) DocFrequencyFunc {
	sets := make([]map[string]bool, len(files))
	for i, file := range files {
		sets[i] = similarity.TermSet(file.Text())
	}
	return func(_ context.Context, term string) (int, error) {
		df := 0
		for _, set := range sets {
			if set[term] {
				df++
			}
		}
		return df, nil
	}
}

// BuildIDF resolves the IDF of every term up front against a document set
// of totalDocs documents. The returned function is safe for concurrent use
// and returns 0 for terms it was not built with.
func BuildIDF(ctx context.Context, terms []string, totalDocs int, df DocFrequencyFunc) (similarity.IDFFunc, error) {
	values := make(map[string]float64, len(terms))
	for _, term := range terms {
		n, err := df(ctx, term)
		if err != nil {
			return nil, err
		}
		values[term] = similarity.IDF(totalDocs, n)
	}
	return func(term string) float64 {
		return values[term]
	}, nil
}
