package search

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/similarity"
)

// Candidate is a file that survived Stage 1, with its centroid similarity.
type Candidate struct {
	File       *core.FileRecord
	Similarity float64
}

// FilterCandidates compares the query embedding with every file centroid,
// drops files below minSimilarity, and returns at most maxCandidates files
// ordered by similarity (descending, ties by file ID). An empty result is
// not an error. The first per-file failure, in input order, is returned.
func FilterCandidates(ctx context.Context, query *core.QueryContext, files []*core.FileRecord, maxCandidates int, minSimilarity float64) ([]Candidate, error) {
	var candidates []Candidate
	err := withPool(func(pool *ants.Pool) error {
		var fileErrs []*FileError
		var err error
		candidates, fileErrs, err = filterCandidates(ctx, pool, query, files, maxCandidates, minSimilarity)
		if err != nil {
			return err
		}
		if len(fileErrs) > 0 {
			return fileErrs[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// filterCandidates is Stage 1. Files that cannot be compared are returned
// as FileErrors, in input order, and left out of the candidates.
func filterCandidates(ctx context.Context, pool *ants.Pool, query *core.QueryContext, files []*core.FileRecord, maxCandidates int, minSimilarity float64) ([]Candidate, []*FileError, error) {
	sims := make([]float64, len(files))
	errs := make([]error, len(files))

	err := fanOut(ctx, pool, len(files), func(i int) {
		file := files[i]
		if len(file.Chunks) == 0 {
			errs[i] = fmt.Errorf("%w: %s", core.ErrEmptyFile, file.Path)
			return
		}
		sims[i], errs[i] = similarity.CosineSimilarity(query.Embedding, file.Centroid)
	})
	if err != nil {
		return nil, nil, err
	}

	var fileErrs []*FileError
	candidates := make([]Candidate, 0, len(files))
	for i, file := range files {
		if errs[i] != nil {
			fileErrs = append(fileErrs, newFileError(file, StageFiltering, errs[i]))
			continue
		}
		if sims[i] < minSimilarity {
			continue
		}
		candidates = append(candidates, Candidate{File: file, Similarity: sims[i]})
	}

	slices.SortFunc(candidates, func(a, b Candidate) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.File.Id, b.File.Id)
	})
	if maxCandidates > 0 && len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates, fileErrs, nil
}
