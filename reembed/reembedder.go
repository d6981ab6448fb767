// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/filehawk/ai"
	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// Mode restricts reembedding to one chunking mode; 0 selects all modes
	Mode core.ChunkMode

	// BatchSize is the number of files to process in each batch
	BatchSize int

	// EmbedBatchSize caps the texts sent per embedding call; 0 selects
	// DefaultEmbedBatchSize
	EmbedBatchSize int

	// ReportInterval is how often to report progress (number of files)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		EmbedBatchSize: DefaultEmbedBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Result summarizes a completed run.
type Result struct {
	Files   int
	Chunks  int
	Elapsed time.Duration
}

// Reembedder orchestrates the reembedding of every stored file.
type Reembedder struct {
	repo      storage.FileRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *FileIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr); nil discards it
func NewReembedder(repo storage.FileRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrFileRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.EmbedBatchSize, config.MaxRetries, config.RetryDelay),
		iterator:  NewFileIterator(repo, config.Mode, config.BatchSize),
	}, nil
}

// Run reembeds every file of the configured mode. Progress is reported
// to the configured writer.
func (r *Reembedder) Run(ctx context.Context) (Result, error) {
	var result Result

	total, err := r.repo.CountFiles(ctx, r.config.Mode)
	if err != nil {
		return result, fmt.Errorf("failed to count files: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No files found in index (0 files)\n")
		return result, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d files (batch size: %d)\n",
		total, r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval, "files")
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(files []*core.FileRecord) error {
		chunks, err := r.processor.Process(ctx, files)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		result.Files += len(files)
		result.Chunks += chunks
		tracker.Advance(len(files), chunks)
		return nil
	})
	result.Elapsed = tracker.Elapsed()
	if err != nil {
		return result, err
	}

	tracker.Finish()

	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d files (%d chunks) in %v\n",
		result.Files, result.Chunks, result.Elapsed.Round(time.Millisecond))

	return result, nil
}
