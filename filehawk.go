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


// Package filehawk wires the file index, the embedding provider, the
// indexer and the searcher into one handle.
package filehawk

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/filehawk/ai"
	"github.com/poiesic/filehawk/ai/openai"
	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/ingestion"
	"github.com/poiesic/filehawk/reembed"
	"github.com/poiesic/filehawk/search"
	"github.com/poiesic/filehawk/storage"
	"github.com/poiesic/filehawk/storage/badger"
)

type Database struct {
	backend        *badger.Backend
	fileRepo       storage.FileRepository
	checkpointRepo storage.CheckpointRepository
	provider       ai.AIProvider
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	logger   *slog.Logger
	inMemory bool
}

// WithAIConfig sets the configuration of the default OpenAI-compatible
// provider. Ignored when WithProvider is given.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies the embedding provider. The database takes
// ownership and closes it on Close.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithInMemory keeps the index in memory; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens the index stored at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory, options.logger)
	if err != nil {
		return nil, err
	}

	fileRepo, err := badger.NewFileRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			fileRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:        backend,
		fileRepo:       fileRepo,
		checkpointRepo: badger.NewCheckpointRepository(backend),
		provider:       provider,
		logger:         options.logger,
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.fileRepo.Close(); err != nil {
		db.logger.Error("error closing file repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) FileRepository() storage.FileRepository {
	return db.fileRepo
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// NewIndexer returns an indexer writing to this database. Unchanged
// documents are skipped unless ingestion.WithCheckpoints(nil) is passed.
// The caller releases it.
func (db *Database) NewIndexer(opts ...ingestion.Option) (*ingestion.Indexer, error) {
	opts = append([]ingestion.Option{
		ingestion.WithLogger(db.logger),
		ingestion.WithCheckpoints(db.checkpointRepo),
	}, opts...)
	return ingestion.NewIndexer(db.fileRepo, db.provider, opts...)
}

// NewSearcher returns a searcher over this database. The caller releases it.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{
		search.WithLogger(db.logger),
		search.WithFileRepository(db.fileRepo),
	}, opts...)
	return search.NewSearcher(db.provider.Embedder(), opts...)
}

// NewReembedder returns a reembedder that rewrites every stored embedding
// with embedder, or with the database's own embedder when embedder is nil.
func (db *Database) NewReembedder(embedder ai.Embedder, config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if embedder == nil {
		embedder = db.provider.Embedder()
	}
	return reembed.NewReembedder(db.fileRepo, embedder, config, progress)
}

// ModeStats counts the records of one chunking mode.
type ModeStats struct {
	Mode      core.ChunkMode
	Files     int
	Chunks    int
	Dimension int
}

// Stats reports what the index holds for each chunking mode.
func (db *Database) Stats(ctx context.Context) ([]ModeStats, error) {
	var stats []ModeStats
	for _, mode := range []core.ChunkMode{core.ChunkModeGist, core.ChunkModePinpoint} {
		s := ModeStats{Mode: mode}
		err := reembed.NewFileIterator(db.fileRepo, mode, 0).ForEach(ctx, func(files []*core.FileRecord) error {
			for _, f := range files {
				s.Files++
				s.Chunks += len(f.Chunks)
				if s.Dimension == 0 {
					s.Dimension = len(f.Centroid)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, nil
}
