package storage

import (
	"context"

	"github.com/poiesic/filehawk/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// FileRepository stores indexed files and the term statistics used for
// BM25 document frequencies. Every snapshot it returns is consistent: a
// file's chunks, centroid and term postings are written in one transaction.
type FileRepository interface {
	Repository

	// AddFiles inserts or replaces files.
	// Files with ID=0 get core.FileIDFor(path, mode).
	// InsertedAt is preserved when a file is replaced; UpdatedAt is always set.
	// Term postings are rebuilt from the chunk text.
	AddFiles(ctx context.Context, files ...*core.FileRecord) ([]*core.FileRecord, error)

	// UpdateFiles updates existing files and their term postings.
	// Returns ErrNotFound if any file doesn't exist.
	UpdateFiles(ctx context.Context, files ...*core.FileRecord) ([]*core.FileRecord, error)

	// DeleteFiles removes files and their term postings.
	// Returns ErrNotFound if any file doesn't exist.
	DeleteFiles(ctx context.Context, ids ...core.ID) error

	// GetFile retrieves a single file by ID.
	// Returns ErrNotFound if the file doesn't exist.
	GetFile(ctx context.Context, id core.ID) (*core.FileRecord, error)

	// GetFiles retrieves multiple files by their IDs.
	// Returns only the files that exist (no error for missing files).
	GetFiles(ctx context.Context, ids ...core.ID) ([]*core.FileRecord, error)

	// FindFileByPath retrieves the file indexed at path under mode.
	// Returns ErrNotFound if no such file exists.
	FindFileByPath(ctx context.Context, path string, mode core.ChunkMode) (*core.FileRecord, error)

	// GetAllFiles returns every file indexed under mode, ordered by ID.
	// Mode 0 returns files of every mode.
	GetAllFiles(ctx context.Context, mode core.ChunkMode) ([]*core.FileRecord, error)

	// ListFiles pages through files of mode (0 for all) in ID order,
	// returning up to limit files whose ID is greater than after.
	ListFiles(ctx context.Context, mode core.ChunkMode, after core.ID, limit int) ([]*core.FileRecord, error)

	// CountFiles returns the number of files indexed under mode (0 for all).
	CountFiles(ctx context.Context, mode core.ChunkMode) (int, error)

	// DocFrequency returns the number of files of mode whose text contains term.
	// Terms are matched after lowercasing.
	DocFrequency(ctx context.Context, term string, mode core.ChunkMode) (int, error)
}

// CheckpointRepository remembers what was last indexed at each path.
type CheckpointRepository interface {
	// SaveCheckpoint persists checkpoint, replacing any earlier one for
	// the same path. UpdatedAt is set on save.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns the checkpoint of path, or nil, nil when
	// there is none.
	LoadCheckpoint(ctx context.Context, path string) (*core.Checkpoint, error)

	// DeleteCheckpoint forgets path. Deleting a missing checkpoint is not
	// an error.
	DeleteCheckpoint(ctx context.Context, path string) error
}
