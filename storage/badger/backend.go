package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/filehawk/storage"
)

// Backend owns the BadgerDB handle shared by the file and checkpoint
// repositories.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// slogAdapter routes badger's printf-style logging to slog.
type slogAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*slogAdapter)(nil)

func (a *slogAdapter) log(level slog.Level, msg string, items []any) {
	a.logger.Log(context.Background(), level, strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (a *slogAdapter) Errorf(msg string, items ...any)   { a.log(slog.LevelError, msg, items) }
func (a *slogAdapter) Warningf(msg string, items ...any) { a.log(slog.LevelWarn, msg, items) }
func (a *slogAdapter) Infof(msg string, items ...any)    { a.log(slog.LevelInfo, msg, items) }
func (a *slogAdapter) Debugf(msg string, items ...any)   { a.log(slog.LevelDebug, msg, items) }

// OpenBackend opens the index at filePath, creating the directory when
// missing. With inMemory set the path is ignored. A nil logger uses
// slog.Default().
func OpenBackend(filePath string, inMemory bool, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "badger")

	opts, err := badgerOptions(filePath, inMemory)
	if err != nil {
		return nil, err
	}
	opts.Logger = &slogAdapter{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open index %q: %w", filePath, err)
	}
	return &Backend{db: db, logger: logger}, nil
}

func badgerOptions(filePath string, inMemory bool) (badger.Options, error) {
	if inMemory {
		return badger.DefaultOptions("").WithInMemory(true).WithCompression(options.None), nil
	}
	if err := os.MkdirAll(filePath, 0o755); err != nil {
		return badger.Options{}, fmt.Errorf("index path %q: %w", filePath, err)
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return badger.Options{}, err
	}
	if !info.IsDir() {
		return badger.Options{}, fmt.Errorf("index path %q is not a directory", filePath)
	}
	return badger.DefaultOptions(filePath).WithCompression(options.None), nil
}

// Close closes the database.
func (b *Backend) Close() error {
	b.logger.Debug("closing index")
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx runs fn in a badger transaction, read-write when isWrite is set.
// fn commits; the transaction is discarded afterwards either way.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// WithTransaction runs fn and commits a write transaction if it succeeds.
func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.WithTx(func(tx *badger.Txn) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
