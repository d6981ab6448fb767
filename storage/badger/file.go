package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/similarity"
	"github.com/poiesic/filehawk/storage"
)

// FileRepository implements storage.FileRepository for BadgerDB.
type FileRepository struct {
	backend *Backend
}

var _ storage.FileRepository = (*FileRepository)(nil)

// NewFileRepository creates a new FileRepository.
func NewFileRepository(backend *Backend) (*FileRepository, error) {
	if backend == nil {
		return nil, errors.New("badger: backend is required")
	}
	return &FileRepository{
		backend: backend,
	}, nil
}

// Close releases resources. FileRepository has no resources to release;
// the backend is closed by its owner.
func (r *FileRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *FileRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddFiles inserts or replaces files. Each file is written in its own
// transaction together with its term postings.
func (r *FileRepository) AddFiles(ctx context.Context, files ...*core.FileRecord) ([]*core.FileRecord, error) {
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if file.Id == 0 {
			file.Id = core.FileIDFor(file.Path, file.Mode)
		}
		if err := core.ValidateFileRecord(file); err != nil {
			return nil, err
		}

		err := r.backend.WithTx(func(tx *badger.Txn) error {
			key := makeFileKey(file.Id)
			old, err := readFile(tx, key)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			file.UpdatedAt = now
			if old != nil {
				file.InsertedAt = old.InsertedAt
				if err := deletePostings(tx, old); err != nil {
					return err
				}
			} else if file.InsertedAt.IsZero() {
				file.InsertedAt = now
			}

			if err := tx.Set(key, storage.MarshalFileRecord(file)); err != nil {
				return err
			}
			if err := writePostings(tx, file); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", file.Path, err)
		}
	}
	return files, nil
}

// UpdateFiles updates existing files and rebuilds their term postings.
func (r *FileRepository) UpdateFiles(ctx context.Context, files ...*core.FileRecord) ([]*core.FileRecord, error) {
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := core.ValidateFileRecord(file); err != nil {
			return nil, err
		}

		err := r.backend.WithTx(func(tx *badger.Txn) error {
			key := makeFileKey(file.Id)
			old, err := readFile(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			file.UpdatedAt = time.Now().UTC()
			if err := deletePostings(tx, old); err != nil {
				return err
			}
			if err := tx.Set(key, storage.MarshalFileRecord(file)); err != nil {
				return err
			}
			if err := writePostings(tx, file); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// DeleteFiles removes files by their IDs.
func (r *FileRepository) DeleteFiles(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeFileKey(id)

			// Read the file to find its postings
			file, err := readFile(tx, key)
			if err != nil {
				return err
			}
			if file == nil {
				return storage.ErrNotFound
			}

			if err := deletePostings(tx, file); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetFile retrieves a single file by ID.
func (r *FileRepository) GetFile(ctx context.Context, id core.ID) (*core.FileRecord, error) {
	var result *core.FileRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readFile(tx, makeFileKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetFiles retrieves multiple files by their IDs.
func (r *FileRepository) GetFiles(ctx context.Context, ids ...core.ID) ([]*core.FileRecord, error) {
	var result []*core.FileRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			file, err := readFile(tx, makeFileKey(id))
			if err != nil {
				return err
			}
			if file != nil {
				result = append(result, file)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindFileByPath retrieves the file indexed at path under mode.
func (r *FileRepository) FindFileByPath(ctx context.Context, path string, mode core.ChunkMode) (*core.FileRecord, error) {
	return r.GetFile(ctx, core.FileIDFor(path, mode))
}

// GetAllFiles retrieves every file of mode (0 for all), ordered by ID.
func (r *FileRepository) GetAllFiles(ctx context.Context, mode core.ChunkMode) ([]*core.FileRecord, error) {
	var results []*core.FileRecord
	err := r.scanFiles(ctx, fileKeyPrefix(), func(file *core.FileRecord) bool {
		if mode == 0 || file.Mode == mode {
			results = append(results, file)
		}
		return true
	})
	return results, err
}

// ListFiles pages through files of mode in ID order.
func (r *FileRepository) ListFiles(ctx context.Context, mode core.ChunkMode, after core.ID, limit int) ([]*core.FileRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit %d", storage.ErrInvalidQuery, limit)
	}
	var results []*core.FileRecord
	err := r.scanFiles(ctx, makeFileKey(after), func(file *core.FileRecord) bool {
		if file.Id == after {
			return true
		}
		if mode == 0 || file.Mode == mode {
			results = append(results, file)
		}
		return len(results) < limit
	})
	return results, err
}

// CountFiles returns the number of files of mode (0 for all).
func (r *FileRepository) CountFiles(ctx context.Context, mode core.ChunkMode) (int, error) {
	count := 0
	err := r.scanFiles(ctx, fileKeyPrefix(), func(file *core.FileRecord) bool {
		if mode == 0 || file.Mode == mode {
			count++
		}
		return true
	})
	return count, err
}

// DocFrequency counts the postings of term under mode (0 for all modes).
func (r *FileRepository) DocFrequency(ctx context.Context, term string, mode core.ChunkMode) (int, error) {
	modes := []core.ChunkMode{mode}
	if mode == 0 {
		modes = []core.ChunkMode{core.ChunkModeGist, core.ChunkModePinpoint}
	}
	tokens := similarity.Tokens(term)
	if len(tokens) != 1 {
		return 0, nil
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, m := range modes {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			opts.Prefix = makeTermPrefix(m, tokens[0])
			iter := tx.NewIterator(opts)
			for iter.Rewind(); iter.Valid(); iter.Next() {
				count++
			}
			iter.Close()
		}
		return nil
	}, false)
	return count, err
}

// scanFiles iterates file records from start in key order until fn
// returns false.
func (r *FileRepository) scanFiles(ctx context.Context, start []byte, fn func(*core.FileRecord) bool) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := fileKeyPrefix()
		for iter.Seek(start); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()

			// Stop once we've moved past file keys
			if !hasPrefix(item.Key(), prefix) {
				break
			}

			var file *core.FileRecord
			err := item.Value(func(val []byte) error {
				var err error
				file, err = storage.UnmarshalFileRecord(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("file %d: %w", binary.BigEndian.Uint64(item.Key()[len(prefix):]), err)
			}
			if !fn(file) {
				break
			}
		}
		return nil
	}, false)
}

// Helper methods

// hasPrefix checks if a byte slice has a given prefix
func hasPrefix(s, prefix []byte) bool {
	return len(s) >= len(prefix) && string(s[:len(prefix)]) == string(prefix)
}

// readFile reads a file record from the transaction.
// Returns nil, nil if the key doesn't exist.
func readFile(tx *badger.Txn, key []byte) (*core.FileRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var file *core.FileRecord
	err = item.Value(func(val []byte) error {
		var err error
		file, err = storage.UnmarshalFileRecord(val)
		return err
	})
	return file, err
}

// writePostings records every distinct term of the file's text.
func writePostings(tx *badger.Txn, file *core.FileRecord) error {
	for _, term := range similarity.Terms(file.Text()) {
		if err := tx.Set(makeTermKey(file.Mode, term, file.Id), nil); err != nil {
			return err
		}
	}
	return nil
}

// deletePostings removes the postings written for file.
func deletePostings(tx *badger.Txn, file *core.FileRecord) error {
	for _, term := range similarity.Terms(file.Text()) {
		if err := tx.Delete(makeTermKey(file.Mode, term, file.Id)); err != nil {
			return err
		}
	}
	return nil
}
