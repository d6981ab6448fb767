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

	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/storage"
)

const (
	// DefaultBatchSize is the default number of files fetched per page
	DefaultBatchSize = 100

	// DefaultEmbedBatchSize is the default number of texts sent per
	// embedding call
	DefaultEmbedBatchSize = 32
)

// FileIterator pages over the stored files of one mode.
type FileIterator struct {
	repo      storage.FileRepository
	mode      core.ChunkMode
	batchSize int
}

// NewFileIterator creates a new file iterator. mode 0 iterates every
// mode; a batchSize <= 0 selects DefaultBatchSize.
func NewFileIterator(repo storage.FileRepository, mode core.ChunkMode, batchSize int) *FileIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &FileIterator{
		repo:      repo,
		mode:      mode,
		batchSize: batchSize,
	}
}

// ForEach calls fn with successive pages of files in ID order.
// Iteration stops on the first error from fn or when the repository is
// exhausted. Context cancellation is checked between pages.
func (it *FileIterator) ForEach(ctx context.Context, fn func([]*core.FileRecord) error) error {
	after := core.ID(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		page, err := it.repo.ListFiles(ctx, it.mode, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		// Capture the cursor first; fn may rewrite the records
		after = page[len(page)-1].Id

		if err := fn(page); err != nil {
			return err
		}
		if len(page) < it.batchSize {
			return nil
		}
	}
}
