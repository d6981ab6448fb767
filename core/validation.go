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


package core

import (
	"fmt"
)

// ValidateFileRecord validates a FileRecord according to domain rules.
//
// Validation rules:
//   - Path must not be empty
//   - Mode must be valid
//   - Every chunk must be valid
//   - Chunk embeddings and the centroid must share one dimension
//
// NOT validated:
//   - Embeddings may all be empty for records that have not been embedded yet
//   - NameVector is optional and may have any length
func ValidateFileRecord(record *FileRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidFileRecord)
	}

	if record.Path == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFileRecord, ErrEmptyPath)
	}

	if err := ValidateChunkMode(record.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFileRecord, err)
	}

	dim := -1
	for i := range record.Chunks {
		c := &record.Chunks[i]
		if err := ValidateChunk(c); err != nil {
			return fmt.Errorf("%w: chunk %d: %w", ErrInvalidFileRecord, i, err)
		}
		if len(c.Embedding) == 0 {
			continue
		}
		if dim == -1 {
			dim = len(c.Embedding)
		} else if len(c.Embedding) != dim {
			return fmt.Errorf("%w: chunk %d: %w", ErrInvalidFileRecord, i, ErrDimensionMismatch)
		}
	}

	if dim != -1 && len(record.Centroid) != dim {
		return fmt.Errorf("%w: centroid: %w", ErrInvalidFileRecord, ErrDimensionMismatch)
	}

	return nil
}

// ValidateChunk validates a Chunk's line range and mode.
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.StartLine < 1 || chunk.StartLine > chunk.EndLine {
		return fmt.Errorf("%w: %w: %d-%d", ErrInvalidChunk, ErrInvalidLineRange, chunk.StartLine, chunk.EndLine)
	}

	if chunk.Overlap < 0 || chunk.OwnStart() > chunk.EndLine {
		return fmt.Errorf("%w: %w: overlap %d", ErrInvalidChunk, ErrInvalidLineRange, chunk.Overlap)
	}

	if err := ValidateChunkMode(chunk.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}

	return nil
}

// ValidateChunkMode validates that a ChunkMode has a valid value.
func ValidateChunkMode(mode ChunkMode) error {
	if mode != ChunkModeGist && mode != ChunkModePinpoint {
		return fmt.Errorf("%w: value %d", ErrInvalidChunkMode, mode)
	}
	return nil
}
