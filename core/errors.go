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

import "errors"

// Scoring errors
var (
	// ErrDimensionMismatch indicates two vectors of unequal length were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyFile indicates a file with zero chunks reached the scorer.
	ErrEmptyFile = errors.New("file has no chunks")

	// ErrInvalidWeights indicates scoring weights are negative or do not sum to 1.
	ErrInvalidWeights = errors.New("invalid scoring weights")

	// ErrPreconditionViolation indicates a caller passed a value outside its contract.
	ErrPreconditionViolation = errors.New("precondition violation")
)

// Domain validation errors
var (
	// ErrInvalidFileRecord indicates a FileRecord failed validation.
	ErrInvalidFileRecord = errors.New("invalid file record")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyPath indicates the Path field is empty.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrInvalidLineRange indicates StartLine/EndLine/Overlap are inconsistent.
	ErrInvalidLineRange = errors.New("invalid line range")

	// ErrInvalidChunkMode indicates an unknown ChunkMode value.
	ErrInvalidChunkMode = errors.New("invalid chunk mode")
)
