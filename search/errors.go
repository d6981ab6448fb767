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


package search

import (
	"errors"
	"fmt"

	"github.com/poiesic/filehawk/core"
)

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrFileRepositoryRequired is returned by SearchStore when the searcher
	// has no file repository.
	ErrFileRepositoryRequired = errors.New("file repository required")

	// ErrInvalidConfig is returned when a search configuration is rejected.
	ErrInvalidConfig = errors.New("invalid search config")

	// ErrEmptyQuery is returned for a query without text or embedding.
	ErrEmptyQuery = errors.New("empty query")

	// ErrInvalidTransition is returned when the pipeline is asked to move
	// to a stage out of order.
	ErrInvalidTransition = errors.New("invalid stage transition")
)

// FileError reports a failure confined to one file of the corpus.
type FileError struct {
	FileId core.ID
	Path   string
	Stage  Stage
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

func newFileError(file *core.FileRecord, stage Stage, err error) *FileError {
	return &FileError{FileId: file.Id, Path: file.Path, Stage: stage, Err: err}
}
