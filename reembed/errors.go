package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrFileRepositoryRequired is returned when no repository is supplied
	ErrFileRepositoryRequired = errors.New("file repository is required")

	// ErrEmbedderRequired is returned when no embedder is supplied
	ErrEmbedderRequired = errors.New("embedder is required")
)
