package chunking

import "errors"

// ErrInvalidParams indicates segmentation parameters outside their allowed range.
var ErrInvalidParams = errors.New("invalid chunking parameters")
