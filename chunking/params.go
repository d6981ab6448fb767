package chunking

import (
	"fmt"

	"github.com/poiesic/filehawk/core"
)

// Params holds the size and overlap settings of a Segmenter.
// Line counts refer to non-empty lines and include the overlap prefix.
type Params struct {
	// TargetLines is the size at which the boundary threshold reaches its
	// midpoint. Gist: 20..50, Pinpoint: 5..15.
	TargetLines int

	// MinLines is the smallest chunk that may close on a boundary signal.
	MinLines int

	// MaxLines is the hard upper bound on a chunk's line count.
	MaxLines int

	// Overlap is the number of trailing lines of the previous chunk that
	// prefix each subsequent chunk. Gist: 3..5, Pinpoint: 0..1.
	Overlap int

	// MaxChars bounds a chunk's text length. A single line longer than this
	// becomes its own chunk. Zero disables the bound.
	MaxChars int
}

type paramRange struct {
	minTarget, maxTarget   int
	minOverlap, maxOverlap int
}

var paramRanges = map[core.ChunkMode]paramRange{
	core.ChunkModeGist:     {minTarget: 20, maxTarget: 50, minOverlap: 3, maxOverlap: 5},
	core.ChunkModePinpoint: {minTarget: 5, maxTarget: 15, minOverlap: 0, maxOverlap: 1},
}

// DefaultParams returns the defaults for mode.
//
//	Gist:     target 35, min 15, max 50, overlap 5, 8000 chars
//	Pinpoint: target 10, min 5,  max 15, overlap 1, 2000 chars
func DefaultParams(mode core.ChunkMode) Params {
	if mode == core.ChunkModePinpoint {
		return Params{TargetLines: 10, MinLines: 5, MaxLines: 15, Overlap: 1, MaxChars: 2000}
	}
	return Params{TargetLines: 35, MinLines: 15, MaxLines: 50, Overlap: 5, MaxChars: 8000}
}

// Option is a functional option for configuring a Segmenter.
type Option func(*Params) error

// WithParams replaces every parameter at once.
func WithParams(p Params) Option {
	return func(dst *Params) error {
		*dst = p
		return nil
	}
}

// WithTargetLines sets the target chunk size.
func WithTargetLines(n int) Option {
	return func(p *Params) error {
		p.TargetLines = n
		return nil
	}
}

// WithMinLines sets the minimum size for a boundary-driven close.
func WithMinLines(n int) Option {
	return func(p *Params) error {
		p.MinLines = n
		return nil
	}
}

// WithMaxLines sets the hard maximum chunk size.
func WithMaxLines(n int) Option {
	return func(p *Params) error {
		p.MaxLines = n
		return nil
	}
}

// WithOverlap sets the number of overlap lines.
func WithOverlap(n int) Option {
	return func(p *Params) error {
		p.Overlap = n
		return nil
	}
}

// WithMaxChars sets the character bound. Zero disables it.
func WithMaxChars(n int) Option {
	return func(p *Params) error {
		if n < 0 {
			return fmt.Errorf("%w: max chars %d", ErrInvalidParams, n)
		}
		p.MaxChars = n
		return nil
	}
}

// Validate checks p against the ranges allowed for mode.
func (p Params) Validate(mode core.ChunkMode) error {
	if err := core.ValidateChunkMode(mode); err != nil {
		return err
	}
	r := paramRanges[mode]

	if p.TargetLines < r.minTarget || p.TargetLines > r.maxTarget {
		return fmt.Errorf("%w: %s target %d outside %d..%d",
			ErrInvalidParams, mode, p.TargetLines, r.minTarget, r.maxTarget)
	}
	if p.Overlap < r.minOverlap || p.Overlap > r.maxOverlap {
		return fmt.Errorf("%w: %s overlap %d outside %d..%d",
			ErrInvalidParams, mode, p.Overlap, r.minOverlap, r.maxOverlap)
	}
	if p.MinLines < 1 || p.MinLines > p.TargetLines || p.TargetLines > p.MaxLines {
		return fmt.Errorf("%w: need 1 <= min (%d) <= target (%d) <= max (%d)",
			ErrInvalidParams, p.MinLines, p.TargetLines, p.MaxLines)
	}
	if p.Overlap >= p.MinLines {
		return fmt.Errorf("%w: overlap %d must be below min %d", ErrInvalidParams, p.Overlap, p.MinLines)
	}
	if p.MaxChars < 0 {
		return fmt.Errorf("%w: max chars %d", ErrInvalidParams, p.MaxChars)
	}
	return nil
}
