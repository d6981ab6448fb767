package search

import (
	"fmt"
	"math"

	"github.com/poiesic/filehawk/core"
)

// IDFScope selects the document set BM25 document frequencies are counted over.
type IDFScope int

const (
	// IDFScopeCandidates counts over the Stage 1 candidate set.
	IDFScopeCandidates IDFScope = iota
	// IDFScopeCorpus counts over the whole corpus of the requested mode.
	IDFScopeCorpus
)

func (s IDFScope) String() string {
	if s == IDFScopeCorpus {
		return "corpus"
	}
	return "candidates"
}

// ParseIDFScope parses "candidates" or "corpus".
func ParseIDFScope(s string) (IDFScope, error) {
	switch s {
	case "candidates", "":
		return IDFScopeCandidates, nil
	case "corpus":
		return IDFScopeCorpus, nil
	}
	return 0, fmt.Errorf("%w: unknown idf scope %q", ErrInvalidConfig, s)
}

// Config holds the per-request search parameters.
type Config struct {
	// Mode restricts the corpus to records of one chunking regime.
	// Zero searches every record.
	Mode core.ChunkMode

	Weights ScoringWeights

	// MaxCandidates bounds the Stage 1 survivor set.
	MaxCandidates int

	// MinSimilarity is the Stage 1 centroid relevance floor.
	MinSimilarity float64

	// MaxResults bounds the response. Zero returns every scored candidate.
	MaxResults int

	// BestChunks is the number of top chunks attached to each result.
	BestChunks int

	IDFScope IDFScope

	// SkipInvalidFiles reports per-file failures in the SearchReport instead
	// of aborting the request.
	SkipInvalidFiles bool

	FilenameBoost  bool
	ExactTermBoost bool
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithMode sets the chunking regime to search.
func WithMode(mode core.ChunkMode) ConfigOption {
	return func(c *Config) {
		c.Mode = mode
	}
}

// WithWeights sets the scoring weights.
func WithWeights(w ScoringWeights) ConfigOption {
	return func(c *Config) {
		c.Weights = w
	}
}

// WithMaxCandidates sets the Stage 1 candidate bound.
func WithMaxCandidates(n int) ConfigOption {
	return func(c *Config) {
		c.MaxCandidates = n
	}
}

// WithMinSimilarity sets the Stage 1 relevance floor.
func WithMinSimilarity(min float64) ConfigOption {
	return func(c *Config) {
		c.MinSimilarity = min
	}
}

// WithMaxResults sets the response bound.
func WithMaxResults(n int) ConfigOption {
	return func(c *Config) {
		c.MaxResults = n
	}
}

// WithIDFScope sets the document-frequency scope.
func WithIDFScope(scope IDFScope) ConfigOption {
	return func(c *Config) {
		c.IDFScope = scope
	}
}

// WithSkipInvalidFiles enables per-file error reporting.
func WithSkipInvalidFiles(skip bool) ConfigOption {
	return func(c *Config) {
		c.SkipInvalidFiles = skip
	}
}

// WithBoosts toggles the filename and exact-term boosts.
func WithBoosts(filename, exactTerm bool) ConfigOption {
	return func(c *Config) {
		c.FilenameBoost = filename
		c.ExactTermBoost = exactTerm
	}
}

// DefaultConfig returns the default search configuration: Gist mode,
// default weights, 200 candidates above 0.3 similarity, ten results.
func DefaultConfig() Config {
	return Config{
		Mode:           core.ChunkModeGist,
		Weights:        DefaultWeights(),
		MaxCandidates:  200,
		MinSimilarity:  0.3,
		MaxResults:     10,
		BestChunks:     3,
		IDFScope:       IDFScopeCandidates,
		FilenameBoost:  true,
		ExactTermBoost: true,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Mode != 0 {
		if err := core.ValidateChunkMode(c.Mode); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("%w: MaxCandidates must be at least 1", ErrInvalidConfig)
	}
	if math.IsNaN(c.MinSimilarity) || c.MinSimilarity < -1 || c.MinSimilarity > 1 {
		return fmt.Errorf("%w: MinSimilarity %v outside [-1,1]", ErrInvalidConfig, c.MinSimilarity)
	}
	if c.MaxResults < 0 {
		return fmt.Errorf("%w: MaxResults must not be negative", ErrInvalidConfig)
	}
	if c.BestChunks < 0 {
		return fmt.Errorf("%w: BestChunks must not be negative", ErrInvalidConfig)
	}
	if c.IDFScope != IDFScopeCandidates && c.IDFScope != IDFScopeCorpus {
		return fmt.Errorf("%w: unknown idf scope %d", ErrInvalidConfig, c.IDFScope)
	}
	return nil
}
