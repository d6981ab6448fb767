package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DefaultDimension is the embedding width produced by the default model.
const DefaultDimension = 384

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// FileIDFor returns the ID of the file indexed at path under mode.
// The same path indexed in both modes yields two distinct records.
func FileIDFor(path string, mode ChunkMode) ID {
	return IDFromContent(mode.String() + ":" + path)
}

// ChunkIDFor returns the ID of the chunk at index within a file.
func ChunkIDFor(fileID ID, index int) ID {
	return IDFromContent(fmt.Sprintf("%d#%d", fileID, index))
}

// Vector is an embedding. Vectors are never mutated once stored in a record.
type Vector []float32

// ChunkMode selects the chunking regime.
type ChunkMode int

const (
	// ChunkModeGist produces large, context-preserving chunks.
	ChunkModeGist ChunkMode = iota + 1
	// ChunkModePinpoint produces small, boundary-precise chunks.
	ChunkModePinpoint
)

func (m ChunkMode) String() string {
	switch m {
	case ChunkModeGist:
		return "gist"
	case ChunkModePinpoint:
		return "pinpoint"
	default:
		return fmt.Sprintf("ChunkMode(%d)", int(m))
	}
}

// ParseChunkMode parses "gist" or "pinpoint", case-insensitively.
func ParseChunkMode(s string) (ChunkMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gist":
		return ChunkModeGist, nil
	case "pinpoint":
		return ChunkModePinpoint, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidChunkMode, s)
	}
}

// Chunk is a contiguous span of a document's non-empty lines.
// Line numbers are 1-based positions in the non-empty line sequence.
// The first Overlap lines repeat the tail of the previous chunk.
type Chunk struct {
	Id           ID
	SourceFileId ID
	Text         string
	StartLine    int
	EndLine      int
	Overlap      int
	Embedding    Vector // populated by the indexer
	Mode         ChunkMode
}

// OwnStart returns the first line that belongs to this chunk alone.
func (c *Chunk) OwnStart() int {
	return c.StartLine + c.Overlap
}

// LineCount returns the number of lines in the chunk, overlap included.
func (c *Chunk) LineCount() int {
	return c.EndLine - c.StartLine + 1
}

// FileRecord is an indexed document. Centroid is the element-wise mean of
// the chunk embeddings and is recomputed whenever the chunk set changes.
type FileRecord struct {
	Id         ID
	Path       string
	Mode       ChunkMode
	Chunks     []Chunk
	Centroid   Vector
	NameVector Vector // embedding of the words in the file name, optional
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Checkpoint records the content last indexed at a path so unchanged
// documents can be skipped.
type Checkpoint struct {
	Path        string
	ContentHash ID
	UpdatedAt   time.Time
}

// Text returns the chunk text joined with newlines.
func (f *FileRecord) Text() string {
	parts := make([]string, len(f.Chunks))
	for i := range f.Chunks {
		parts[i] = f.Chunks[i].Text
	}
	return strings.Join(parts, "\n")
}

// QueryContext is built once per search request and never modified after.
type QueryContext struct {
	RequestId      string
	RawText        string
	Terms          []string // ordered, de-duplicated
	Embedding      Vector
	TermEmbeddings []Vector // one per term when available
}

// ScoreBreakdown keeps every scoring component for explainability.
// Only Composite drives ranking.
type ScoreBreakdown struct {
	SMax              float64
	STopKMean         float64
	SCentroid         float64
	SBM25             float64
	LengthFactor      float64
	Composite         float64
	HighQualityChunks int
}

// ChunkScore pairs a chunk with its similarity to the query.
type ChunkScore struct {
	Chunk      *Chunk
	Similarity float64
}

// RankedResult is one entry of a search response.
type RankedResult struct {
	FileId            ID
	Path              string
	Breakdown         ScoreBreakdown
	ConfidencePercent int
	FilenameBoost     float64
	ExactTermBoost    float64
	BestChunks        []ChunkScore
}
