package chunking

import (
	"fmt"
	"strings"

	"github.com/poiesic/filehawk/core"
)

// Segmenter splits document text into overlapping chunks.
// A Segmenter is immutable and safe for concurrent use.
type Segmenter struct {
	mode   core.ChunkMode
	params Params
}

// NewSegmenter creates a Segmenter for mode, starting from DefaultParams(mode).
func NewSegmenter(mode core.ChunkMode, opts ...Option) (*Segmenter, error) {
	if err := core.ValidateChunkMode(mode); err != nil {
		return nil, err
	}
	params := DefaultParams(mode)
	for _, opt := range opts {
		if err := opt(&params); err != nil {
			return nil, err
		}
	}
	if err := params.Validate(mode); err != nil {
		return nil, err
	}
	return &Segmenter{mode: mode, params: params}, nil
}

// Segment splits text with the default parameters for mode.
func Segment(text string, mode core.ChunkMode) ([]core.Chunk, error) {
	s, err := NewSegmenter(mode)
	if err != nil {
		return nil, err
	}
	return s.Segment(text), nil
}

// Mode returns the segmenter's chunking mode.
func (s *Segmenter) Mode() core.ChunkMode {
	return s.mode
}

// Params returns the segmenter's parameters.
func (s *Segmenter) Params() Params {
	return s.params
}

// span covers lines[first-overlap .. last]; lines[first .. last] are the
// chunk's own lines.
type span struct {
	first, last, overlap int
}

// Segment splits text into chunks. Embeddings and IDs are left empty.
//
// Blank lines are dropped but feed boundary detection. Every chunk after
// the first is prefixed with up to Overlap trailing lines of the previous
// chunk's own lines, and no chunk exceeds MaxLines. Own spans are
// contiguous and cover every non-empty line exactly once. Empty input
// yields nil.
func (s *Segmenter) Segment(text string) []core.Chunk {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}
	spans := s.split(lines)

	chunks := make([]core.Chunk, len(spans))
	for i, sp := range spans {
		start := sp.first - sp.overlap
		parts := make([]string, 0, sp.last-start+1)
		for j := start; j <= sp.last; j++ {
			parts = append(parts, lines[j].text)
		}
		chunks[i] = core.Chunk{
			Text:      strings.Join(parts, "\n"),
			StartLine: start + 1,
			EndLine:   sp.last + 1,
			Overlap:   sp.overlap,
			Mode:      s.mode,
		}
	}
	return chunks
}

// SegmentFile segments text and stamps each chunk with fileID and a
// position-derived chunk ID.
func (s *Segmenter) SegmentFile(fileID core.ID, text string) []core.Chunk {
	chunks := s.Segment(text)
	for i := range chunks {
		chunks[i].Id = core.ChunkIDFor(fileID, i)
		chunks[i].SourceFileId = fileID
	}
	return chunks
}

func (s *Segmenter) split(lines []line) []span {
	var spans []span
	n := len(lines)
	first, overlap := 0, 0

	for first < n {
		if s.oversized(lines[first].text) {
			spans = append(spans, span{first: first, last: first})
			first++
			overlap = 0
			continue
		}

		chars := len(lines[first].text)
		if overlap > 0 {
			ov := s.textLen(lines[first-overlap : first])
			if s.params.MaxChars > 0 && ov+1+chars > s.params.MaxChars {
				overlap = 0
			} else {
				chars += ov + 1
			}
		}

		last := first
		for last+1 < n {
			size := overlap + last - first + 1
			if s.closeAfter(lines, last, size) {
				break
			}
			next := lines[last+1].text
			if s.oversized(next) || (s.params.MaxChars > 0 && chars+1+len(next) > s.params.MaxChars) {
				break
			}
			chars += 1 + len(next)
			last++
		}

		spans = append(spans, span{first: first, last: last, overlap: overlap})
		overlap = min(s.params.Overlap, last-first+1)
		first = last + 1
	}
	return spans
}

// closeAfter decides whether the chunk ending at lines[i] with size lines
// closes before lines[i+1].
func (s *Segmenter) closeAfter(lines []line, i, size int) bool {
	p := s.params
	if size >= p.MaxLines {
		return true
	}
	if size < p.MinLines {
		return false
	}
	switch s.mode {
	case core.ChunkModePinpoint:
		return IsSentenceEnd(lines[i].text)
	default:
		score := boundaryScore(lines, i)
		return score > 0 && score >= s.threshold(size)
	}
}

// threshold falls linearly from 1.5 at MinLines by 1.0 per
// (TargetLines-MinLines) lines, so breaks get easier as the chunk grows.
func (s *Segmenter) threshold(size int) float64 {
	width := max(1, s.params.TargetLines-s.params.MinLines)
	return 1.5 - float64(size-s.params.MinLines)/float64(width)
}

func (s *Segmenter) oversized(text string) bool {
	return s.params.MaxChars > 0 && len(text) > s.params.MaxChars
}

func (s *Segmenter) textLen(lines []line) int {
	total := 0
	for i, l := range lines {
		if i > 0 {
			total++
		}
		total += len(l.text)
	}
	return total
}

// String implements fmt.Stringer for log output.
func (s *Segmenter) String() string {
	return fmt.Sprintf("%s(target=%d min=%d max=%d overlap=%d)",
		s.mode, s.params.TargetLines, s.params.MinLines, s.params.MaxLines, s.params.Overlap)
}
