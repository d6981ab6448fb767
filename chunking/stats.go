package chunking

import (
	"strings"

	"github.com/poiesic/filehawk/core"
)

// Stats summarises a segmentation run.
type Stats struct {
	Chunks       int
	Lines        int // distinct non-empty lines covered
	OverlapLines int
	MinLines     int
	MaxLines     int
	AvgLines     float64
	ByBoundary   map[Boundary]int // keyed by the kind of each chunk's last line
}

// Summarize computes Stats for chunks produced by one Segment call.
func Summarize(chunks []core.Chunk) Stats {
	st := Stats{ByBoundary: make(map[Boundary]int)}
	if len(chunks) == 0 {
		return st
	}
	st.Chunks = len(chunks)
	st.MinLines = chunks[0].LineCount()
	total := 0
	for i := range chunks {
		c := &chunks[i]
		n := c.LineCount()
		total += n
		st.OverlapLines += c.Overlap
		st.MinLines = min(st.MinLines, n)
		st.MaxLines = max(st.MaxLines, n)

		last := c.Text
		if idx := strings.LastIndexByte(last, '\n'); idx >= 0 {
			last = last[idx+1:]
		}
		st.ByBoundary[Classify(last)]++
	}
	st.Lines = total - st.OverlapLines
	st.AvgLines = float64(total) / float64(len(chunks))
	return st
}
