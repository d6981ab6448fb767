package chunking

import (
	"regexp"
	"strings"
)

// Boundary weights summed at each gap between two non-empty lines.
const (
	paragraphWeight = 1.0
	headingWeight   = 2.0
	sectionWeight   = 1.5
)

var (
	headingRe       = regexp.MustCompile(`^#{1,6}(\s|$)`)
	sectionMarkerRe = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,}|={3,})$|^<!--\s*section\s*-->$|^\\(section|chapter)\b`)
	sentenceEndRe   = regexp.MustCompile(`[.!?;:]$`)
	listItemRe      = regexp.MustCompile(`^(\d+[.)]|[-*+])\s`)
)

// Boundary classifies how a chunk ends.
type Boundary string

const (
	BoundaryHeading   Boundary = "heading"
	BoundaryList      Boundary = "list"
	BoundarySentence  Boundary = "sentence"
	BoundaryParagraph Boundary = "paragraph"
	BoundarySection   Boundary = "section"
	BoundaryFragment  Boundary = "fragment"
)

// IsHeading reports whether line is a markdown ATX heading.
func IsHeading(line string) bool {
	return headingRe.MatchString(strings.TrimSpace(line))
}

// IsSectionMarker reports whether line is a horizontal rule, a section
// comment, or a TeX section command.
func IsSectionMarker(line string) bool {
	return sectionMarkerRe.MatchString(strings.TrimSpace(line))
}

// IsSentenceEnd reports whether line ends with sentence punctuation.
func IsSentenceEnd(line string) bool {
	return sentenceEndRe.MatchString(strings.TrimSpace(line))
}

// Classify returns the boundary kind of a single line.
func Classify(line string) Boundary {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return BoundaryParagraph
	case IsSectionMarker(trimmed):
		return BoundarySection
	case IsHeading(trimmed):
		return BoundaryHeading
	case listItemRe.MatchString(trimmed):
		return BoundaryList
	case IsSentenceEnd(trimmed):
		return BoundarySentence
	default:
		return BoundaryFragment
	}
}

// line is one non-empty input line.
type line struct {
	text string
	// blankBefore is set when at least one blank line precedes this one.
	blankBefore bool
	// breakBefore is set when a form feed precedes this line.
	breakBefore bool
}

// splitLines drops blank lines but remembers where they were.
func splitLines(text string) []line {
	raw := strings.Split(text, "\n")
	lines := make([]line, 0, len(raw))
	blank, formFeed := false, false
	for _, r := range raw {
		r = strings.TrimRight(r, "\r")
		if strings.TrimSpace(r) == "" {
			blank = true
			if strings.ContainsRune(r, '\f') {
				formFeed = true
			}
			continue
		}
		if strings.HasPrefix(r, "\f") {
			formFeed = true
			r = strings.TrimLeft(r, "\f")
		}
		lines = append(lines, line{text: r, blankBefore: blank, breakBefore: formFeed})
		blank, formFeed = false, false
	}
	return lines
}

// boundaryScore scores the gap between lines[i] and lines[i+1].
func boundaryScore(lines []line, i int) float64 {
	if i+1 >= len(lines) {
		return 0
	}
	cur, next := lines[i], lines[i+1]
	score := 0.0
	if next.blankBefore {
		score += paragraphWeight
	}
	if IsHeading(next.text) {
		score += headingWeight
	}
	if next.breakBefore || IsSectionMarker(cur.text) || IsSectionMarker(next.text) {
		score += sectionWeight
	}
	return score
}
