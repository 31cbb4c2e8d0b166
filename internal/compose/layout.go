// Package compose renders the branded 1080x1080 post image: dynamic
// headline layout with highlighted phrases over a cover-fitted photo.
package compose

import "strings"

const (
	// Line height is a fixed multiple of the font size.
	lineHeightFactor = 1.2
	// Highlight rectangles sit in the lower part of the line band.
	highlightBandFraction = 0.45
)

// Measurer reports the rendered width of a string for the current font.
// The drawing context implements it; tests use fixed-width fakes.
type Measurer interface {
	MeasureString(s string) float64
}

// LineHeight returns the vertical advance for the given font size.
func LineHeight(fontSize float64) float64 {
	return fontSize * lineHeightFactor
}

// WrapLines breaks text into lines whose measured width stays within
// maxWidth, breaking only at word boundaries. A single word wider than the
// budget gets its own overflowing line. The trailing line is always
// emitted, so empty input yields one empty line.
func WrapLines(m Measurer, text string, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	lines := make([]string, 0, 4)
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if m.MeasureString(candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// HighlightSpan marks a phrase occurrence inside a wrapped line. X and
// Width are pixel offsets within the line's own coordinate space.
type HighlightSpan struct {
	Line  int
	X     float64
	Width float64
}

// FindHighlights locates every occurrence of each phrase in each line.
// Matching is case-insensitive exact-substring; the scan moves left to
// right advancing one rune past each match start, so overlapping phrases
// may both produce spans. A phrase that appears nowhere simply yields no
// span. The scan walks rune windows of the original line, so offsets stay
// valid for headlines whose lowercase form has a different byte length.
func FindHighlights(m Measurer, lines []string, phrases []string) []HighlightSpan {
	var spans []HighlightSpan
	for lineIdx, line := range lines {
		runes := []rune(line)
		for _, phrase := range phrases {
			needle := strings.TrimSpace(phrase)
			needleLen := len([]rune(needle))
			if needleLen == 0 {
				continue
			}
			for from := 0; from+needleLen <= len(runes); from++ {
				window := string(runes[from : from+needleLen])
				if !strings.EqualFold(window, needle) {
					continue
				}
				spans = append(spans, HighlightSpan{
					Line:  lineIdx,
					X:     m.MeasureString(string(runes[:from])),
					Width: m.MeasureString(window),
				})
			}
		}
	}
	return spans
}
