package compose

import (
	"strings"
	"testing"
)

// fixedMeasurer gives every character a width of 10 units.
type fixedMeasurer struct{}

func (fixedMeasurer) MeasureString(s string) float64 {
	return float64(len(s)) * 10
}

func TestWrapLinesRespectsBudget(t *testing.T) {
	m := fixedMeasurer{}
	text := "Dhaka floods displace thousands across the capital region"
	budget := 200.0 // 20 characters

	lines := WrapLines(m, text, budget)
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines, got %v", lines)
	}
	for _, line := range lines {
		if m.MeasureString(line) > budget {
			t.Fatalf("line %q exceeds budget", line)
		}
		if strings.HasPrefix(line, " ") || strings.HasSuffix(line, " ") {
			t.Fatalf("line %q has stray spaces", line)
		}
	}
	joined := strings.Join(lines, " ")
	if joined != text {
		t.Fatalf("wrap lost words: %q", joined)
	}
}

func TestWrapLinesSingleOverflowingWord(t *testing.T) {
	m := fixedMeasurer{}
	lines := WrapLines(m, "extraordinarily big word", 100)
	if lines[0] != "extraordinarily" {
		t.Fatalf("unbreakable word must overflow alone, got %v", lines)
	}
	for _, line := range lines[1:] {
		if m.MeasureString(line) > 100 {
			t.Fatalf("non-first line %q exceeds budget", line)
		}
	}
}

func TestWrapLinesEmptyInput(t *testing.T) {
	lines := WrapLines(fixedMeasurer{}, "   ", 100)
	if len(lines) != 1 || lines[0] != "" {
		t.Fatalf("expected single empty trailing line, got %v", lines)
	}
}

func TestLineHeightFactor(t *testing.T) {
	if got := LineHeight(50); got != 60 {
		t.Fatalf("LineHeight(50) = %v, want 60", got)
	}
}

func TestFindHighlightsScenario(t *testing.T) {
	m := fixedMeasurer{}
	lines := []string{"Dhaka floods displace thousands"}
	spans := FindHighlights(m, lines, []string{"floods displace"})
	if len(spans) != 1 {
		t.Fatalf("expected exactly one span, got %d", len(spans))
	}
	s := spans[0]
	if s.Line != 0 {
		t.Fatalf("span on wrong line: %d", s.Line)
	}
	if s.X != m.MeasureString("Dhaka ") {
		t.Fatalf("span X = %v, want prefix width %v", s.X, m.MeasureString("Dhaka "))
	}
	if s.Width != m.MeasureString("floods displace") {
		t.Fatalf("span width = %v", s.Width)
	}
}

func TestFindHighlightsCaseInsensitive(t *testing.T) {
	spans := FindHighlights(fixedMeasurer{}, []string{"BREAKING news today"}, []string{"breaking NEWS"})
	if len(spans) != 1 {
		t.Fatalf("case-insensitive match failed: %d spans", len(spans))
	}
}

func TestFindHighlightsMultipleOccurrences(t *testing.T) {
	spans := FindHighlights(fixedMeasurer{}, []string{"rain rain go away"}, []string{"rain"})
	if len(spans) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(spans))
	}
	if spans[0].X >= spans[1].X {
		t.Fatalf("spans not left to right: %+v", spans)
	}
}

func TestFindHighlightsPhraseAbsent(t *testing.T) {
	spans := FindHighlights(fixedMeasurer{}, []string{"quiet day"}, []string{"earthquake"})
	if len(spans) != 0 {
		t.Fatalf("absent phrase must yield no spans, got %+v", spans)
	}
}

func TestFindHighlightsMultiByteRunes(t *testing.T) {
	m := fixedMeasurer{}
	// 'Ⱥ' lowercases to 'ⱥ', which is one byte longer in UTF-8; offsets
	// must still track the original string.
	spans := FindHighlights(m, []string{"Ⱥab"}, []string{"ab"})
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].X != m.MeasureString("Ⱥ") {
		t.Fatalf("span X = %v, want prefix width %v", spans[0].X, m.MeasureString("Ⱥ"))
	}
	if spans[0].Width != m.MeasureString("ab") {
		t.Fatalf("span width = %v, want %v", spans[0].Width, m.MeasureString("ab"))
	}
}

func TestFindHighlightsMultiBytePrefixOffset(t *testing.T) {
	m := fixedMeasurer{}
	spans := FindHighlights(m, []string{"ঢাকায় বন্যা severe flooding"}, []string{"severe"})
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].X != m.MeasureString("ঢাকায় বন্যা ") {
		t.Fatalf("span X = %v, want prefix width %v", spans[0].X, m.MeasureString("ঢাকায় বন্যা "))
	}
}

func TestFindHighlightsFoldedMatch(t *testing.T) {
	spans := FindHighlights(fixedMeasurer{}, []string{"ⱥ storm"}, []string{"Ⱥ"})
	if len(spans) != 1 {
		t.Fatalf("case-folded rune match failed: %d spans", len(spans))
	}
}

func TestFindHighlightsOverlappingNotDeduplicated(t *testing.T) {
	// "aaa" contains "aa" at offsets 0 and 1; both are kept.
	spans := FindHighlights(fixedMeasurer{}, []string{"aaa"}, []string{"aa"})
	if len(spans) != 2 {
		t.Fatalf("overlapping matches should both draw, got %d", len(spans))
	}
}
