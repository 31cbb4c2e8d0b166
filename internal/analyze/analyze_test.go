package analyze

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"newsposter/internal/feed"
)

func sampleArticles() []feed.Article {
	return []feed.Article{
		{
			Title:       "Dhaka floods displace thousands",
			Link:        "https://news.example/a1",
			SourceID:    "dailysun",
			PubDate:     time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC),
			Description: "Heavy monsoon rain flooded low-lying areas of the capital.",
		},
		{
			Title: "Local team wins league",
			Link:  "https://news.example/a2",
		},
	}
}

func TestBuildUserPromptNumbersCandidates(t *testing.T) {
	prompt := buildUserPrompt(sampleArticles())

	for _, want := range []string{
		"[0] Dhaka floods displace thousands",
		"[1] Local team wins league",
		"link: https://news.example/a1",
		"source: dailysun",
		"published: 2026-08-27 09:00",
		"summary: Heavy monsoon rain",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestArticleSummaryTruncates(t *testing.T) {
	a := feed.Article{Description: strings.Repeat("word ", 300)}
	s := articleSummary(a)
	if len(s) > summaryMaxChars+3 {
		t.Fatalf("summary too long: %d", len(s))
	}
	if !strings.HasSuffix(s, "...") {
		t.Fatalf("truncated summary should end with ellipsis: %q", s[len(s)-10:])
	}
}

func TestSelectionSchemaIsValidJSON(t *testing.T) {
	var v map[string]any
	if err := json.Unmarshal([]byte(selectionSchema), &v); err != nil {
		t.Fatalf("schema not valid JSON: %v", err)
	}
	if v["name"] != "article_selection" {
		t.Fatalf("unexpected schema name: %v", v["name"])
	}
}

func TestParseSelectionValid(t *testing.T) {
	raw := `{
	  "relevant": true,
	  "selected_index": 0,
	  "headline": "Dhaka floods displace thousands",
	  "highlights": ["floods displace"],
	  "caption": "Monsoon rain floods the capital. #dhaka",
	  "source_name": "Daily Sun",
	  "image_prompt": "aerial photo of a flooded city street"
	}`
	sel, err := parseSelection(raw, sampleArticles())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sel == nil {
		t.Fatalf("expected a selection")
	}
	if sel.Article.Link != "https://news.example/a1" {
		t.Fatalf("selection references wrong article: %+v", sel.Article)
	}
	if sel.Analysis.Headline == "" || len(sel.Analysis.Highlights) != 1 {
		t.Fatalf("analysis incomplete: %+v", sel.Analysis)
	}
}

func TestParseSelectionNotRelevant(t *testing.T) {
	raw := `{"relevant": false, "selected_index": 0, "headline": "", "highlights": [], "caption": "", "source_name": "", "image_prompt": ""}`
	sel, err := parseSelection(raw, sampleArticles())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sel != nil {
		t.Fatalf("expected nil selection when not relevant")
	}
}

func TestParseSelectionIndexOutOfRange(t *testing.T) {
	raw := `{"relevant": true, "selected_index": 5, "headline": "h", "highlights": [], "caption": "", "source_name": "", "image_prompt": ""}`
	if _, err := parseSelection(raw, sampleArticles()); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestParseSelectionRejectsGarbage(t *testing.T) {
	if _, err := parseSelection("not json", sampleArticles()); err == nil {
		t.Fatalf("expected parse error")
	}
	raw := `{"relevant": true, "selected_index": 0, "headline": "  ", "highlights": [], "caption": "", "source_name": "", "image_prompt": ""}`
	if _, err := parseSelection(raw, sampleArticles()); err == nil {
		t.Fatalf("expected missing headline error")
	}
}
