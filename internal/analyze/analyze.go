// Package analyze asks the LLM to pick the most postable article from a
// candidate list and to produce the headline, highlights, caption and
// image prompt used downstream.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"newsposter/internal/feed"
)

// Analysis is the editorial output for the chosen article.
type Analysis struct {
	Headline    string   `json:"headline"`
	Highlights  []string `json:"highlights"`
	Caption     string   `json:"caption"`
	SourceName  string   `json:"source_name"`
	ImagePrompt string   `json:"image_prompt"`
}

// Selection pairs the analysis with the article it refers to.
type Selection struct {
	Analysis Analysis
	Article  feed.Article
}

// Settings mirror the per-agent model knobs in the config file.
type Settings struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Selector drives the selection/analysis call with structured output.
type Selector struct {
	apiKey   string
	settings Settings
}

func NewSelector(apiKey string, settings Settings) *Selector {
	return &Selector{apiKey: apiKey, settings: settings}
}

// Select returns (nil, nil) when the model deems no candidate relevant.
// The returned selection always references one element of the input list.
func (s *Selector) Select(ctx context.Context, articles []feed.Article) (*Selection, error) {
	if len(articles) == 0 {
		return nil, fmt.Errorf("no articles to analyze")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("selection canceled: %w", err)
	}

	settings := types.RequestSettings{
		Model:       s.settings.Model,
		MaxTokens:   s.settings.MaxTokens,
		Temperature: s.settings.Temperature,
		TopK:        0,
		TopP:        0.0,
	}
	response, err := anthropic.PromptWithSettings(selectionSystemPrompt, buildUserPrompt(articles), selectionSchema, s.apiKey, settings)
	if err != nil {
		return nil, fmt.Errorf("selection agent failed: %w", err)
	}
	if len(response.Content) == 0 {
		return nil, fmt.Errorf("no content in selection response")
	}

	return parseSelection(response.Content[0].Text, articles)
}

type selectionPayload struct {
	Relevant      bool     `json:"relevant"`
	SelectedIndex int      `json:"selected_index"`
	Headline      string   `json:"headline"`
	Highlights    []string `json:"highlights"`
	Caption       string   `json:"caption"`
	SourceName    string   `json:"source_name"`
	ImagePrompt   string   `json:"image_prompt"`
}

// parseSelection decodes the structured response and validates that the
// chosen index points into the candidate list.
func parseSelection(raw string, articles []feed.Article) (*Selection, error) {
	var payload selectionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse selection response: %w", err)
	}
	if !payload.Relevant {
		return nil, nil
	}
	if payload.SelectedIndex < 0 || payload.SelectedIndex >= len(articles) {
		return nil, fmt.Errorf("selected index %d out of range (%d candidates)", payload.SelectedIndex, len(articles))
	}
	if strings.TrimSpace(payload.Headline) == "" {
		return nil, fmt.Errorf("selection response missing headline")
	}
	return &Selection{
		Analysis: Analysis{
			Headline:    payload.Headline,
			Highlights:  payload.Highlights,
			Caption:     payload.Caption,
			SourceName:  payload.SourceName,
			ImagePrompt: payload.ImagePrompt,
		},
		Article: articles[payload.SelectedIndex],
	}, nil
}

// buildUserPrompt renders the candidates as a numbered digest the schema's
// selected_index refers back to.
func buildUserPrompt(articles []feed.Article) string {
	var b strings.Builder
	b.WriteString("Candidate articles:\n\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "[%d] %s\n", i, a.Title)
		fmt.Fprintf(&b, "    link: %s\n", a.Link)
		if a.SourceID != "" {
			fmt.Fprintf(&b, "    source: %s\n", a.SourceID)
		}
		if !a.PubDate.IsZero() {
			fmt.Fprintf(&b, "    published: %s\n", a.PubDate.Format("2006-01-02 15:04"))
		}
		if summary := articleSummary(a); summary != "" {
			fmt.Fprintf(&b, "    summary: %s\n", summary)
		}
		b.WriteString("\n")
	}
	return b.String()
}

const summaryMaxChars = 600

func articleSummary(a feed.Article) string {
	text := a.Description
	if text == "" {
		text = a.Content
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > summaryMaxChars {
		text = text[:summaryMaxChars] + "..."
	}
	return text
}
