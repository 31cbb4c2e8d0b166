// Package feed fetches candidate articles per category from the news
// aggregation endpoint.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

const (
	defaultHTTPTimeout = 20 * time.Second
	pubDateLayout      = "2006-01-02 15:04:05"
)

// Article is one candidate news item as returned by the feed.
type Article struct {
	Title       string
	Link        string
	PubDate     time.Time
	SourceID    string
	ImageURL    string
	Description string
	Content     string
}

// Client queries a newsdata-style JSON endpoint. Descriptions and content
// often arrive as HTML snippets; they are converted to markdown text so the
// analysis prompt sees clean prose.
type Client struct {
	baseURL   string
	apiKey    string
	language  string
	country   string
	client    *http.Client
	converter *md.Converter
}

func NewClient(baseURL, apiKey, language, country string) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		language:  language,
		country:   country,
		client:    &http.Client{Timeout: defaultHTTPTimeout},
		converter: md.NewConverter("", true, nil),
	}
}

type feedResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		PubDate     string `json:"pubDate"`
		SourceID    string `json:"source_id"`
		ImageURL    string `json:"image_url"`
		Description string `json:"description"`
		Content     string `json:"content"`
	} `json:"results"`
}

// Fetch returns the feed's articles for one category. Safe for concurrent
// calls across categories.
func (c *Client) Fetch(ctx context.Context, category string) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(category), nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed for %q: %w", category, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("feed returned http %d for %q", resp.StatusCode, category)
	}

	var payload feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}
	if payload.Status != "" && payload.Status != "success" {
		return nil, fmt.Errorf("feed status %q for %q", payload.Status, category)
	}

	articles := make([]Article, 0, len(payload.Results))
	for _, r := range payload.Results {
		if strings.TrimSpace(r.Link) == "" {
			continue
		}
		articles = append(articles, Article{
			Title:       strings.TrimSpace(r.Title),
			Link:        strings.TrimSpace(r.Link),
			PubDate:     parsePubDate(r.PubDate),
			SourceID:    r.SourceID,
			ImageURL:    r.ImageURL,
			Description: c.plainText(r.Description),
			Content:     c.plainText(r.Content),
		})
	}
	return articles, nil
}

func (c *Client) requestURL(category string) string {
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("category", category)
	if c.language != "" {
		q.Set("language", c.language)
	}
	if c.country != "" {
		q.Set("country", c.country)
	}
	return c.baseURL + "?" + q.Encode()
}

// parsePubDate accepts the feed's space-separated layout and falls back to
// RFC3339. Unparseable or blank dates yield the zero time; callers treat
// undated articles as equal when sorting.
func parsePubDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(pubDateLayout, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Time{}
}

func (c *Client) plainText(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	text, err := c.converter.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(text)
}
