package statuslog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const mirrorTimeout = 10 * time.Second

// HTTPMirror posts entries as JSON to a monitoring endpoint.
type HTTPMirror struct {
	url    string
	client *http.Client
}

func NewHTTPMirror(url string) *HTTPMirror {
	return &HTTPMirror{
		url:    url,
		client: &http.Client{Timeout: mirrorTimeout},
	}
}

func (m *HTTPMirror) Send(e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	resp, err := m.client.Post(m.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post entry: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mirror endpoint returned http %d", resp.StatusCode)
	}
	return nil
}
