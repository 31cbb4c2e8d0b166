// Package webhook dispatches finished posts to the downstream workflow.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	dispatchTimeout = 30 * time.Second

	// StatusReadyToPost is the fixed status tag carried by every payload.
	StatusReadyToPost = "ready_to_post"
)

// Payload is the fixed-shape body the workflow receiver expects.
type Payload struct {
	Headline  string `json:"headline"`
	ImageURL  string `json:"image_url"`
	Caption   string `json:"caption"`
	SourceURL string `json:"source_url"`
	Status    string `json:"status"`
}

// Notifier posts payloads to the configured workflow endpoint.
type Notifier struct {
	url    string
	token  string
	client *http.Client
}

func NewNotifier(url, token string) *Notifier {
	return &Notifier{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: dispatchTimeout},
	}
}

// Dispatch sends the payload. Non-success responses are errors; an
// authorization rejection gets its own message so it is recognizable in
// the task error and status log.
func (n *Notifier) Dispatch(ctx context.Context, p Payload) error {
	if p.Status == "" {
		p.Status = StatusReadyToPost
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("webhook authorization rejected (http %d)", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("webhook returned http %d", resp.StatusCode)
	}
	return nil
}
