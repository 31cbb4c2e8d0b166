// Package media handles image acquisition and delivery around the
// compositor: loading article photos, generating fallback illustrations
// and uploading the finished post image.
package media

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const fetchTimeout = 30 * time.Second

// Fetcher downloads and decodes a remote image.
type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: fetchTimeout}}
}

// Load fetches url and decodes it into an image. Any transport, status or
// decode problem is an error; callers fall back to generation.
func (f *Fetcher) Load(ctx context.Context, url string) (image.Image, error) {
	if url == "" {
		return nil, fmt.Errorf("no image url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image fetch returned http %d", resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
