package media

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const uploadTimeout = 60 * time.Second

// Uploader pushes the composed image to the hosting/CDN endpoint and
// returns its public URL.
type Uploader struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewUploader(baseURL, apiKey string) *Uploader {
	return &Uploader{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: uploadTimeout},
	}
}

type uploadResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Upload sends the encoded image (imgbb-style base64 form post) and
// returns the hosted URL.
func (u *Uploader) Upload(ctx context.Context, encoded []byte) (string, error) {
	if len(encoded) == 0 {
		return "", fmt.Errorf("empty image payload")
	}
	form := url.Values{}
	form.Set("key", u.apiKey)
	form.Set("image", base64.StdEncoding.EncodeToString(encoded))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload returned http %d", resp.StatusCode)
	}

	var payload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if !payload.Success || payload.Data.URL == "" {
		return "", fmt.Errorf("upload rejected by host")
	}
	return payload.Data.URL, nil
}
