package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"time"
)

const generateTimeout = 120 * time.Second

// Generator synthesizes an illustration from a text prompt via an
// images-API-style endpoint. Used only when the article's own image cannot
// be loaded.
type Generator struct {
	baseURL string
	apiKey  string
	model   string
	size    string
	client  *http.Client
}

func NewGenerator(baseURL, apiKey, model, size string) *Generator {
	return &Generator{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		size:    size,
		client:  &http.Client{Timeout: generateTimeout},
	}
}

type generateRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type generateResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Generate requests one image for the prompt and decodes it.
func (g *Generator) Generate(ctx context.Context, prompt string) (image.Image, error) {
	if prompt == "" {
		return nil, fmt.Errorf("empty image prompt")
	}
	body, err := json.Marshal(generateRequest{
		Model:          g.model,
		Prompt:         prompt,
		N:              1,
		Size:           g.size,
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image generation returned http %d", resp.StatusCode)
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}
	if len(payload.Data) == 0 || payload.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("image generation returned no data")
	}

	raw, err := base64.StdEncoding.DecodeString(payload.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode generated image: %w", err)
	}
	return img, nil
}
