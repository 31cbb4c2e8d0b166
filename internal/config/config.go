package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort          = 8080
	defaultDelaySeconds  = 5
	defaultBrandText     = "@newsposter"
	defaultLogoPath      = "assets/logo.png"
	defaultOverlayPath   = "assets/overlay.png"
	defaultFeedBaseURL   = "https://newsdata.io/api/1/latest"
	defaultUploadBaseURL = "https://api.imgbb.com/1/upload"
	defaultImageGenURL   = "https://api.openai.com/v1/images/generations"
	defaultImageGenModel = "dall-e-3"
	defaultImageGenSize  = "1024x1024"
	defaultModel         = "claude-sonnet-4-20250514"
	defaultMaxTokens     = 1500
)

// Category configures one news topic bucket. Exactly one category may be
// the aggregate one, which merges all the others.
type Category struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Aggregate bool   `yaml:"aggregate"`
}

// Config describes runtime configuration for the service.
type Config struct {
	Port                      int        `yaml:"port"`
	UIPassword                string     `yaml:"ui_password"`
	BrandText                 string     `yaml:"brand_text"`
	LogoPath                  string     `yaml:"logo_path"`
	OverlayPath               string     `yaml:"overlay_path"`
	InterCategoryDelaySeconds int        `yaml:"inter_category_delay_seconds"`
	Categories                []Category `yaml:"categories"`

	Feed struct {
		BaseURL  string `yaml:"base_url"`
		Language string `yaml:"language"`
		Country  string `yaml:"country"`
	} `yaml:"feed"`

	Analysis struct {
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"analysis"`

	ImageGen struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
		Size    string `yaml:"size"`
	} `yaml:"imagegen"`

	Upload struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"upload"`

	Webhook struct {
		URL string `yaml:"url"`
	} `yaml:"webhook"`

	Mirror struct {
		URL string `yaml:"url"`
	} `yaml:"mirror"`

	Telemetry struct {
		OTLPEndpoint string `yaml:"otlp_endpoint"`
	} `yaml:"telemetry"`
}

// Secrets are read from the environment, never from the config file.
type Secrets struct {
	FeedAPIKey      string
	AnthropicAPIKey string
	ImageGenAPIKey  string
	UploadAPIKey    string
	WebhookToken    string
}

// SecretsFromEnv collects API credentials. Main loads .env via godotenv
// before calling this.
func SecretsFromEnv() Secrets {
	return Secrets{
		FeedAPIKey:      os.Getenv("FEED_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		ImageGenAPIKey:  os.Getenv("IMAGEGEN_API_KEY"),
		UploadAPIKey:    os.Getenv("UPLOAD_API_KEY"),
		WebhookToken:    os.Getenv("WEBHOOK_TOKEN"),
	}
}

// Default returns a runnable configuration with the standard category set.
func Default() Config {
	var cfg Config
	cfg.Port = defaultPort
	cfg.BrandText = defaultBrandText
	cfg.LogoPath = defaultLogoPath
	cfg.OverlayPath = defaultOverlayPath
	cfg.InterCategoryDelaySeconds = defaultDelaySeconds
	cfg.Categories = []Category{
		{ID: "trending", Name: "Trending", Aggregate: true},
		{ID: "national", Name: "National"},
		{ID: "sports", Name: "Sports"},
		{ID: "business", Name: "Business"},
		{ID: "technology", Name: "Technology"},
		{ID: "entertainment", Name: "Entertainment"},
	}
	cfg.Feed.BaseURL = defaultFeedBaseURL
	cfg.Analysis.Model = defaultModel
	cfg.Analysis.MaxTokens = defaultMaxTokens
	cfg.Analysis.Temperature = 0.2
	cfg.ImageGen.BaseURL = defaultImageGenURL
	cfg.ImageGen.Model = defaultImageGenModel
	cfg.ImageGen.Size = defaultImageGenSize
	cfg.Upload.BaseURL = defaultUploadBaseURL
	return cfg
}

// Load reads YAML config from the provided path. A missing or empty file
// yields the defaults with no error; explicit invalid values are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, errors.New("empty config path")
	}
	fileData, err := os.ReadFile(path) //nolint:gosec // config path is controlled by deployment
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(fileData) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(fileData, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.InterCategoryDelaySeconds < 0 {
		return cfg, fmt.Errorf("invalid inter_category_delay_seconds: %d (must be >= 0)", cfg.InterCategoryDelaySeconds)
	}
	if err := validateCategories(cfg.Categories); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateCategories(categories []Category) error {
	if len(categories) == 0 {
		return errors.New("at least one category required")
	}
	seen := make(map[string]struct{}, len(categories))
	aggregates := 0
	for _, c := range categories {
		if c.ID == "" {
			return errors.New("category with empty id")
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("duplicate category id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
		if c.Aggregate {
			aggregates++
		}
	}
	if aggregates > 1 {
		return fmt.Errorf("at most one aggregate category allowed, got %d", aggregates)
	}
	return nil
}
