package gateway

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
)

// Gateway is the boundary to the external generative model
type Gateway interface {
	// CompareImages appraises a practice work against its master reference
	CompareImages(ctx context.Context, master, user *intake.Image) (*models.AppraisalResult, error)
	// SuggestStickerCopy returns free-form sticker design advice for a result
	SuggestStickerCopy(ctx context.Context, result *models.AppraisalResult) (string, error)
}

// GatewayError wraps a failure talking to the provider: network, quota,
// rejected request or an unreadable response envelope.
type GatewayError struct {
	Provider string
	Op       string
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// ParseError means the provider answered but the content did not match the
// appraisal schema.
type ParseError struct {
	Fields []string
	Err    error
}

func (e *ParseError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("appraisal response invalid: %v (fields: %v)", e.Err, e.Fields)
	}
	return fmt.Sprintf("appraisal response invalid: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Config selects and tunes a provider
type Config struct {
	Provider     string
	Model        string
	StickerModel string
	Temperature  float64
}

// ConfigFromEnv reads provider settings from the environment
func ConfigFromEnv() Config {
	cfg := Config{
		Provider:    os.Getenv("APPRAISAL_PROVIDER"),
		Temperature: 0.2,
	}
	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
	if t := os.Getenv("APPRAISAL_TEMPERATURE"); t != "" {
		if v, err := strconv.ParseFloat(t, 64); err == nil {
			cfg.Temperature = v
		}
	}
	cfg.Model = getDefaultModel(cfg.Provider)
	cfg.StickerModel = getDefaultStickerModel(cfg.Provider, cfg.Model)
	return cfg
}

func getDefaultModel(provider string) string {
	switch provider {
	case "gemini":
		model := os.Getenv("GEMINI_MODEL")
		if model == "" {
			return "gemini-3-pro-preview"
		}
		return model
	case "openai":
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			return "gpt-4o"
		}
		return model
	case "ollama":
		model := os.Getenv("OLLAMA_MODEL")
		if model == "" {
			return "mistral-small3.2:24b"
		}
		return model
	default:
		return ""
	}
}

func getDefaultStickerModel(provider, fallback string) string {
	if provider == "gemini" {
		model := os.Getenv("GEMINI_STICKER_MODEL")
		if model == "" {
			return "gemini-3-flash-preview"
		}
		return model
	}
	return fallback
}

// New returns the provider named in cfg
func New(cfg Config) (Gateway, error) {
	if cfg.Model == "" {
		cfg.Model = getDefaultModel(cfg.Provider)
	}
	if cfg.StickerModel == "" {
		cfg.StickerModel = getDefaultStickerModel(cfg.Provider, cfg.Model)
	}

	switch cfg.Provider {
	case "gemini":
		return NewGemini(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	case "ollama":
		return NewOllama(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
