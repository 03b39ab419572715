package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
)

// Ollama is a gateway backed by a local Ollama server
type Ollama struct {
	BaseURL     string
	HTTPClient  *http.Client
	model       string
	temperature float64
}

// NewOllama returns a new Ollama gateway
func NewOllama(cfg Config) *Ollama {
	ollamaHost := os.Getenv("OLLAMA_URL")
	if ollamaHost == "" {
		ollamaHost = os.Getenv("OLLAMA_HOST")
	}
	if ollamaHost == "" {
		ollamaHost = "http://localhost:11434"
	}
	return &Ollama{
		BaseURL:     ollamaHost,
		HTTPClient:  &http.Client{},
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// CompareImages sends both images base64 encoded and constrains output with the JSON schema
func (o *Ollama) CompareImages(ctx context.Context, master, user *intake.Image) (*models.AppraisalResult, error) {
	requestBody := map[string]any{
		"model":  o.model,
		"prompt": buildAppraisalPrompt(),
		"images": []string{master.Base64(), user.Base64()},
		"stream": false,
		"format": AppraisalSchema.JSONSchema(),
		"options": map[string]any{
			"temperature": o.temperature,
		},
	}

	text, err := o.generate(ctx, "compare", requestBody)
	if err != nil {
		return nil, err
	}

	result, err := ParseAppraisal(text)
	if err != nil {
		return nil, err
	}

	slog.Info("Appraisal generated", "provider", "ollama", "model", o.model, "appraisal_id", result.Metadata.AppraisalID)
	return result, nil
}

// SuggestStickerCopy asks for free-form sticker advice
func (o *Ollama) SuggestStickerCopy(ctx context.Context, result *models.AppraisalResult) (string, error) {
	requestBody := map[string]any{
		"model":  o.model,
		"prompt": buildStickerPrompt(result),
		"stream": false,
		"options": map[string]any{
			"temperature": o.temperature,
		},
	}
	return o.generate(ctx, "suggest stickers", requestBody)
}

func (o *Ollama) generate(ctx context.Context, op string, requestBody map[string]any) (string, error) {
	fail := func(err error) (string, error) {
		return "", &GatewayError{Provider: "ollama", Op: op, Err: err}
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return fail(fmt.Errorf("failed to marshal request body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return fail(fmt.Errorf("failed to create new request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("failed to call Ollama API: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fail(fmt.Errorf("ollama API returned status %d: %s", resp.StatusCode, string(body)))
	}

	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return fail(fmt.Errorf("failed to decode Ollama response: %w", err))
	}

	return ollamaResp.Response, nil
}
