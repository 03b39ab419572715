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

// OpenAI is a gateway backed by the OpenAI chat completions API
type OpenAI struct {
	BaseURL     string
	HTTPClient  *http.Client
	model       string
	temperature float64
}

// NewOpenAI returns a new OpenAI gateway
func NewOpenAI(cfg Config) *OpenAI {
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAI{
		BaseURL:     baseURL,
		HTTPClient:  &http.Client{},
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// CompareImages sends both images as data URLs and requests a strict JSON schema response
func (o *OpenAI) CompareImages(ctx context.Context, master, user *intake.Image) (*models.AppraisalResult, error) {
	requestBody := map[string]any{
		"model": o.model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": buildAppraisalPrompt()},
					{"type": "image_url", "image_url": map[string]string{"url": master.DataURL()}},
					{"type": "image_url", "image_url": map[string]string{"url": user.DataURL()}},
				},
			},
		},
		"temperature": o.temperature,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "appraisal",
				"strict": true,
				"schema": AppraisalSchema.JSONSchema(),
			},
		},
	}

	content, err := o.complete(ctx, "compare", requestBody)
	if err != nil {
		return nil, err
	}

	result, err := ParseAppraisal(content)
	if err != nil {
		return nil, err
	}

	slog.Info("Appraisal generated", "provider", "openai", "model", o.model, "appraisal_id", result.Metadata.AppraisalID)
	return result, nil
}

// SuggestStickerCopy asks for free-form sticker advice
func (o *OpenAI) SuggestStickerCopy(ctx context.Context, result *models.AppraisalResult) (string, error) {
	requestBody := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": buildStickerPrompt(result),
			},
		},
		"temperature": o.temperature,
	}
	return o.complete(ctx, "suggest stickers", requestBody)
}

func (o *OpenAI) complete(ctx context.Context, op string, requestBody map[string]any) (string, error) {
	fail := func(err error) (string, error) {
		return "", &GatewayError{Provider: "openai", Op: op, Err: err}
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fail(fmt.Errorf("OPENAI_API_KEY environment variable not set"))
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return fail(fmt.Errorf("failed to marshal request body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return fail(fmt.Errorf("failed to create new request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fail(fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body)))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fail(fmt.Errorf("failed to decode response body: %w", err))
	}

	if len(response.Choices) == 0 {
		return fail(fmt.Errorf("no choices returned from OpenAI"))
	}

	return response.Choices[0].Message.Content, nil
}
