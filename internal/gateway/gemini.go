package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
	"google.golang.org/api/option"
)

// Gemini is a gateway backed by Google Gemini
type Gemini struct {
	model        string
	stickerModel string
	temperature  float32
}

// NewGemini returns a new Gemini gateway
func NewGemini(cfg Config) *Gemini {
	return &Gemini{
		model:        cfg.Model,
		stickerModel: cfg.StickerModel,
		temperature:  float32(cfg.Temperature),
	}
}

// CompareImages sends both images with the appraisal prompt and a strict response schema
func (g *Gemini) CompareImages(ctx context.Context, master, user *intake.Image) (*models.AppraisalResult, error) {
	text, err := g.generate(ctx, "compare", g.model, func(m *genai.GenerativeModel) {
		m.ResponseMIMEType = "application/json"
		m.ResponseSchema = AppraisalSchema.GenAI()
	},
		genai.Text(buildAppraisalPrompt()),
		genai.Blob{MIMEType: master.MIMEType, Data: master.Data},
		genai.Blob{MIMEType: user.MIMEType, Data: user.Data},
	)
	if err != nil {
		return nil, err
	}

	result, err := ParseAppraisal(text)
	if err != nil {
		return nil, err
	}

	slog.Info("Appraisal generated", "provider", "gemini", "model", g.model, "appraisal_id", result.Metadata.AppraisalID)
	return result, nil
}

// SuggestStickerCopy asks for free-form sticker advice
func (g *Gemini) SuggestStickerCopy(ctx context.Context, result *models.AppraisalResult) (string, error) {
	return g.generate(ctx, "suggest stickers", g.stickerModel, nil, genai.Text(buildStickerPrompt(result)))
}

func (g *Gemini) generate(ctx context.Context, op, modelName string, configure func(*genai.GenerativeModel), parts ...genai.Part) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", &GatewayError{Provider: "gemini", Op: op, Err: fmt.Errorf("GEMINI_API_KEY environment variable not set")}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", &GatewayError{Provider: "gemini", Op: op, Err: fmt.Errorf("failed to create new gemini client: %w", err)}
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.SetTemperature(g.temperature)
	if configure != nil {
		configure(model)
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", &GatewayError{Provider: "gemini", Op: op, Err: fmt.Errorf("failed to generate content: %w", err)}
	}

	text, err := responseText(resp)
	if err != nil {
		return "", &GatewayError{Provider: "gemini", Op: op, Err: err}
	}
	return text, nil
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("empty content returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("unexpected response format from Gemini")
	}
	return sb.String(), nil
}
