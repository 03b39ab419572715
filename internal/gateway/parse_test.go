package gateway

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/inkrhythm/internal/gateway/gatewaytest"
)

func TestParseAppraisal(t *testing.T) {
	want := gatewaytest.SampleResult()

	tests := []struct {
		name  string
		input string
	}{
		{name: "raw JSON", input: gatewaytest.SampleJSON},
		{name: "json code fence", input: "```json\n" + gatewaytest.SampleJSON + "\n```"},
		{name: "bare code fence", input: "```\n" + gatewaytest.SampleJSON + "\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAppraisal(tt.input)
			if err != nil {
				t.Fatalf("ParseAppraisal returned error: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("ParseAppraisal mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// withoutField removes a dotted path from the sample payload
func withoutField(t *testing.T, path string) string {
	t.Helper()
	var raw map[string]any
	if err := json.Unmarshal([]byte(gatewaytest.SampleJSON), &raw); err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(path, ".")
	node := raw
	for _, p := range parts[:len(parts)-1] {
		node = node[p].(map[string]any)
	}
	delete(node, parts[len(parts)-1])
	out, err := json.Marshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

func TestParseAppraisalRejectsIncompleteResults(t *testing.T) {
	paths := []string{
		"metadata",
		"metadata.appraisalId",
		"scores.gravityOffset",
		"scores.ssim",
		"feedback.visualMarkers.redAreas",
		"feedback.nextSteps",
		"markdownReport",
		"cvAdvice.steps",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			_, err := ParseAppraisal(withoutField(t, path))
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Expected *ParseError, got %v", err)
			}
			if !slices.Contains(parseErr.Fields, path) {
				t.Errorf("Expected %s in missing fields, got %v", path, parseErr.Fields)
			}
		})
	}
}

func TestParseAppraisalRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: "   "},
		{name: "not JSON", input: "分析失敗"},
		{name: "array", input: "[]"},
		{name: "wrong score type", input: strings.Replace(gatewaytest.SampleJSON, `"ssim": 78`, `"ssim": "78"`, 1)},
		{name: "blank text", input: strings.Replace(gatewaytest.SampleJSON, `"conclusion": "法度初具，險勁未足。"`, `"conclusion": ""`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAppraisal(tt.input)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("Expected *ParseError, got %v", err)
			}
		})
	}
}

func TestAppraisalSchemaRequiresEverything(t *testing.T) {
	s := AppraisalSchema.GenAI()
	if s.Type != genai.TypeObject {
		t.Fatalf("Expected object schema, got %v", s.Type)
	}

	wantTop := []string{"metadata", "scores", "feedback", "markdownReport", "cvAdvice"}
	if diff := cmp.Diff(wantTop, s.Required); diff != "" {
		t.Errorf("Top-level required mismatch (-want +got):\n%s", diff)
	}

	scores := s.Properties["scores"]
	if len(scores.Required) != 9 {
		t.Errorf("Expected 9 required scores, got %d", len(scores.Required))
	}
	for name, field := range scores.Properties {
		if field.Type != genai.TypeNumber {
			t.Errorf("Score %s should be a number, got %v", name, field.Type)
		}
	}

	markers := s.Properties["feedback"].Properties["visualMarkers"]
	if diff := cmp.Diff([]string{"greenAreas", "redAreas"}, markers.Required); diff != "" {
		t.Errorf("visualMarkers required mismatch (-want +got):\n%s", diff)
	}

	steps := s.Properties["cvAdvice"].Properties["steps"]
	if steps.Type != genai.TypeArray || steps.Items == nil || steps.Items.Type != genai.TypeString {
		t.Errorf("cvAdvice.steps should be an array of strings")
	}
}

func TestJSONSchemaIsStrict(t *testing.T) {
	s := AppraisalSchema.JSONSchema()
	if s["additionalProperties"] != false {
		t.Error("Expected additionalProperties=false at top level")
	}
	meta := s["properties"].(map[string]any)["metadata"].(map[string]any)
	if diff := cmp.Diff([]string{"workName", "style", "date", "appraisalId"}, meta["required"]); diff != "" {
		t.Errorf("metadata required mismatch (-want +got):\n%s", diff)
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("{\"a\":"), genai.Text("1}")}}},
		},
	}
	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("responseText returned error: %v", err)
	}
	if got != `{"a":1}` {
		t.Errorf("Expected joined text, got %q", got)
	}

	if _, err := responseText(&genai.GenerateContentResponse{}); err == nil {
		t.Error("Expected error for no candidates")
	}
	if _, err := responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}); err == nil {
		t.Error("Expected error for empty content")
	}
}

func TestStickerPromptReferencesResult(t *testing.T) {
	result := gatewaytest.SampleResult()
	prompt := buildStickerPrompt(result)

	for _, want := range []string{result.Metadata.WorkName, result.Metadata.Style, result.Feedback.Conclusion} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Sticker prompt missing %q", want)
		}
	}
}

func TestNewSelectsProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantType string
		wantErr  bool
	}{
		{provider: "gemini", wantType: "*gateway.Gemini"},
		{provider: "openai", wantType: "*gateway.OpenAI"},
		{provider: "ollama", wantType: "*gateway.Ollama"},
		{provider: "claude", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			gw, err := New(Config{Provider: tt.provider})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := typeName(gw); got != tt.wantType {
				t.Errorf("Expected %s, got %s", tt.wantType, got)
			}
		})
	}
}

func typeName(gw Gateway) string {
	switch gw.(type) {
	case *Gemini:
		return "*gateway.Gemini"
	case *OpenAI:
		return "*gateway.OpenAI"
	case *Ollama:
		return "*gateway.Ollama"
	default:
		return "unknown"
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("APPRAISAL_PROVIDER", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("GEMINI_STICKER_MODEL", "")
	t.Setenv("APPRAISAL_TEMPERATURE", "0.5")

	cfg := ConfigFromEnv()
	want := Config{
		Provider:     "gemini",
		Model:        "gemini-3-pro-preview",
		StickerModel: "gemini-3-flash-preview",
		Temperature:  0.5,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("ConfigFromEnv mismatch (-want +got):\n%s", diff)
	}

	t.Setenv("APPRAISAL_PROVIDER", "openai")
	t.Setenv("OPENAI_MODEL", "gpt-4.1")
	cfg = ConfigFromEnv()
	if cfg.Model != "gpt-4.1" || cfg.StickerModel != "gpt-4.1" {
		t.Errorf("Expected openai models from env, got %+v", cfg)
	}
}
