package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/inkrhythm/internal/gateway/gatewaytest"
	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
)

var (
	masterImage = &intake.Image{MIMEType: "image/png", Data: []byte("master-bytes")}
	userImage   = &intake.Image{MIMEType: "image/jpeg", Data: []byte("user-bytes")}
)

func TestOpenAICompareImages(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": gatewaytest.SampleJSON}},
			},
		})
	}))
	defer server.Close()

	o := NewOpenAI(Config{Model: "gpt-4o"})
	o.BaseURL = server.URL

	result, err := o.CompareImages(context.Background(), masterImage, userImage)
	if err != nil {
		t.Fatalf("CompareImages returned error: %v", err)
	}
	if result.Metadata.AppraisalID != "INK-20261019-001" {
		t.Errorf("Unexpected appraisal id %s", result.Metadata.AppraisalID)
	}

	format := captured["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Errorf("Expected json_schema response format, got %v", format["type"])
	}

	content := captured["messages"].([]any)[0].(map[string]any)["content"].([]any)
	if len(content) != 3 {
		t.Fatalf("Expected prompt plus two images, got %d parts", len(content))
	}
	masterURL := content[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	if masterURL != masterImage.DataURL() {
		t.Errorf("Master image should be sent first as a data URL")
	}
	userURL := content[2].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(userURL, "data:image/jpeg;base64,") {
		t.Errorf("User image should keep its MIME type, got %.30s", userURL)
	}
}

func TestOpenAIErrors(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantParse bool
	}{
		{
			name: "quota exceeded",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
		},
		{
			name: "incomplete appraisal",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"metadata\":{}}"}}]}`))
			},
			wantParse: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			o := NewOpenAI(Config{Model: "gpt-4o"})
			o.BaseURL = server.URL

			_, err := o.CompareImages(context.Background(), masterImage, userImage)
			var gwErr *GatewayError
			var parseErr *ParseError
			if tt.wantParse {
				if !errors.As(err, &parseErr) {
					t.Errorf("Expected *ParseError, got %v", err)
				}
			} else if !errors.As(err, &gwErr) {
				t.Errorf("Expected *GatewayError, got %v", err)
			}
		})
	}
}

func TestOpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	o := NewOpenAI(Config{Model: "gpt-4o"})
	_, err := o.SuggestStickerCopy(context.Background(), gatewaytest.SampleResult())
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Errorf("Expected *GatewayError, got %v", err)
	}
}

func TestOllamaCompareImages(t *testing.T) {
	var captured struct {
		Model  string         `json:"model"`
		Images []string       `json:"images"`
		Stream bool           `json:"stream"`
		Format map[string]any `json:"format"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": gatewaytest.SampleJSON})
	}))
	defer server.Close()

	o := NewOllama(Config{Model: "llava"})
	o.BaseURL = server.URL

	result, err := o.CompareImages(context.Background(), masterImage, userImage)
	if err != nil {
		t.Fatalf("CompareImages returned error: %v", err)
	}
	if result.Scores.GravityOffset != 3.5 {
		t.Errorf("Expected gravity offset 3.5, got %v", result.Scores.GravityOffset)
	}
	if captured.Model != "llava" || captured.Stream {
		t.Errorf("Unexpected request: model=%s stream=%v", captured.Model, captured.Stream)
	}
	if len(captured.Images) != 2 || captured.Images[0] != masterImage.Base64() || captured.Images[1] != userImage.Base64() {
		t.Errorf("Expected master then user images, got %v", captured.Images)
	}
	if captured.Format["type"] != "object" {
		t.Errorf("Expected JSON schema format, got %v", captured.Format)
	}
}

func TestOllamaSuggestStickerCopy(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
			Format any    `json:"format"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Prompt
		if req.Format != nil {
			t.Errorf("Sticker request should not constrain format")
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "墨寶傳情\n靜觀其墨"})
	}))
	defer server.Close()

	o := NewOllama(Config{Model: "llava"})
	o.BaseURL = server.URL

	text, err := o.SuggestStickerCopy(context.Background(), gatewaytest.SampleResult())
	if err != nil {
		t.Fatalf("SuggestStickerCopy returned error: %v", err)
	}
	if text != "墨寶傳情\n靜觀其墨" {
		t.Errorf("Expected verbatim text, got %q", text)
	}
	if !strings.Contains(prompt, "九成宮醴泉銘 臨本") {
		t.Errorf("Prompt should reference the work name, got %q", prompt)
	}
}

func TestOllamaTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	o := NewOllama(Config{Model: "llava"})
	o.BaseURL = server.URL

	_, err := o.CompareImages(context.Background(), masterImage, userImage)
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("Expected *GatewayError, got %v", err)
	}
	if gwErr.Provider != "ollama" || gwErr.Op != "compare" {
		t.Errorf("Unexpected error context: %+v", gwErr)
	}
}
