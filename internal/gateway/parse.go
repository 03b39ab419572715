package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
)

var errEmptyResponse = errors.New("empty response")

// trimCodeFence strips a surrounding markdown code block, which some providers
// add even when asked for raw JSON.
func trimCodeFence(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// ParseAppraisal decodes a provider response into an AppraisalResult, rejecting
// anything that does not carry every field of AppraisalSchema.
func ParseAppraisal(response string) (*models.AppraisalResult, error) {
	body := trimCodeFence(response)
	if body == "" {
		return nil, &ParseError{Err: errEmptyResponse}
	}

	var raw any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("failed to decode JSON: %w", err)}
	}

	if missing := AppraisalSchema.Missing(raw); len(missing) > 0 {
		return nil, &ParseError{Fields: missing, Err: errors.New("required fields missing or mistyped")}
	}

	var result models.AppraisalResult
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("failed to decode appraisal: %w", err)}
	}

	if err := result.Validate(); err != nil {
		var mf *models.MissingFieldError
		if errors.As(err, &mf) {
			return nil, &ParseError{Fields: mf.Fields, Err: errors.New("required fields empty")}
		}
		return nil, &ParseError{Err: err}
	}

	return &result, nil
}
