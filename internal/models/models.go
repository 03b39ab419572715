package models

import (
	"fmt"
	"strings"
)

// AppraisalMetadata identifies the appraised work
type AppraisalMetadata struct {
	WorkName    string `json:"workName" yaml:"workname"`
	Style       string `json:"style" yaml:"style"`
	Date        string `json:"date" yaml:"date"`
	AppraisalID string `json:"appraisalId" yaml:"appraisalid"`
}

// Scores holds the quantitative metrics of an appraisal.
// Everything is a 0-100 percentage except GravityOffset, which is in pixels.
type Scores struct {
	Structure     float64 `json:"structure" yaml:"structure"`
	Stroke        float64 `json:"stroke" yaml:"stroke"`
	Gravity       float64 `json:"gravity" yaml:"gravity"`
	WhiteSpace    float64 `json:"whiteSpace" yaml:"whitespace"`
	Appearance    float64 `json:"appearance" yaml:"appearance"`
	Spirit        float64 `json:"spirit" yaml:"spirit"`
	SSIM          float64 `json:"ssim" yaml:"ssim"`
	PixelOverlap  float64 `json:"pixelOverlap" yaml:"pixeloverlap"`
	GravityOffset float64 `json:"gravityOffset" yaml:"gravityoffset"`
}

// VisualMarkers are the green (faithful) and red (deviating) region narratives
type VisualMarkers struct {
	GreenAreas string `json:"greenAreas" yaml:"greenareas"`
	RedAreas   string `json:"redAreas" yaml:"redareas"`
}

// Feedback is the narrative critique of the practice work
type Feedback struct {
	StructureDiff   string        `json:"structureDiff" yaml:"structurediff"`
	StrokeAdvice    string        `json:"strokeAdvice" yaml:"strokeadvice"`
	SpecificStrokes string        `json:"specificStrokes" yaml:"specificstrokes"`
	InkDistribution string        `json:"inkDistribution" yaml:"inkdistribution"`
	Conclusion      string        `json:"conclusion" yaml:"conclusion"`
	NextSteps       string        `json:"nextSteps" yaml:"nextsteps"`
	VisualMarkers   VisualMarkers `json:"visualMarkers" yaml:"visualmarkers"`
}

// CVAdvice is auxiliary advice on reproducing the metrics locally
type CVAdvice struct {
	Steps       []string `json:"steps" yaml:"steps"`
	CodeSnippet string   `json:"codeSnippet" yaml:"codesnippet"`
}

// AppraisalResult is the structured comparison of one master/practice pair.
// It is treated as immutable once received.
type AppraisalResult struct {
	Metadata       AppraisalMetadata `json:"metadata" yaml:"metadata"`
	Scores         Scores            `json:"scores" yaml:"scores"`
	Feedback       Feedback          `json:"feedback" yaml:"feedback"`
	MarkdownReport string            `json:"markdownReport" yaml:"markdownreport"`
	CVAdvice       CVAdvice          `json:"cvAdvice" yaml:"cvadvice"`
}

// MissingFieldError reports the dotted paths of required fields that were absent
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Validate checks that every text field is populated. Numeric presence can only
// be checked against the raw payload, see gateway.ParseAppraisal.
func (r *AppraisalResult) Validate() error {
	if r == nil {
		return &MissingFieldError{Fields: []string{"result"}}
	}

	var missing []string
	check := func(path, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, path)
		}
	}

	check("metadata.workName", r.Metadata.WorkName)
	check("metadata.style", r.Metadata.Style)
	check("metadata.date", r.Metadata.Date)
	check("metadata.appraisalId", r.Metadata.AppraisalID)
	check("feedback.structureDiff", r.Feedback.StructureDiff)
	check("feedback.strokeAdvice", r.Feedback.StrokeAdvice)
	check("feedback.specificStrokes", r.Feedback.SpecificStrokes)
	check("feedback.inkDistribution", r.Feedback.InkDistribution)
	check("feedback.conclusion", r.Feedback.Conclusion)
	check("feedback.nextSteps", r.Feedback.NextSteps)
	check("feedback.visualMarkers.greenAreas", r.Feedback.VisualMarkers.GreenAreas)
	check("feedback.visualMarkers.redAreas", r.Feedback.VisualMarkers.RedAreas)
	check("markdownReport", r.MarkdownReport)
	if r.CVAdvice.Steps == nil {
		missing = append(missing, "cvAdvice.steps")
	}
	check("cvAdvice.codeSnippet", r.CVAdvice.CodeSnippet)

	if len(missing) > 0 {
		return &MissingFieldError{Fields: missing}
	}
	return nil
}
