package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lehigh-university-libraries/inkrhythm/internal/present"
	"gopkg.in/yaml.v3"
)

// Config records how a batch was run
type Config struct {
	Provider    string  `json:"provider" yaml:"provider"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	DatasetPath string  `json:"dataset_path" yaml:"datasetpath"`
	Concurrency int     `json:"concurrency" yaml:"concurrency"`
	Timestamp   string  `json:"timestamp" yaml:"timestamp"`
}

// Summary holds aggregate scores over the successful pairs
type Summary struct {
	Total        int                `json:"total" yaml:"total"`
	Succeeded    int                `json:"succeeded" yaml:"succeeded"`
	Failed       int                `json:"failed" yaml:"failed"`
	AverageSSIM  float64            `json:"average_ssim" yaml:"averagessim"`
	MedianSSIM   float64            `json:"median_ssim" yaml:"medianssim"`
	MinSSIM      float64            `json:"min_ssim" yaml:"minssim"`
	MaxSSIM      float64            `json:"max_ssim" yaml:"maxssim"`
	AxisAverages map[string]float64 `json:"axis_averages" yaml:"axisaverages"`
}

// Results is a complete batch run as persisted to disk
type Results struct {
	Config  Config   `json:"config" yaml:"config"`
	Summary *Summary `json:"summary" yaml:"summary"`
	Results []Result `json:"results" yaml:"results"`
}

// Summarize computes count, SSIM statistics and per-axis averages
func Summarize(results []Result) *Summary {
	summary := &Summary{
		Total:        len(results),
		AxisAverages: make(map[string]float64),
	}

	var scores []float64
	axisScores := make(map[string][]float64)

	for _, result := range results {
		if result.Error != "" || result.Appraisal == nil {
			summary.Failed++
			continue
		}

		summary.Succeeded++
		scores = append(scores, result.Appraisal.Scores.SSIM)
		for _, axis := range present.Radar(result.Appraisal.Scores) {
			axisScores[axis.Key] = append(axisScores[axis.Key], axis.Value)
		}
	}

	if len(scores) == 0 {
		return summary
	}

	summary.AverageSSIM = average(scores)

	sort.Float64s(scores)
	mid := len(scores) / 2
	if len(scores)%2 == 0 {
		summary.MedianSSIM = (scores[mid-1] + scores[mid]) / 2
	} else {
		summary.MedianSSIM = scores[mid]
	}
	summary.MinSSIM = scores[0]
	summary.MaxSSIM = scores[len(scores)-1]

	for key, values := range axisScores {
		summary.AxisAverages[key] = average(values)
	}
	return summary
}

func average(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// SaveYAML writes results to dir/batch_<timestamp>.yaml and returns the path
func SaveYAML(results *Results, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if results.Config.Timestamp == "" {
		results.Config.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}
	path := filepath.Join(dir, fmt.Sprintf("batch_%s.yaml", results.Config.Timestamp))

	data, err := yaml.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write results file: %w", err)
	}
	return path, nil
}

// LoadYAML reads results written by SaveYAML
func LoadYAML(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	var results Results
	if err := yaml.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	if results.Summary == nil {
		results.Summary = Summarize(results.Results)
	}
	return &results, nil
}
