package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteReport renders results as text, json or csv
func WriteReport(w io.Writer, results *Results, format string) error {
	switch format {
	case "text":
		return writeTextReport(w, results)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	case "csv":
		return writeCSVReport(w, results)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteSummary prints the summary block shared by run and report
func WriteSummary(w io.Writer, summary *Summary) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Batch Appraisal Summary")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Total Pairs:        %d\n", summary.Total)
	fmt.Fprintf(w, "Succeeded:          %d\n", summary.Succeeded)
	fmt.Fprintf(w, "Failed:             %d\n", summary.Failed)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Average SSIM:       %.2f\n", summary.AverageSSIM)
	fmt.Fprintf(w, "Median SSIM:        %.2f\n", summary.MedianSSIM)
	fmt.Fprintf(w, "Min SSIM:           %.2f\n", summary.MinSSIM)
	fmt.Fprintf(w, "Max SSIM:           %.2f\n", summary.MaxSSIM)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Axis Averages:")

	keys := make([]string, 0, len(summary.AxisAverages))
	for key := range summary.AxisAverages {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "  %s: %.2f\n", key, summary.AxisAverages[key])
	}
	fmt.Fprintln(w, "========================================")
}

func writeTextReport(w io.Writer, results *Results) error {
	fmt.Fprintf(w, "Provider: %s\n", results.Config.Provider)
	fmt.Fprintf(w, "Model:    %s\n", results.Config.Model)
	fmt.Fprintf(w, "Dataset:  %s\n\n", results.Config.DatasetPath)

	WriteSummary(w, results.Summary)

	fmt.Fprintln(w, "\nDetailed Results:")
	for i, result := range results.Results {
		fmt.Fprintf(w, "\n[%d] %s (%s)\n", i+1, result.ID, result.Duration)
		if result.Error != "" {
			fmt.Fprintf(w, "  ❌ Error: %s\n", result.Error)
			continue
		}

		a := result.Appraisal
		fmt.Fprintf(w, "  %s · %s\n", a.Metadata.AppraisalID, a.Metadata.WorkName)
		fmt.Fprintf(w, "  SSIM %.0f · overlap %.0f%% · gravity offset %gpx\n", a.Scores.SSIM, a.Scores.PixelOverlap, a.Scores.GravityOffset)
		fmt.Fprintf(w, "  Conclusion: %s\n", truncate(a.Feedback.Conclusion, 80))
	}
	return nil
}

func writeCSVReport(w io.Writer, results *Results) error {
	writer := csv.NewWriter(w)

	header := []string{"ID", "Appraisal ID", "SSIM", "Pixel Overlap", "Gravity Offset", "Structure", "Stroke", "Gravity", "White Space", "Appearance", "Spirit", "Error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, result := range results.Results {
		row := []string{result.ID}
		if result.Error != "" || result.Appraisal == nil {
			row = append(row, "", "", "", "", "", "", "", "", "", "", result.Error)
		} else {
			a := result.Appraisal
			row = append(row, a.Metadata.AppraisalID)
			for _, v := range []float64{
				a.Scores.SSIM, a.Scores.PixelOverlap, a.Scores.GravityOffset,
				a.Scores.Structure, a.Scores.Stroke, a.Scores.Gravity,
				a.Scores.WhiteSpace, a.Scores.Appearance, a.Scores.Spirit,
			} {
				row = append(row, fmt.Sprintf("%g", v))
			}
			row = append(row, "")
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return strings.TrimSpace(string(r[:maxLen-3])) + "..."
}
