package present

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
)

// Summary renders the headline metadata, scores and markers as markdown,
// followed by the provider's own report.
func Summary(result *models.AppraisalResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", result.Metadata.WorkName)
	fmt.Fprintf(&sb, "鑑定編號：%s ・ 鑑定日期：%s ・ 風格：%s\n\n", result.Metadata.AppraisalID, result.Metadata.Date, result.Metadata.Style)

	sb.WriteString("| 指標 | 數值 |\n|---|---|\n")
	fmt.Fprintf(&sb, "| 綜合評分 (SSIM) | %d |\n", int(math.Round(result.Scores.SSIM)))
	fmt.Fprintf(&sb, "| 像素重疊率 | %d%% |\n", int(math.Round(result.Scores.PixelOverlap)))
	fmt.Fprintf(&sb, "| 重心偏差 | %gpx |\n", result.Scores.GravityOffset)
	for _, a := range Radar(result.Scores) {
		fmt.Fprintf(&sb, "| %s | %g |\n", a.Subject, a.Value)
	}

	fmt.Fprintf(&sb, "\n- 🟢 %s\n- 🔴 %s\n\n", result.Feedback.VisualMarkers.GreenAreas, result.Feedback.VisualMarkers.RedAreas)
	sb.WriteString("---\n\n")
	sb.WriteString(result.MarkdownReport)
	return sb.String()
}

// RenderTerminal styles the summary for a terminal of the given width
func RenderTerminal(result *models.AppraisalResult, width int) (string, error) {
	if width <= 0 {
		width = 100
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	out, err := r.Render(Summary(result))
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return out, nil
}
