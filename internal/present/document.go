package present

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"math"

	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// MarkdownToHTML renders the report markdown. Raw HTML in the input is dropped.
func MarkdownToHTML(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

type radarSVG struct {
	Size    int
	Rings   []string
	Spokes  []line
	Labels  []label
	Polygon string
}

type line struct{ X1, Y1, X2, Y2 float64 }

type label struct {
	X, Y float64
	Text string
}

func buildRadarSVG(axes []Axis) radarSVG {
	const size, radius = 240, 90.0
	c := float64(size) / 2

	svg := radarSVG{Size: size, Polygon: polygonPoints(axes, c, c, radius)}
	for _, frac := range []float64{0.25, 0.5, 0.75, 1} {
		ring := make([]Axis, len(axes))
		for i := range axes {
			ring[i] = Axis{Value: frac * FullMark, FullMark: FullMark}
		}
		svg.Rings = append(svg.Rings, polygonPoints(ring, c, c, radius))
	}
	for i, a := range axes {
		x, y := spoke(i, len(axes), c, c, radius)
		svg.Spokes = append(svg.Spokes, line{X1: c, Y1: c, X2: x, Y2: y})
		lx, ly := spoke(i, len(axes), c, c, radius+18)
		svg.Labels = append(svg.Labels, label{X: lx, Y: ly, Text: a.Subject})
	}
	return svg
}

type documentView struct {
	Result       *models.AppraisalResult
	MasterURL    template.URL
	UserURL      template.URL
	Overall      int
	PixelOverlap int
	Radar        radarSVG
	ReportHTML   template.HTML
	AutoPrint    bool
}

// RenderDocument writes the printable appraisal document. Only the document
// region is emitted; with autoPrint the page opens the print dialog on load.
func RenderDocument(w io.Writer, result *models.AppraisalResult, master, user *intake.Image, autoPrint bool) error {
	reportHTML, err := MarkdownToHTML(result.MarkdownReport)
	if err != nil {
		return err
	}

	view := documentView{
		Result:       result,
		MasterURL:    template.URL(master.DataURL()),
		UserURL:      template.URL(user.DataURL()),
		Overall:      int(math.Round(result.Scores.SSIM)),
		PixelOverlap: int(math.Round(result.Scores.PixelOverlap)),
		Radar:        buildRadarSVG(Radar(result.Scores)),
		ReportHTML:   reportHTML,
		AutoPrint:    autoPrint,
	}

	if err := documentTmpl.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render appraisal document: %w", err)
	}
	return nil
}

var documentTmpl = template.Must(template.New("document").Parse(`<!doctype html>
<html lang="zh-Hant">
<head>
<meta charset="utf-8">
<title>鑑定報告 {{.Result.Metadata.AppraisalID}}</title>
<style>
  body { margin: 0; background: #fff; color: #292524; font-family: "Noto Serif TC", serif; }
  #appraisal-document { max-width: 860px; margin: 0 auto; padding: 40px; border-top: 8px solid #d32f2f; }
  header { text-align: center; }
  .meta { display: flex; justify-content: center; gap: 24px; font-size: 12px; color: #78716c; border-top: 1px solid #f5f5f4; border-bottom: 1px solid #f5f5f4; padding: 8px 0; }
  .images { display: grid; grid-template-columns: 1fr 1fr; gap: 16px; margin: 24px 0; }
  .images img { width: 100%; max-height: 320px; object-fit: contain; background: #fafaf9; }
  .scores { display: grid; grid-template-columns: repeat(3, 1fr); text-align: center; background: #fafaf9; padding: 16px; }
  .scores strong { font-size: 28px; display: block; }
  .green { background: #f0fdf4; color: #15803d; padding: 12px; }
  .red { background: #fef2f2; color: #b91c1c; padding: 12px; }
  .report { margin-top: 32px; border-top: 1px solid #e7e5e4; }
  @media print { #appraisal-document { border: none; padding: 0; } }
</style>
</head>
<body>
<div id="appraisal-document">
  <header>
    <p>數位書法鑑定中心 · {{.Result.Metadata.Style}}專項</p>
    <h1>{{.Result.Metadata.Style}}數位鑑定報告</h1>
    <div class="meta">
      <span>鑑定編號：{{.Result.Metadata.AppraisalID}}</span>
      <span>鑑定日期：{{.Result.Metadata.Date}}</span>
      <span>標的：{{.Result.Metadata.WorkName}}</span>
    </div>
  </header>

  <section class="images">
    <figure><figcaption>名家原帖</figcaption><img src="{{.MasterURL}}" alt="Master Copy"></figure>
    <figure><figcaption>臨摹作品</figcaption><img src="{{.UserURL}}" alt="User Work"></figure>
  </section>

  <section class="scores">
    <div><span>綜合評分 (Overall)</span><strong>🟢 {{.Overall}}</strong></div>
    <div><span>像素重疊率</span><strong>{{.PixelOverlap}}%</strong></div>
    <div><span>重心偏差</span><strong>{{.Result.Scores.GravityOffset}}px</strong></div>
  </section>

  <section>
    <h2>【 視覺化特徵分析 】</h2>
    <div class="green"><h3>🟢 綠色區域 (法度精準)</h3><p>{{.Result.Feedback.VisualMarkers.GreenAreas}}</p></div>
    <div class="red"><h3>🔴 紅色區域 (偏差修正)</h3><p>{{.Result.Feedback.VisualMarkers.RedAreas}}</p></div>
    <blockquote><strong>鑑定評語：</strong>「{{.Result.Feedback.SpecificStrokes}}」</blockquote>
  </section>

  <section>
    <h2>【 鑑定雷達分析圖 】</h2>
    <svg width="{{.Radar.Size}}" height="{{.Radar.Size}}" viewBox="0 0 {{.Radar.Size}} {{.Radar.Size}}">
      {{range .Radar.Rings}}<polygon points="{{.}}" fill="none" stroke="#f3f4f6"/>{{end}}
      {{range .Radar.Spokes}}<line x1="{{.X1}}" y1="{{.Y1}}" x2="{{.X2}}" y2="{{.Y2}}" stroke="#f3f4f6"/>{{end}}
      <polygon points="{{.Radar.Polygon}}" fill="#d32f2f" fill-opacity="0.6" stroke="#d32f2f"/>
      {{range .Radar.Labels}}<text x="{{.X}}" y="{{.Y}}" font-size="10" text-anchor="middle">{{.Text}}</text>{{end}}
    </svg>
    <h3>進階練習建議</h3>
    <p>{{.Result.Feedback.NextSteps}}</p>
  </section>

  <section class="report">
    {{.ReportHTML}}
  </section>

  <footer>
    <p>APPRAISAL VERIFIED BY AI INK ALGORITHM</p>
    <p>墨韻鑑定小組 · {{.Result.Metadata.Style}}專科</p>
  </footer>
</div>
{{if .AutoPrint}}<script>window.addEventListener("load", function () { window.print(); });</script>{{end}}
</body>
</html>
`))
