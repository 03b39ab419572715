package present

import (
	"fmt"
	"math"
	"strings"

	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
)

// FullMark is the outer ring of the radar chart
const FullMark = 100

// Axis is one spoke of the radar chart
type Axis struct {
	Key      string  `json:"key"`
	Subject  string  `json:"subject"`
	Value    float64 `json:"value"`
	FullMark float64 `json:"full_mark"`
}

// Radar projects five of the scores onto chart axes, clamped to [0, FullMark]
func Radar(s models.Scores) []Axis {
	return []Axis{
		{Key: "structure", Subject: "結構(結體)", Value: clamp(s.Structure), FullMark: FullMark},
		{Key: "stroke", Subject: "法度(擬合)", Value: clamp(s.Stroke), FullMark: FullMark},
		{Key: "gravity", Subject: "重心(穩健)", Value: clamp(s.Gravity), FullMark: FullMark},
		{Key: "spirit", Subject: "氣韻(神采)", Value: clamp(s.Spirit), FullMark: FullMark},
		{Key: "appearance", Subject: "力度(勁道)", Value: clamp(s.Appearance), FullMark: FullMark},
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(FullMark, v))
}

// polygonPoints lays axes out clockwise from 12 o'clock around (cx, cy) and
// returns an SVG points attribute.
func polygonPoints(axes []Axis, cx, cy, radius float64) string {
	points := make([]string, 0, len(axes))
	for i, a := range axes {
		r := radius * a.Value / a.FullMark
		x, y := spoke(i, len(axes), cx, cy, r)
		points = append(points, fmt.Sprintf("%.1f,%.1f", x, y))
	}
	return strings.Join(points, " ")
}

func spoke(i, n int, cx, cy, r float64) (float64, float64) {
	angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
	return cx + r*math.Cos(angle), cy + r*math.Sin(angle)
}
