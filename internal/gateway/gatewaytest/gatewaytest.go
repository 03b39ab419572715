// Package gatewaytest provides an in-memory gateway and fixtures for tests.
package gatewaytest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
)

// SampleJSON is a complete appraisal response as a provider would return it
const SampleJSON = `{
  "metadata": {
    "workName": "九成宮醴泉銘 臨本",
    "style": "歐體",
    "date": "2026-10-19",
    "appraisalId": "INK-20261019-001"
  },
  "scores": {
    "structure": 82,
    "stroke": 76,
    "gravity": 71,
    "whiteSpace": 68,
    "appearance": 80,
    "spirit": 74,
    "ssim": 78,
    "pixelOverlap": 64,
    "gravityOffset": 3.5
  },
  "feedback": {
    "structureDiff": "中宮略鬆，右半部外放不足。",
    "strokeAdvice": "橫畫起筆宜方，收筆稍頓。",
    "specificStrokes": "「成」字斜鉤弧度過大。",
    "inkDistribution": "墨色前濃後枯，節奏尚可。",
    "conclusion": "法度初具，險勁未足。",
    "nextSteps": "每日臨寫單字二十遍，專練橫畫斜度。",
    "visualMarkers": {
      "greenAreas": "左半部豎畫位置精準。",
      "redAreas": "重心偏右約三像素。"
    }
  },
  "markdownReport": "# 書法數位鑑定報告書\n\n## 總評\n\n法度初具，險勁未足。\n",
  "cvAdvice": {
    "steps": ["灰階化並二值化", "以 SSIM 計算結構相似度"],
    "codeSnippet": "from skimage.metrics import structural_similarity"
  }
}`

// SampleResult decodes SampleJSON
func SampleResult() *models.AppraisalResult {
	var result models.AppraisalResult
	if err := json.Unmarshal([]byte(SampleJSON), &result); err != nil {
		panic(err)
	}
	return &result
}

// Fake is a scriptable gateway that counts its calls
type Fake struct {
	CompareFunc func(ctx context.Context, master, user *intake.Image) (*models.AppraisalResult, error)
	StickerFunc func(ctx context.Context, result *models.AppraisalResult) (string, error)

	mu           sync.Mutex
	compareCalls int
	stickerCalls int
	lastSticker  *models.AppraisalResult
}

// CompareImages calls CompareFunc, or returns SampleResult when unset
func (f *Fake) CompareImages(ctx context.Context, master, user *intake.Image) (*models.AppraisalResult, error) {
	f.mu.Lock()
	f.compareCalls++
	fn := f.CompareFunc
	f.mu.Unlock()

	if fn == nil {
		return SampleResult(), nil
	}
	return fn(ctx, master, user)
}

// SuggestStickerCopy calls StickerFunc, or returns a fixed two-line suggestion when unset
func (f *Fake) SuggestStickerCopy(ctx context.Context, result *models.AppraisalResult) (string, error) {
	f.mu.Lock()
	f.stickerCalls++
	f.lastSticker = result
	fn := f.StickerFunc
	f.mu.Unlock()

	if fn == nil {
		return "筆力扛鼎\n\n墨舞新春\n", nil
	}
	return fn(ctx, result)
}

// CompareCalls returns how many times CompareImages ran
func (f *Fake) CompareCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.compareCalls
}

// StickerCalls returns how many times SuggestStickerCopy ran
func (f *Fake) StickerCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stickerCalls
}

// LastStickerResult returns the result passed to the latest SuggestStickerCopy call
func (f *Fake) LastStickerResult() *models.AppraisalResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSticker
}
