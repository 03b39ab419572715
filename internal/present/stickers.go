package present

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
)

// Template is one of the fixed sticker layouts offered next to the suggestions
type Template struct {
	Theme string `json:"theme"`
	Icon  string `json:"icon"`
	Text  string `json:"text"`
}

// Templates are the sticker layouts offered for every appraisal
var Templates = []Template{
	{Theme: "長輩祝禱", Icon: "🙏", Text: "「墨寶傳情」"},
	{Theme: "專業商務", Icon: "🖋️", Text: "「筆力扛鼎」"},
	{Theme: "新年賀詞", Icon: "🧧", Text: "「墨舞新春」"},
	{Theme: "極簡文青", Icon: "🍵", Text: "「靜觀其墨」"},
	{Theme: "Q版趣味", Icon: "🎨", Text: "「墨氣十足」"},
}

// Suggester produces sticker advice for a result
type Suggester interface {
	SuggestStickerCopy(ctx context.Context, result *models.AppraisalResult) (string, error)
}

// StickerState is what the sticker view renders
type StickerState struct {
	Loading    bool       `json:"loading"`
	Lines      []string   `json:"lines"`
	Failed     bool       `json:"failed"`
	Conclusion string     `json:"conclusion"`
	Style      string     `json:"style"`
	Templates  []Template `json:"templates"`
}

// StickerBoard requests suggestions once per distinct result and keeps the outcome
type StickerBoard struct {
	suggester Suggester
	ctx       context.Context

	mu      sync.Mutex
	result  *models.AppraisalResult
	loading bool
	lines   []string
	failed  bool

	inflight sync.WaitGroup
}

// NewStickerBoard returns an empty board; requests run on ctx
func NewStickerBoard(ctx context.Context, suggester Suggester) *StickerBoard {
	return &StickerBoard{suggester: suggester, ctx: ctx}
}

// Present shows result on the board, issuing the suggestion request the first
// time this result is presented.
func (b *StickerBoard) Present(result *models.AppraisalResult) StickerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if result != nil && result != b.result {
		b.result = result
		b.loading = true
		b.lines = nil
		b.failed = false

		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			text, err := b.suggester.SuggestStickerCopy(b.ctx, result)
			b.finish(result, text, err)
		}()
	}

	return b.state()
}

func (b *StickerBoard) finish(result *models.AppraisalResult, text string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.result != result {
		slog.Debug("Dropping sticker suggestions for a replaced result")
		return
	}

	b.loading = false
	if err != nil {
		slog.Error("Sticker suggestion failed", "err", err)
		b.failed = true
		return
	}
	b.lines = SplitLines(text)
	slog.Info("Sticker suggestions ready", "lines", len(b.lines))
}

// State returns the board without triggering a request
func (b *StickerBoard) State() StickerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state()
}

func (b *StickerBoard) state() StickerState {
	s := StickerState{
		Loading:   b.loading,
		Lines:     append([]string(nil), b.lines...),
		Failed:    b.failed,
		Templates: Templates,
	}
	if b.result != nil {
		s.Conclusion = b.result.Feedback.Conclusion
		s.Style = b.result.Metadata.Style
	}
	return s
}

// Wait blocks until a pending request returns
func (b *StickerBoard) Wait() {
	b.inflight.Wait()
}

// SplitLines returns the non-empty lines of text, trimmed
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
