package workflow

import (
	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
)

// Snapshot is a read-only copy of the session for presenters
type Snapshot struct {
	View        View                    `json:"view"`
	Master      *intake.Image           `json:"master,omitempty"`
	User        *intake.Image           `json:"user,omitempty"`
	Analysis    *models.AppraisalResult `json:"analysis,omitempty"`
	IsAnalyzing bool                    `json:"is_analyzing"`
	CanAnalyze  bool                    `json:"can_analyze"`
	Notices     int                     `json:"pending_notices"`
}

// Snapshot copies the current session
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	return Snapshot{
		View:        s.View,
		Master:      s.Master,
		User:        s.User,
		Analysis:    s.Analysis,
		IsAnalyzing: s.IsAnalyzing,
		CanAnalyze:  s.Master != nil && s.User != nil && !s.IsAnalyzing,
		Notices:     len(c.notices),
	}
}

// ResultData is everything the report and sticker views render from
type ResultData struct {
	Analysis *models.AppraisalResult
	Master   *intake.Image
	User     *intake.Image
}

// ResultView returns the report dependencies while the result or stickers view
// is showing. A missing dependency is ErrInconsistentState.
func (c *Controller) ResultView() (ResultData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.session.View {
	case ViewResult, ViewStickers:
		return c.resultData()
	default:
		return ResultData{}, ErrInvalidTransition
	}
}

// StickerView is ResultView restricted to the stickers view
func (c *Controller) StickerView() (ResultData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.View != ViewStickers {
		return ResultData{}, ErrInvalidTransition
	}
	return c.resultData()
}

func (c *Controller) resultData() (ResultData, error) {
	s := c.session
	if s.Analysis == nil || s.Master == nil || s.User == nil {
		return ResultData{}, ErrInconsistentState
	}
	return ResultData{Analysis: s.Analysis, Master: s.Master, User: s.User}, nil
}
