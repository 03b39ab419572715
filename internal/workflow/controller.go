// Package workflow sequences one appraisal session: image upload, the
// analysis call and the result and sticker views.
//
// A Controller owns its Session exclusively. Presenters read it through
// Snapshot, ResultView and StickerView and request changes through the
// named transition methods.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
)

// View is a state of the session
type View string

const (
	ViewHome      View = "home"
	ViewUpload    View = "upload"
	ViewAnalyzing View = "analyzing"
	ViewResult    View = "result"
	ViewStickers  View = "stickers"
)

// ParseView validates a view name
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewHome, ViewUpload, ViewAnalyzing, ViewResult, ViewStickers:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

// Sentinel errors for workflow operations.
var (
	ErrInvalidTransition = errors.New("invalid view transition")
	ErrUploadClosed      = errors.New("images can only be uploaded from the upload view")
	ErrImagesMissing     = errors.New("both master and user images are required")
	ErrAnalysisInFlight  = errors.New("analysis already in progress")
	ErrInconsistentState = errors.New("view requires an appraisal and both images")
)

// Failure notices shown to the user
const (
	MessageAnalysisFailed = "分析失敗，請稍後再試。"
	MessageIntakeFailed   = "圖片讀取失敗，請重新上傳。"
)

// Analyzer produces an appraisal for a master/practice pair
type Analyzer interface {
	CompareImages(ctx context.Context, master, user *intake.Image) (*models.AppraisalResult, error)
}

// Session is the transient state of one tab
type Session struct {
	View        View
	Master      *intake.Image
	User        *intake.Image
	Analysis    *models.AppraisalResult
	IsAnalyzing bool
}

// NoticeKind classifies a user-visible notice
type NoticeKind string

const (
	NoticeIntake   NoticeKind = "intake"
	NoticeAnalysis NoticeKind = "analysis"
)

// Notice is a user-visible failure message
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	Detail  string     `json:"detail,omitempty"`
	At      time.Time  `json:"at"`
}

// Controller is the state machine for one session
type Controller struct {
	analyzer Analyzer
	ctx      context.Context

	mu         sync.Mutex
	session    Session
	generation uint64
	notices    []Notice
	lastActive time.Time

	inflight sync.WaitGroup
}

// New returns a controller in the home view. Analysis calls run on ctx, not on
// the context of the request that triggered them.
func New(ctx context.Context, analyzer Analyzer) *Controller {
	return &Controller{
		analyzer:   analyzer,
		ctx:        ctx,
		session:    Session{View: ViewHome},
		lastActive: time.Now(),
	}
}

// setView must be called with mu held
func (c *Controller) setView(to View) {
	from := c.session.View
	c.session.View = to
	c.lastActive = time.Now()
	if from != to {
		slog.Debug("View changed", "from", from, "to", to)
	}
}

// Begin moves from home to upload
func (c *Controller) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.View != ViewHome {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.session.View, ViewUpload)
	}
	c.setView(ViewUpload)
	return nil
}

// GoHome returns to home from any view. A pending analysis keeps running but
// its outcome is dropped.
func (c *Controller) GoHome() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.IsAnalyzing {
		c.session.IsAnalyzing = false
		c.generation++
		slog.Info("Left analysis before it finished, outcome will be ignored", "generation", c.generation)
	}
	c.setView(ViewHome)
}

// ProceedToStickers moves from result to stickers
func (c *Controller) ProceedToStickers() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.View != ViewResult {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.session.View, ViewStickers)
	}
	if c.session.Analysis == nil {
		return ErrInconsistentState
	}
	c.setView(ViewStickers)
	return nil
}

// Navigate performs the user-initiated transition to v
func (c *Controller) Navigate(v View) error {
	switch v {
	case ViewHome:
		c.GoHome()
		return nil
	case ViewUpload:
		return c.Begin()
	case ViewStickers:
		return c.ProceedToStickers()
	case ViewAnalyzing:
		return c.StartAnalysis()
	default:
		return fmt.Errorf("%w: cannot navigate to %s", ErrInvalidTransition, v)
	}
}

// SetImage stores img in slot, replacing any earlier upload
func (c *Controller) SetImage(slot intake.Slot, img *intake.Image) error {
	if img == nil {
		return fmt.Errorf("nil image for %s slot", slot)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.View != ViewUpload {
		return ErrUploadClosed
	}

	switch slot {
	case intake.SlotMaster:
		c.session.Master = img
	case intake.SlotUser:
		c.session.User = img
	default:
		return fmt.Errorf("invalid slot %q", slot)
	}
	c.lastActive = time.Now()

	slog.Info("Image uploaded", "slot", slot, "mime_type", img.MIMEType, "bytes", len(img.Data))
	return nil
}

// ReportIntakeFailure records a failed upload without touching either slot
func (c *Controller) ReportIntakeFailure(slot intake.Slot, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slog.Warn("Image intake failed", "slot", slot, "err", err)
	c.notices = append(c.notices, Notice{
		Kind:    NoticeIntake,
		Message: MessageIntakeFailed,
		Detail:  err.Error(),
		At:      time.Now(),
	})
}

// StartAnalysis issues the comparison call. It changes nothing unless both
// images are present, the session is in upload and no call is pending.
func (c *Controller) StartAnalysis() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Master == nil || c.session.User == nil {
		return ErrImagesMissing
	}
	if c.session.IsAnalyzing {
		return ErrAnalysisInFlight
	}
	if c.session.View != ViewUpload {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.session.View, ViewAnalyzing)
	}

	c.generation++
	gen := c.generation
	master, user := c.session.Master, c.session.User

	c.session.IsAnalyzing = true
	c.setView(ViewAnalyzing)

	slog.Info("Starting analysis", "generation", gen)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		started := time.Now()
		result, err := c.analyzer.CompareImages(c.ctx, master, user)
		c.finishAnalysis(gen, result, err, time.Since(started))
	}()

	return nil
}

func (c *Controller) finishAnalysis(gen uint64, result *models.AppraisalResult, err error, took time.Duration) {
	if err == nil {
		err = result.Validate()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || !c.session.IsAnalyzing {
		slog.Debug("Dropping outcome of abandoned analysis", "generation", gen, "current", c.generation, "err", err)
		return
	}

	c.session.IsAnalyzing = false

	if err != nil {
		slog.Error("Analysis failed", "generation", gen, "duration", took, "err", err)
		c.notices = append(c.notices, Notice{
			Kind:    NoticeAnalysis,
			Message: MessageAnalysisFailed,
			Detail:  err.Error(),
			At:      time.Now(),
		})
		c.setView(ViewUpload)
		return
	}

	c.session.Analysis = result
	c.setView(ViewResult)
	slog.Info("Analysis complete", "generation", gen, "duration", took, "appraisal_id", result.Metadata.AppraisalID)
}

// Wait blocks until any pending analysis goroutine has returned
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// TakeNotices returns and clears the pending notices
func (c *Controller) TakeNotices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	notices := c.notices
	c.notices = nil
	return notices
}

// LastActive reports when the session last changed
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}
