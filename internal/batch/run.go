package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
	"github.com/lehigh-university-libraries/inkrhythm/internal/workflow"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one pair
type Result struct {
	ID        string                  `json:"id" yaml:"id"`
	Appraisal *models.AppraisalResult `json:"appraisal,omitempty" yaml:"appraisal,omitempty"`
	Error     string                  `json:"error,omitempty" yaml:"error,omitempty"`
	Duration  time.Duration           `json:"duration" yaml:"duration"`
}

// Run appraises every pair with at most concurrency calls in flight. A failed
// pair is recorded in its Result and never stops the batch. Results keep the
// order of pairs.
func Run(ctx context.Context, analyzer workflow.Analyzer, pairs []Pair, concurrency int, maxBytes int64) ([]Result, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(pairs))
	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, pair := range pairs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = appraise(ctx, analyzer, pair, maxBytes)
			n := done.Add(1)
			slog.Info("Processed pair", "id", pair.ID, "progress", fmt.Sprintf("%d/%d", n, len(pairs)), "ok", results[i].Error == "")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("batch interrupted: %w", err)
	}
	return results, nil
}

func appraise(ctx context.Context, analyzer workflow.Analyzer, pair Pair, maxBytes int64) (result Result) {
	result.ID = pair.ID
	started := time.Now()
	defer func() { result.Duration = time.Since(started) }()

	master, err := ReadImageFile(pair.MasterPath, intake.SlotMaster, maxBytes)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	user, err := ReadImageFile(pair.UserPath, intake.SlotUser, maxBytes)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	appraisal, err := analyzer.CompareImages(ctx, master, user)
	if err == nil {
		err = appraisal.Validate()
	}
	if err != nil {
		slog.Error("Appraisal failed", "id", pair.ID, "err", err)
		result.Error = fmt.Sprintf("failed to appraise: %v", err)
		return result
	}

	result.Appraisal = appraisal
	return result
}

// ReadImageFile loads an image from disk for slot
func ReadImageFile(path string, slot intake.Slot, maxBytes int64) (*intake.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &intake.IntakeError{Slot: slot, Err: err}
	}
	defer file.Close()

	img, err := intake.Read(file, filepath.Base(path), maxBytes)
	if err != nil {
		var intakeErr *intake.IntakeError
		if errors.As(err, &intakeErr) {
			intakeErr.Slot = slot
		}
		return nil, err
	}
	return img, nil
}
