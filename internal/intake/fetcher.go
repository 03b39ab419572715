package intake

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"
)

// Fetcher downloads images referenced by URL
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64
}

// NewFetcher creates a new image fetcher
func NewFetcher(maxBytes int64) *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		MaxBytes: maxBytes,
	}
}

// FromURL downloads imageURL into an Image
func (f *Fetcher) FromURL(ctx context.Context, imageURL string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, &IntakeError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, &IntakeError{Err: fmt.Errorf("failed to download image: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &IntakeError{Err: fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)}
	}

	filename := path.Base(req.URL.Path)
	if filename == "." || filename == "/" {
		filename = "image.jpg"
	}

	img, err := Read(resp.Body, filename, f.MaxBytes)
	if err != nil {
		return nil, err
	}

	slog.Info("Image downloaded", "url", imageURL, "bytes", len(img.Data))
	return img, nil
}
