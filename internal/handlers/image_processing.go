package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
)

// multipartOverhead leaves room for form boundaries and headers on top of the file cap
const multipartOverhead = 1 << 20

func (h *Handler) imageFromForm(w http.ResponseWriter, r *http.Request) (*intake.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &intake.IntakeError{Err: fmt.Errorf("%w (max %d bytes)", intake.ErrTooLarge, h.maxUpload)}
		}
		file, header, err = r.FormFile("files")
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}
	defer file.Close()

	return intake.Read(file, header.Filename, h.maxUpload)
}

// jsonBodyLimit bounds a JSON upload body carrying a base64 data URL of up to maxUpload bytes
func jsonBodyLimit(maxUpload int64) int64 {
	return int64(base64.StdEncoding.EncodedLen(int(maxUpload))) + multipartOverhead
}

func (h *Handler) imageFromURL(w http.ResponseWriter, r *http.Request) (*intake.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, jsonBodyLimit(h.maxUpload))

	var request struct {
		ImageURL string `json:"image_url"`
		DataURL  string `json:"data_url"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &intake.IntakeError{Err: fmt.Errorf("%w (max %d bytes)", intake.ErrTooLarge, h.maxUpload)}
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch {
	case request.DataURL != "":
		img, err := intake.ParseDataURL(request.DataURL)
		if err != nil {
			return nil, err
		}
		if int64(len(img.Data)) > h.maxUpload {
			return nil, fmt.Errorf("%w (max %d bytes)", intake.ErrTooLarge, h.maxUpload)
		}
		return img, nil
	case request.ImageURL != "":
		return h.fetcher.FromURL(r.Context(), request.ImageURL)
	default:
		return nil, fmt.Errorf("image_url or data_url is required")
	}
}
