package intake

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DefaultMaxBytes caps a single upload
const DefaultMaxBytes = 10 * 1024 * 1024

// Slot identifies which upload control an image came from
type Slot string

const (
	SlotMaster Slot = "master"
	SlotUser   Slot = "user"
)

// ParseSlot validates a slot name coming from a request path or flag
func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case SlotMaster, SlotUser:
		return Slot(s), nil
	default:
		return "", fmt.Errorf("invalid slot %q: must be 'master' or 'user'", s)
	}
}

// ErrTooLarge is wrapped by IntakeError when an upload exceeds the read cap
var ErrTooLarge = errors.New("file too large")

// IntakeError reports a failure to read an image for a given slot
type IntakeError struct {
	Slot Slot
	Err  error
}

func (e *IntakeError) Error() string {
	if e.Slot == "" {
		return fmt.Sprintf("failed to read image: %v", e.Err)
	}
	return fmt.Sprintf("failed to read %s image: %v", e.Slot, e.Err)
}

func (e *IntakeError) Unwrap() error { return e.Err }

// Image is an encoded image held in memory
type Image struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
	Filename string `json:"filename,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// DataURL renders the image as a base64 data URL
func (img *Image) DataURL() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Base64 returns only the encoded payload, without the data URL header
func (img *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// ParseDataURL decodes a base64 data URL back into an Image
func ParseDataURL(dataURL string) (*Image, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("data URL has no payload")
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return nil, fmt.Errorf("only base64 data URLs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL payload: %w", err)
	}
	if len(data) == 0 {
		return nil, &IntakeError{Err: fmt.Errorf("file is empty")}
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	img := &Image{MIMEType: mimeType, Data: data}
	img.Width, img.Height = dimensions(data)
	return img, nil
}

// Read consumes r into an Image. At most maxBytes are accepted; a non-positive
// maxBytes falls back to DefaultMaxBytes.
func Read(r io.Reader, filename string, maxBytes int64) (*Image, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	// Read one extra byte so an exact-size file is not mistaken for an oversized one
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, &IntakeError{Err: fmt.Errorf("failed to read file contents: %w", err)}
	}
	if int64(len(data)) > maxBytes {
		return nil, &IntakeError{Err: fmt.Errorf("%w (max %d bytes)", ErrTooLarge, maxBytes)}
	}
	if len(data) == 0 {
		return nil, &IntakeError{Err: fmt.Errorf("file is empty")}
	}

	img := &Image{
		MIMEType: detectMIMEType(data, filename),
		Data:     data,
		Filename: filename,
	}
	img.Width, img.Height = dimensions(data)

	slog.Debug("Image read", "filename", filename, "mime_type", img.MIMEType, "bytes", len(data), "width", img.Width, "height", img.Height)
	return img, nil
}

func detectMIMEType(data []byte, filename string) string {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	return sniffed
}

func dimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Failed to get image dimensions", "error", err)
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
