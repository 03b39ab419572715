package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/lehigh-university-libraries/inkrhythm/internal/present"
	"github.com/lehigh-university-libraries/inkrhythm/internal/storage"
	"github.com/lehigh-university-libraries/inkrhythm/internal/workflow"
)

type Handler struct {
	sessionStore *storage.SessionStore
	backend      storage.Backend
	fetcher      *intake.Fetcher
	ctx          context.Context

	maxUpload int64
	copyDelay time.Duration
}

// Options tunes a Handler. Zero values fall back to defaults.
type Options struct {
	MaxUploadBytes int64
	CopyAckDelay   time.Duration
}

// New creates a handler whose analysis and sticker calls run on ctx
func New(ctx context.Context, backend storage.Backend, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = intake.DefaultMaxBytes
	}
	if opts.CopyAckDelay <= 0 {
		opts.CopyAckDelay = present.DefaultCopyAckDelay
	}
	return &Handler{
		sessionStore: storage.New(),
		backend:      backend,
		fetcher:      intake.NewFetcher(opts.MaxUploadBytes),
		ctx:          ctx,
		maxUpload:    opts.MaxUploadBytes,
		copyDelay:    opts.CopyAckDelay,
	}
}

// Store exposes the session store, e.g. for pruning idle tabs
func (h *Handler) Store() *storage.SessionStore {
	return h.sessionStore
}

// Routes registers every endpoint on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /api/sessions", h.HandleSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleSessionDetail)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/navigate", h.HandleNavigate)
	mux.HandleFunc("POST /api/sessions/{id}/images/{slot}", h.HandleUpload)
	mux.HandleFunc("POST /api/sessions/{id}/analyze", h.HandleAnalyze)
	mux.HandleFunc("GET /api/sessions/{id}/result", h.HandleResult)
	mux.HandleFunc("POST /api/sessions/{id}/copy", h.HandleCopy)
	mux.HandleFunc("GET /api/sessions/{id}/document", h.HandleDocument)
	mux.HandleFunc("GET /api/sessions/{id}/stickers", h.HandleStickers)
	mux.HandleFunc("GET /healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeWorkflowError maps workflow refusals to 409 and anything else to 500
func (h *Handler) writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrImagesMissing),
		errors.Is(err, workflow.ErrAnalysisInFlight),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrUploadClosed),
		errors.Is(err, workflow.ErrInconsistentState):
		slog.Warn("Request refused", "err", err)
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, r *http.Request) (*storage.Tab, bool) {
	tab, exists := h.sessionStore.Get(r.PathValue("id"))
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return tab, true
}
