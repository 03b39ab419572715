package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"os"
)

//go:embed static/index.html
var staticFS embed.FS

var indexTmpl = template.Must(template.ParseFS(staticFS, "static/index.html"))

type indexData struct {
	Provider  string
	MaxUpload int64
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	provider := os.Getenv("APPRAISAL_PROVIDER")
	if provider == "" {
		provider = "gemini"
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, indexData{Provider: provider, MaxUpload: h.maxUpload}); err != nil {
		h.writeError(w, "Failed to render page: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Unable to write index page", "err", err)
	}
}
