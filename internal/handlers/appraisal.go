package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
	"github.com/lehigh-university-libraries/inkrhythm/internal/present"
)

type resultResponse struct {
	Analysis  *models.AppraisalResult `json:"analysis"`
	Radar     []present.Axis          `json:"radar"`
	MasterURL string                  `json:"master_url"`
	UserURL   string                  `json:"user_url"`
	Copied    bool                    `json:"copied"`
}

func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	data, err := tab.Controller.ResultView()
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	h.writeJSON(w, resultResponse{
		Analysis:  data.Analysis,
		Radar:     present.Radar(data.Analysis.Scores),
		MasterURL: data.Master.DataURL(),
		UserURL:   data.User.DataURL(),
		Copied:    tab.CopyAck.Copied(),
	})
}

func (h *Handler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	data, err := tab.Controller.ResultView()
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	// the page writes the returned markdown to the user's clipboard
	tab.CopyAck.Acknowledge()

	slog.Info("Report copied", "session_id", tab.ID, "appraisal_id", data.Analysis.Metadata.AppraisalID)
	h.writeJSON(w, map[string]any{
		"markdown": data.Analysis.MarkdownReport,
		"copied":   true,
	})
}

func (h *Handler) HandleDocument(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	data, err := tab.Controller.ResultView()
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	// Render into a buffer so a template failure can still produce a clean error
	var buf bytes.Buffer
	autoPrint := r.URL.Query().Get("print") != ""
	if err := present.RenderDocument(&buf, data.Analysis, data.Master, data.User, autoPrint); err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Unable to write document", "err", err)
	}
}

func (h *Handler) HandleStickers(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	data, err := tab.Controller.StickerView()
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	h.writeJSON(w, tab.Stickers.Present(data.Analysis))
}
