package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/lehigh-university-libraries/inkrhythm/internal/storage"
	"github.com/lehigh-university-libraries/inkrhythm/internal/workflow"
)

type sessionResponse struct {
	ID string `json:"id"`
	workflow.Snapshot
	MasterURL string            `json:"master_url,omitempty"`
	UserURL   string            `json:"user_url,omitempty"`
	Notices   []workflow.Notice `json:"notices"`
	Copied    bool              `json:"copied"`
}

// describe snapshots tab and drains its notices
func describe(tab *storage.Tab) sessionResponse {
	snap := tab.Controller.Snapshot()
	resp := sessionResponse{
		ID:       tab.ID,
		Snapshot: snap,
		Notices:  tab.Controller.TakeNotices(),
		Copied:   tab.CopyAck.Copied(),
	}
	if resp.Notices == nil {
		resp.Notices = []workflow.Notice{}
	}
	// drained above, so nothing is pending any more
	resp.Snapshot.Notices = 0
	if snap.Master != nil {
		resp.MasterURL = snap.Master.DataURL()
	}
	if snap.User != nil {
		resp.UserURL = snap.User.DataURL()
	}
	return resp
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	tab := storage.NewTab(h.ctx, h.backend, h.copyDelay)
	h.sessionStore.Set(tab.ID, tab)

	slog.Info("Session created", "session_id", tab.ID)
	h.writeJSONStatus(w, http.StatusCreated, describe(tab))
}

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	type summary struct {
		ID         string        `json:"id"`
		View       workflow.View `json:"view"`
		CreatedAt  time.Time     `json:"created_at"`
		LastActive time.Time     `json:"last_active"`
	}

	sessions := h.sessionStore.GetAll()
	sessionList := make([]summary, 0, len(sessions))
	for _, tab := range sessions {
		sessionList = append(sessionList, summary{
			ID:         tab.ID,
			View:       tab.Controller.Snapshot().View,
			CreatedAt:  tab.CreatedAt,
			LastActive: tab.Controller.LastActive(),
		})
	}
	sort.Slice(sessionList, func(i, j int) bool {
		return sessionList[i].CreatedAt.Before(sessionList[j].CreatedAt)
	})
	h.writeJSON(w, sessionList)
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, describe(tab))
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.sessionStore.Delete(tab.ID)
	slog.Info("Session deleted", "session_id", tab.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var request struct {
		View string `json:"view"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	view, err := workflow.ParseView(request.View)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := tab.Controller.Navigate(view); err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	if view == workflow.ViewStickers {
		if data, err := tab.Controller.StickerView(); err == nil {
			tab.Stickers.Present(data.Analysis)
		}
	}
	h.writeJSON(w, describe(tab))
}

func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	if err := tab.Controller.StartAnalysis(); err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSONStatus(w, http.StatusAccepted, describe(tab))
}
