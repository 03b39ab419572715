package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
)

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	slot, err := intake.ParseSlot(r.PathValue("slot"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Check if this is a JSON request with image URL
	var img *intake.Image
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		img, err = h.imageFromURL(w, r)
	} else {
		img, err = h.imageFromForm(w, r)
	}
	if err != nil {
		var intakeErr *intake.IntakeError
		if !errors.As(err, &intakeErr) {
			intakeErr = &intake.IntakeError{Err: err}
		}
		intakeErr.Slot = slot
		tab.Controller.ReportIntakeFailure(slot, intakeErr)

		code := http.StatusBadRequest
		if errors.Is(err, intake.ErrTooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		h.writeError(w, intakeErr.Error(), code)
		return
	}

	if err := tab.Controller.SetImage(slot, img); err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, describe(tab))
}
