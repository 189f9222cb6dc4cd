package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/services"
)

// PredictPageData holds data for the predict template
type PredictPageData struct {
	services.PredictionView
	RaceID   string
	Drivers  []string
	Editable bool
	Closed   bool
}

func newPredictPageData(raceID string, view services.PredictionView) PredictPageData {
	return PredictPageData{
		PredictionView: view,
		RaceID:         raceID,
		Drivers:        models.Drivers,
		Editable:       view.State == services.PredictionEditing,
		Closed:         view.State == services.PredictionClosed,
	}
}

// picksFromForm reads the three podium selects
func picksFromForm(r *http.Request) models.Picks {
	return models.Picks{
		Winner: strings.TrimSpace(r.FormValue("winner")),
		Second: strings.TrimSpace(r.FormValue("second")),
		Third:  strings.TrimSpace(r.FormValue("third")),
	}
}

// handlePredictPage opens a fresh prediction workflow for the race
func (h *Handlers) handlePredictPage(w http.ResponseWriter, r *http.Request) {
	raceID := chi.URLParam(r, "raceId")
	wf := h.Predictions.Open(r.Context(), raceID)
	h.render(w, r, h.templates.Predict, "Predict", "races", newPredictPageData(raceID, wf.View()))
}

// handleSubmitPrediction submits the picks through the open workflow
func (h *Handlers) handleSubmitPrediction(w http.ResponseWriter, r *http.Request) {
	raceID := chi.URLParam(r, "raceId")
	wf := h.Predictions.Workflow(r.Context(), raceID)
	view := wf.Submit(r.Context(), picksFromForm(r))
	if !h.SessionFor(r).Authenticated() {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	h.render(w, r, h.templates.Predict, "Predict", "races", newPredictPageData(raceID, view))
}
