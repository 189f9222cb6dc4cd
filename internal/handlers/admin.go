package handlers

import (
	"net/http"
	"strings"

	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/services"
)

// AdminPageData holds data for the admin template
type AdminPageData struct {
	services.RaceListing
	Drivers []string
	Results services.ActionState
	Scores  services.ActionState
	// selections echoed back into the forms
	Result     models.RaceResult
	ScoresRace string
}

func (h *Handlers) renderAdmin(w http.ResponseWriter, r *http.Request, data AdminPageData) {
	data.RaceListing = h.Admin.ListRaces(r.Context())
	data.Drivers = models.Drivers
	data.Results, data.Scores = h.Admin.States()
	h.render(w, r, h.templates.Admin, "Admin", "admin", data)
}

// handleAdminPage renders the admin page with fresh action states
func (h *Handlers) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	h.Admin.Reset()
	h.renderAdmin(w, r, AdminPageData{})
}

// handleRecordResult records the official podium of a race
func (h *Handlers) handleRecordResult(w http.ResponseWriter, r *http.Request) {
	result := models.RaceResult{
		RaceID:         strings.TrimSpace(r.FormValue("raceId")),
		OfficialWinner: strings.TrimSpace(r.FormValue("winner")),
		OfficialSecond: strings.TrimSpace(r.FormValue("second")),
		OfficialThird:  strings.TrimSpace(r.FormValue("third")),
	}
	h.Admin.RecordResult(r.Context(), result)
	if !h.SessionFor(r).Authenticated() {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	h.renderAdmin(w, r, AdminPageData{Result: result})
}

// handleCalculateScores triggers score calculation for a race
func (h *Handlers) handleCalculateScores(w http.ResponseWriter, r *http.Request) {
	raceID := strings.TrimSpace(r.FormValue("raceId"))
	h.Admin.CalculateScores(r.Context(), raceID)
	if !h.SessionFor(r).Authenticated() {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	h.renderAdmin(w, r, AdminPageData{ScoresRace: raceID})
}
