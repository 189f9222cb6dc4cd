package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/f1bet/internal/services"
	"github.com/abrezinsky/f1bet/internal/theme"
)

// maxAvatarSize bounds avatar uploads; the form around the file gets a
// little headroom
const (
	maxAvatarSize = 5 << 20
	maxAvatarBody = maxAvatarSize + 1024
)

// handleHome renders the welcome page
func (h *Handlers) handleHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.templates.Home, "F1 Bet", "home", nil)
}

// handleRaces renders the race catalog
func (h *Handlers) handleRaces(w http.ResponseWriter, r *http.Request) {
	listing := h.Races.ListRaces(r.Context())
	h.render(w, r, h.templates.Races, "Races", "races", listing)
}

// handleRaceQR serves a QR code linking to the race's prediction page
func (h *Handlers) handleRaceQR(w http.ResponseWriter, r *http.Request) {
	png, err := h.Races.RaceQR(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

// handleRanking renders the leaderboard
func (h *Handlers) handleRanking(w http.ResponseWriter, r *http.Request) {
	ranking := h.Ranking.Ranking(r.Context())
	h.render(w, r, h.templates.Ranking, "Ranking", "ranking", ranking)
}

// ProfilePageData holds data for the profile template
type ProfilePageData struct {
	services.ProfileView
	Themes     []theme.Theme
	Avatar     services.AvatarResult
	ThemeError string
	ThemeSaved string
}

func (h *Handlers) renderProfile(w http.ResponseWriter, r *http.Request, userID string, data ProfilePageData) {
	if h.SessionFor(r).Token == "" {
		data.ProfileView = services.ProfileView{Error: services.MsgLoginToViewProfile}
	} else {
		data.ProfileView = h.Profile.Load(r.Context(), userID)
	}
	data.Themes = theme.Teams
	h.render(w, r, h.templates.Profile, "Profile", "profile", data)
}

// handleProfile renders a user's profile and prediction history
func (h *Handlers) handleProfile(w http.ResponseWriter, r *http.Request) {
	h.renderProfile(w, r, chi.URLParam(r, "id"), ProfilePageData{})
}

// handleSetTheme saves the owner's theme and shows their profile again
func (h *Handlers) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var data ProfilePageData
	if h.Profile.SetTheme(r.Context(), r.FormValue("theme")) {
		data.ThemeSaved = services.MsgThemeSaved
	} else {
		data.ThemeError = services.MsgThemeFailed
	}
	h.renderOwnProfile(w, r, data)
}

// handleUploadAvatar uploads a new profile picture from the
// profilePicture form field
func (h *Handlers) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	var data ProfilePageData

	if _, capped := r.Body.(*cappedBody); !capped {
		r.Body = &cappedBody{ReadCloser: http.MaxBytesReader(w, r.Body, maxAvatarBody)}
	}
	file, header, err := r.FormFile("profilePicture")
	if err != nil {
		data.Avatar = services.AvatarResult{Error: services.MsgAvatarMissing}
		if bodyTooLarge(r, err) {
			data.Avatar.Error = services.MsgAvatarTooLarge
		}
		h.renderOwnProfile(w, r, data)
		return
	}
	defer file.Close()

	data.Avatar = h.Profile.UploadAvatar(r.Context(), header.Filename, file)
	h.renderOwnProfile(w, r, data)
}

// renderOwnProfile shows the caller's profile, or the login page if the
// action ended the session
func (h *Handlers) renderOwnProfile(w http.ResponseWriter, r *http.Request, data ProfilePageData) {
	snap := h.SessionFor(r)
	if snap.User == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	h.renderProfile(w, r, snap.User.ID, data)
}

// cappedBody is an upload body behind http.MaxBytesReader that remembers
// whether the cap was hit, even when the reader's error is swallowed
type cappedBody struct {
	io.ReadCloser
	exceeded bool
}

func (b *cappedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.exceeded = true
	}
	return n, err
}

// capUploads limits avatar uploads before anything, including the CSRF
// check, parses the body
func capUploads(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/profile/avatar" {
			r.Body = &cappedBody{ReadCloser: http.MaxBytesReader(w, r.Body, maxAvatarBody)}
		}
		next.ServeHTTP(w, r)
	})
}

func bodyTooLarge(r *http.Request, err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	body, ok := r.Body.(*cappedBody)
	return ok && body.exceeded
}
