package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"

	"github.com/abrezinsky/f1bet/internal/guard"
	"github.com/abrezinsky/f1bet/internal/services"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// plaintextHTTP marks requests served without TLS so the CSRF origin check
// compares them against http:// rather than https://
func plaintextHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(w, r)
	})
}

// handleForbidden answers form posts that fail the CSRF check. An avatar
// over the size cap cannot be parsed for its token, so it gets the
// too-large message instead.
func (h *Handlers) handleForbidden(w http.ResponseWriter, r *http.Request) {
	if body, ok := r.Body.(*cappedBody); ok && body.exceeded {
		h.renderOwnProfile(w, r, ProfilePageData{Avatar: services.AvatarResult{Error: services.MsgAvatarTooLarge}})
		return
	}
	h.Log.Warn("Rejected cross-site request", "method", r.Method, "path", r.URL.Path, "reason", csrf.FailureReason(r))
	respondJSON(w, http.StatusForbidden, &APIError{Status: http.StatusForbidden, Code: ErrCodeForbidden, Message: "Forbidden - invalid CSRF token or origin"})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(capUploads)
	r.Use(plaintextHTTP)
	r.Use(csrf.Protect(h.csrfKey,
		csrf.Secure(false),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(h.handleForbidden)),
	))

	// Static files (served from embedded filesystem)
	r.Handle("/static/*", http.StripPrefix("/static/", h.staticServer))

	// Public pages
	r.Get("/", h.handleHome)
	r.Get("/races", h.handleRaces)
	r.Get("/races/{id}/qr.png", h.handleRaceQR)
	r.Get("/ranking", h.handleRanking)
	r.Get("/profile/{id}", h.handleProfile)

	// Session
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.handleRegisterPage)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
	r.Get("/api/session", h.handleSession)

	// WebSocket
	r.Get("/ws", h.Hub.ServeWs)

	// Logged in users
	r.Group(func(r chi.Router) {
		r.Use(guard.Require(h, guard.RoleUser))
		r.Get("/predict/{raceId}", h.handlePredictPage)
		r.Post("/predict/{raceId}", h.handleSubmitPrediction)
		r.Post("/profile/theme", h.handleSetTheme)
		r.Post("/profile/avatar", h.handleUploadAvatar)
	})

	// Administrators
	r.Group(func(r chi.Router) {
		r.Use(guard.Require(h, guard.RoleAdmin))
		r.Get("/admin", h.handleAdminPage)
		r.Post("/admin/results", h.handleRecordResult)
		r.Post("/admin/scores", h.handleCalculateScores)
	})

	return r
}
