package handlers

import (
	"net/http"
	"strings"

	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/theme"
)

// AuthPageData holds data for the login and register templates
type AuthPageData struct {
	Username string
	Email    string
	Error    string
}

// handleLoginPage renders the login form
func (h *Handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if h.SessionFor(r).Authenticated() {
		http.Redirect(w, r, "/races", http.StatusFound)
		return
	}
	h.render(w, r, h.templates.Login, "Log in", "login", AuthPageData{})
}

// handleLogin processes login form submission
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	res := h.Session.Login(r.Context(), email, password)
	if !res.Success {
		h.render(w, r, h.templates.Login, "Log in", "login", AuthPageData{Email: email, Error: res.Error})
		return
	}
	h.bindBrowser(w, r)
}

// handleRegisterPage renders the registration form
func (h *Handlers) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if h.SessionFor(r).Authenticated() {
		http.Redirect(w, r, "/races", http.StatusFound)
		return
	}
	h.render(w, r, h.templates.Register, "Register", "register", AuthPageData{})
}

// handleRegister processes registration form submission
func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	res := h.Session.Register(r.Context(), username, email, password)
	if !res.Success {
		h.render(w, r, h.templates.Register, "Register", "register", AuthPageData{Username: username, Email: email, Error: res.Error})
		return
	}
	h.bindBrowser(w, r)
}

// bindBrowser hands the new session to the browser that logged in
func (h *Handlers) bindBrowser(w http.ResponseWriter, r *http.Request) {
	if err := h.Browsers.Bind(r.Context(), w); err != nil {
		h.Log.Error("Failed to bind session to browser", "error", err)
		h.Session.Logout(r.Context())
		http.Error(w, "Could not start a session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/races", http.StatusFound)
}

// handleLogout clears the session and every open prediction, then goes
// home. Only the browser that logged in can log out.
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if h.Browsers.Owns(r) {
		h.Session.Logout(r.Context())
		h.Predictions.DiscardAll()
		h.Admin.Reset()
		h.Browsers.Release(r.Context(), w)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// SessionResponse is the JSON body of GET /api/session
type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	Loading       bool         `json:"loading"`
	User          *models.User `json:"user"`
	Theme         theme.Theme  `json:"theme"`
}

// handleSession returns the caller's session without the token
func (h *Handlers) handleSession(w http.ResponseWriter, r *http.Request) {
	snap := h.SessionFor(r)
	respondOK(w, SessionResponse{
		Authenticated: snap.Authenticated(),
		Loading:       snap.Loading,
		User:          snap.User,
		Theme:         h.themeFor(snap),
	})
}
