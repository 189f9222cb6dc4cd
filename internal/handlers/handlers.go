package handlers

import (
	"context"
	"crypto/rand"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/services"
	"github.com/abrezinsky/f1bet/internal/session"
	"github.com/abrezinsky/f1bet/internal/theme"
	"github.com/abrezinsky/f1bet/internal/websocket"
)

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// SessionStore is the session surface the pages need
type SessionStore interface {
	Snapshot() session.Session
	Theme() theme.Theme
	Login(ctx context.Context, email, password string) session.Result
	Register(ctx context.Context, username, email, password string) session.Result
	Logout(ctx context.Context)
}

// BrowserBinding ties the session to the browser that logged in
type BrowserBinding interface {
	Owns(r *http.Request) bool
	Bind(ctx context.Context, w http.ResponseWriter) error
	Release(ctx context.Context, w http.ResponseWriter)
}

// Page is the data passed to every page template. Data holds the page's
// own view.
type Page struct {
	Title     string
	ActiveNav string
	Session   session.Session
	Theme     theme.Theme
	AssetBase string
	CSRFField template.HTML
	CSRFToken string
	Data      interface{}
}

// Templates holds all parsed HTML templates
type Templates struct {
	Home     *template.Template
	Login    *template.Template
	Register *template.Template
	Races    *template.Template
	Predict  *template.Template
	Ranking  *template.Template
	Profile  *template.Template
	Admin    *template.Template
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Session      SessionStore
	Browsers     BrowserBinding
	Races        services.RaceServicer
	Ranking      services.RankingServicer
	Profile      services.ProfileServicer
	Predictions  services.PredictionServicer
	Admin        services.AdminServicer
	Hub          *websocket.Hub
	Log          logger.Logger
	AssetBase    string // origin of backend-relative asset paths such as avatars
	templates    *Templates
	staticServer http.Handler
	csrfKey      []byte
}

// New creates a new Handlers instance with all dependencies
func New(
	store SessionStore,
	browsers BrowserBinding,
	races services.RaceServicer,
	ranking services.RankingServicer,
	profile services.ProfileServicer,
	predictions services.PredictionServicer,
	admin services.AdminServicer,
	templatesFS fs.FS,
	staticServer http.Handler,
	hub *websocket.Hub,
	log logger.Logger,
) (*Handlers, error) {
	templates, err := loadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	// forms from a previous run fail the check and are reloaded
	csrfKey := make([]byte, 32)
	if _, err := rand.Read(csrfKey); err != nil {
		return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
	}

	return &Handlers{
		Session:      store,
		Browsers:     browsers,
		Races:        races,
		Ranking:      ranking,
		Profile:      profile,
		Predictions:  predictions,
		Admin:        admin,
		Hub:          hub,
		Log:          log,
		templates:    templates,
		staticServer: staticServer,
		csrfKey:      csrfKey,
	}, nil
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"asset": func(base, path string) string {
		if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			return path
		}
		return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	},
}

// loadTemplates parses all templates once at startup. Every page is the
// shared layout plus its own content block.
func loadTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{}
	pages := []struct {
		name string
		dst  **template.Template
	}{
		{"home.html", &t.Home},
		{"login.html", &t.Login},
		{"register.html", &t.Register},
		{"races.html", &t.Races},
		{"predict.html", &t.Predict},
		{"ranking.html", &t.Ranking},
		{"profile.html", &t.Profile},
		{"admin.html", &t.Admin},
	}

	for _, p := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "layout.html", p.name)
		if err != nil {
			return nil, fmt.Errorf("%s template: %w", p.name, err)
		}
		*p.dst = tmpl
	}
	return t, nil
}

// SessionFor returns the session as the browser that sent r sees it. Only
// the browser that logged in sees the user; any other browser is anonymous.
func (h *Handlers) SessionFor(r *http.Request) session.Session {
	snap := h.Session.Snapshot()
	if snap.Token == "" || h.Browsers.Owns(r) {
		return snap
	}
	return session.Session{}
}

func (h *Handlers) themeFor(snap session.Session) theme.Theme {
	if snap.User == nil {
		return theme.Default()
	}
	return h.Session.Theme()
}

// render executes a page template inside the layout
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, title, nav string, data interface{}) {
	snap := h.SessionFor(r)
	page := Page{
		Title:     title,
		ActiveNav: nav,
		Session:   snap,
		Theme:     h.themeFor(snap),
		AssetBase: h.AssetBase,
		CSRFField: csrf.TemplateField(r),
		CSRFToken: csrf.Token(r),
		Data:      data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", page); err != nil {
		h.Log.Error("Failed to render page", "page", title, "error", err)
	}
}
