package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/f1bet/internal/auth"
	"github.com/abrezinsky/f1bet/internal/cli"
	"github.com/abrezinsky/f1bet/internal/handlers"
	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/repository"
	"github.com/abrezinsky/f1bet/internal/services"
	"github.com/abrezinsky/f1bet/internal/session"
	"github.com/abrezinsky/f1bet/internal/watcher"
	"github.com/abrezinsky/f1bet/internal/websocket"
	"github.com/abrezinsky/f1bet/pkg/f1api"
)

var errNotLoggedIn = errors.New("not logged in")

// Options holds the settings New needs
type Options struct {
	DBPath    string
	APIURL    string
	WatchCron string
}

// App holds all application dependencies
type App struct {
	log         logger.Logger
	handlers    *handlers.Handlers
	repo        *repository.Repository
	client      f1api.Client
	store       *session.Store
	watcher     *watcher.Watcher
	unsubscribe func()
}

// New creates and initializes a new application instance. The session is
// restored from the database before New returns.
func New(log logger.Logger, opts Options, client f1api.Client, templatesFS, staticFS fs.FS) (*App, error) {
	repo, err := repository.New(opts.DBPath)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	settingsService := services.NewSettingsService(log, repo)
	if opts.APIURL != "" {
		client.SetBaseURL(opts.APIURL)
		if err := settingsService.SetAPIURL(ctx, opts.APIURL); err != nil {
			log.Warn("Failed to remember API URL", "error", err)
		}
	}

	store := session.New(log, client, repo)
	client.SetTokenSource(store)

	browsers := auth.New(log, repo)
	if err := browsers.Load(ctx); err != nil {
		log.Warn("Failed to restore browser binding, log in again", "error", err)
	}

	// Initialize WebSocket hub before the session resolves so the first
	// snapshot reaches connected pages
	hub := websocket.New(log, store, browsers)
	hub.Start()
	unsubscribe := store.Subscribe(hub.BroadcastSession)
	store.Start(ctx)

	raceService := services.NewRaceService(log, client, settingsService)
	rankingService := services.NewRankingService(log, client)
	profileService := services.NewProfileService(log, client, store)
	predictionService := services.NewPredictionService(log, client, store)
	adminService := services.NewAdminService(log, client, store)

	w, err := watcher.New(log, client, repo, hub, opts.WatchCron)
	if err != nil {
		unsubscribe()
		repo.Close()
		return nil, err
	}

	staticServer := handlers.NewStaticServer(staticFS)

	h, err := handlers.New(
		store,
		browsers,
		raceService,
		rankingService,
		profileService,
		predictionService,
		adminService,
		templatesFS,
		staticServer,
		hub,
		log,
	)
	if err != nil {
		unsubscribe()
		repo.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}
	h.AssetBase = assetOrigin(client.BaseURL())

	return &App{
		log:         log,
		handlers:    h,
		repo:        repo,
		client:      client,
		store:       store,
		watcher:     w,
		unsubscribe: unsubscribe,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close stops background work and releases the database
func (a *App) Close() {
	if a.watcher != nil {
		a.watcher.Stop()
		a.watcher = nil
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
		a.repo = nil
	}
}

// Run starts the race watcher and the HTTP server
func (a *App) Run(addr string) error {
	// Set default base URL if not configured, using detected LAN IP
	baseURL := publicURL(addr, realNetworkProvider{})
	a.setDefaultBaseURL(baseURL)

	a.watcher.Start()

	a.log.Info("Client starting", "url", baseURL, "api", a.client.BaseURL())
	if !isLoopback(addr) {
		a.log.Info("Client reachable from the network; other devices log in on their own")
	}
	return http.ListenAndServe(addr, a.Router())
}

// PrintRaces writes the race calendar to w
func (a *App) PrintRaces(ctx context.Context, w io.Writer) error {
	races, err := a.client.ListRaces(ctx)
	if err != nil {
		return err
	}
	cli.Races(w, races, time.Now())
	return nil
}

// PrintRanking writes the leaderboard to w
func (a *App) PrintRanking(ctx context.Context, w io.Writer) error {
	users, err := a.client.Ranking(ctx)
	if err != nil {
		return err
	}
	cli.Ranking(w, users)
	return nil
}

// PrintHistory writes the signed-in user's prediction history to w
func (a *App) PrintHistory(ctx context.Context, w io.Writer) error {
	snap := a.store.Snapshot()
	if snap.User == nil {
		return errNotLoggedIn
	}
	preds, err := a.client.UserPredictions(ctx, snap.User.ID)
	if err != nil {
		return err
	}
	cli.History(w, preds)
	return nil
}

// setDefaultBaseURL sets the base URL setting if not already configured
// or if current value uses localhost (which isn't useful for QR codes)
func (a *App) setDefaultBaseURL(baseURL string) {
	ctx := context.Background()
	existing, _ := a.repo.GetSetting(ctx, "base_url")

	needsUpdate := existing == "" || strings.Contains(existing, "localhost")
	if needsUpdate {
		if err := a.repo.SetSetting(ctx, "base_url", baseURL); err != nil {
			a.log.Warn("Failed to set default base_url", "error", err)
		} else {
			a.log.Info("Default base URL set", "url", baseURL)
		}
	}
}

// LocalURL returns the URL a browser on this machine opens for addr
func LocalURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || isLoopback(addr) || isWildcard(host) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// publicURL returns the URL encoded in QR codes. A wildcard listen address
// is shared by its LAN IP; a loopback one only reaches this machine.
func publicURL(addr string, provider networkProvider) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch {
	case host == "" || isWildcard(host):
		host = getPreferredIP(provider)
	case isLoopback(addr):
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func isWildcard(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.IsUnspecified()
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// assetOrigin returns scheme://host of the API URL. Uploaded files such as
// avatars are served from the backend root, not under /api.
func assetOrigin(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSuffix(strings.TrimSuffix(apiURL, "/"), "/api")
	}
	return u.Scheme + "://" + u.Host
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider lists network interfaces
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the address phones on the same network should use
// to reach the client. Private IPv4 ranges win; localhost is the fallback.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}
