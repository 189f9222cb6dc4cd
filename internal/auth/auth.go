// Package auth ties the backend session to the browser that logged in.
// Other browsers on the network reach the same client but never act as
// that user.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/repository"
)

const (
	CookieName   = "f1bet_browser"
	SettingKey   = "browser_key"
	CookieExpiry = 30 * 24 * time.Hour
)

// Binding remembers the key of the browser that owns the session. The key
// is kept in an HttpOnly cookie on that browser and in the settings table,
// so a restarted client still recognizes it.
type Binding struct {
	log  logger.Logger
	repo repository.SettingsRepository

	mu  sync.RWMutex
	key string
}

// New creates an unbound Binding
func New(log logger.Logger, repo repository.SettingsRepository) *Binding {
	return &Binding{log: log, repo: repo}
}

// Load restores the persisted browser key
func (b *Binding) Load(ctx context.Context) error {
	key, err := b.repo.GetSetting(ctx, SettingKey)
	if err == repository.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.key = key
	b.mu.Unlock()
	return nil
}

// Bind hands the session to the browser behind w. Any previously bound
// browser loses it.
func (b *Binding) Bind(ctx context.Context, w http.ResponseWriter) error {
	key, err := generateKey()
	if err != nil {
		return err
	}
	if err := b.repo.SetSetting(ctx, SettingKey, key); err != nil {
		// the binding still holds for this process
		b.log.Warn("Failed to persist browser key", "error", err)
	}

	b.mu.Lock()
	b.key = key
	b.mu.Unlock()

	SetSessionCookie(w, key)
	b.log.Debug("Session bound to browser")
	return nil
}

// Release unbinds the session and clears the cookie on w
func (b *Binding) Release(ctx context.Context, w http.ResponseWriter) {
	b.mu.Lock()
	b.key = ""
	b.mu.Unlock()

	if err := b.repo.DeleteSetting(ctx, SettingKey); err != nil {
		b.log.Warn("Failed to clear browser key", "error", err)
	}
	ClearSessionCookie(w)
}

// Key returns the browser key r carries, or ""
func (b *Binding) Key(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Matches reports whether key is the bound browser's key
func (b *Binding) Matches(key string) bool {
	b.mu.RLock()
	current := b.key
	b.mu.RUnlock()

	if key == "" || current == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(current)) == 1
}

// Owns reports whether r was sent by the bound browser
func (b *Binding) Owns(r *http.Request) bool {
	return b.Matches(b.Key(r))
}

// SetSessionCookie sets the browser cookie on the response
func SetSessionCookie(w http.ResponseWriter, key string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(CookieExpiry.Seconds()),
	})
}

// ClearSessionCookie removes the browser cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// generateKey creates a random browser key
func generateKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
