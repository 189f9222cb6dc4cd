// Package session holds the authenticated session shared by every view:
// the token, the user profile derived from it, and whether the first
// resolution is still in progress.
package session

import (
	"context"
	"sync"

	"github.com/abrezinsky/f1bet/internal/errors"
	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/repository"
	"github.com/abrezinsky/f1bet/internal/theme"
)

const (
	loginFailed    = "Login failed"
	registerFailed = "Registration failed"
)

// Client is the part of the backend API the session needs
type Client interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, username, email, password string) (string, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	UpdatePreferences(ctx context.Context, prefs models.Preferences) (*models.User, error)
}

// Session is an immutable snapshot of the store. An empty Token implies a
// nil User.
type Session struct {
	Token   string       `json:"-"`
	User    *models.User `json:"user"`
	Loading bool         `json:"loading"`
}

// Authenticated reports whether a user is logged in
func (s Session) Authenticated() bool {
	return s.User != nil
}

// IsAdmin reports whether the logged in user is an administrator
func (s Session) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin
}

// Result is the outcome of a login or registration attempt
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Store owns the session. It is safe for concurrent use. The backend client
// reads Token on every request, so the store never calls the client while
// holding its lock.
type Store struct {
	log    logger.Logger
	client Client
	repo   repository.TokenRepository

	mu         sync.Mutex
	token      string
	user       *models.User
	loading    bool
	fetchedFor string

	notifyMu sync.Mutex
	subs     map[int]func(Session)
	nextSub  int

	theme theme.Memo
}

// New creates a store that is loading until Start resolves it
func New(log logger.Logger, client Client, repo repository.TokenRepository) *Store {
	return &Store{
		log:     log,
		client:  client,
		repo:    repo,
		loading: true,
		subs:    make(map[int]func(Session)),
	}
}

// Start restores the persisted token and resolves the session
func (s *Store) Start(ctx context.Context) {
	token, err := s.repo.LoadToken(ctx)
	if err != nil {
		s.log.Warn("Failed to load persisted token", "error", err)
		token = ""
	}

	if token == "" {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.notify()
		return
	}

	s.log.Debug("Restoring persisted session")
	s.setToken(ctx, token)
}

// Login exchanges credentials for a token. Failures are reported in the
// Result, never as an error.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	token, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.log.Info("Login failed", "error", err)
		return Result{Error: errors.MessageOf(err, loginFailed)}
	}
	s.persist(ctx, token)
	s.setToken(ctx, token)
	return Result{Success: true}
}

// Register creates an account and logs it in
func (s *Store) Register(ctx context.Context, username, email, password string) Result {
	token, err := s.client.Register(ctx, username, email, password)
	if err != nil {
		s.log.Info("Registration failed", "error", err)
		return Result{Error: errors.MessageOf(err, registerFailed)}
	}
	s.persist(ctx, token)
	s.setToken(ctx, token)
	return Result{Success: true}
}

func (s *Store) persist(ctx context.Context, token string) {
	if err := s.repo.SaveToken(ctx, token); err != nil {
		// the session still works for this process
		s.log.Warn("Failed to persist token", "error", err)
	}
}

// setToken installs a new token and fetches its user once per token value
func (s *Store) setToken(ctx context.Context, token string) {
	s.mu.Lock()
	if s.fetchedFor == token && s.token == token {
		s.mu.Unlock()
		return
	}
	s.token = token
	s.user = nil
	s.loading = true
	s.fetchedFor = token
	s.mu.Unlock()
	s.notify()

	s.FetchUser(ctx)
}

// Logout clears the persisted token and the in-memory session. Calling it
// again is a no-op.
func (s *Store) Logout(ctx context.Context) {
	if err := s.repo.ClearToken(ctx); err != nil {
		s.log.Warn("Failed to clear persisted token", "error", err)
	}

	s.mu.Lock()
	changed := s.token != "" || s.user != nil || s.loading
	s.token = ""
	s.user = nil
	s.loading = false
	s.fetchedFor = ""
	s.mu.Unlock()

	if changed {
		s.log.Info("Logged out")
		s.notify()
	}
}

// ExpireIfCurrent logs out only while token is still the session's token.
// A rejection that arrives after another login leaves that login alone.
func (s *Store) ExpireIfCurrent(ctx context.Context, token string) {
	if token == "" || s.Token() != token {
		s.log.Debug("Ignoring rejection of a replaced token")
		return
	}
	s.Logout(ctx)
}

// FetchUser loads the profile for the current token. Any failure logs the
// session out. A response for a token that has since been replaced is
// dropped.
func (s *Store) FetchUser(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		s.Logout(ctx)
		return errors.Unauthorized("not logged in")
	}

	user, err := s.client.CurrentUser(ctx)

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		s.log.Debug("Dropping user response for a replaced token")
		return err
	}
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("Failed to fetch user, logging out", "error", err)
		s.ExpireIfCurrent(ctx, token)
		return err
	}
	s.user = user
	s.loading = false
	s.mu.Unlock()

	s.log.Debug("User loaded", "user", user.Username, "admin", user.IsAdmin)
	s.notify()
	return nil
}

// RefreshUser re-fetches the profile so every view sees server-side changes
// such as a new avatar
func (s *Store) RefreshUser(ctx context.Context) error {
	return s.FetchUser(ctx)
}

// UpdatePreferences saves the preferences and replaces the cached user with
// the server's copy. It reports whether the update succeeded.
func (s *Store) UpdatePreferences(ctx context.Context, prefs models.Preferences) bool {
	token := s.Token()
	if token == "" {
		return false
	}

	user, err := s.client.UpdatePreferences(ctx, prefs)
	if err != nil {
		s.log.Warn("Failed to update preferences", "error", err)
		if errors.Is(err, errors.ErrUnauthorized) {
			s.ExpireIfCurrent(ctx, token)
		}
		return false
	}

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return false
	}
	s.user = user
	s.mu.Unlock()

	s.notify()
	return true
}

// Token returns the current token, or "" when logged out
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Snapshot returns a copy of the current session
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Session{Token: s.token, Loading: s.loading}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// Theme returns the current user's theme, recomputed only when the user or
// their preference changes
func (s *Store) Theme() theme.Theme {
	return ThemeFor(&s.theme, s.Snapshot())
}

// ThemeFor resolves a snapshot's theme through a memo
func ThemeFor(memo *theme.Memo, snap Session) theme.Theme {
	if snap.User == nil {
		return memo.Get("", "")
	}
	return memo.Get(snap.User.ID, snap.User.Preferences.Theme)
}

// Subscribe registers fn to receive every new snapshot and returns a
// function that removes it. fn must not call back into the store's
// mutating methods.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.notifyMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.notifyMu.Lock()
			delete(s.subs, id)
			s.notifyMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if len(s.subs) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.subs {
		fn(snap)
	}
}
