package session_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"testing"

	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/repository"
	"github.com/abrezinsky/f1bet/internal/repository/mock"
	"github.com/abrezinsky/f1bet/internal/session"
	"github.com/abrezinsky/f1bet/internal/testutil"
	"github.com/abrezinsky/f1bet/pkg/f1api"
)

// setupStore wires a store to a mock backend the same way app.New does
func setupStore(t *testing.T, repo repository.TokenRepository, opts ...f1api.MockOption) (*session.Store, *f1api.MockClient) {
	t.Helper()
	client := testutil.NewBackend(opts...)
	store := session.New(logger.Nop(), client, repo)
	client.SetTokenSource(store)
	return store, client
}

func TestStart_NoPersistedToken(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	store, client := setupStore(t, repo)

	if !store.Snapshot().Loading {
		t.Fatal("store should be loading before Start")
	}

	store.Start(context.Background())

	snap := store.Snapshot()
	if snap.Loading || snap.User != nil || snap.Token != "" {
		t.Errorf("expected resolved anonymous session, got %+v", snap)
	}
	if client.TotalCalls() != 0 {
		t.Errorf("expected no backend calls, got %d", client.TotalCalls())
	}
}

func TestStart_RestoresPersistedToken(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	repo.SaveToken(ctx, "mock-token")

	store, client := setupStore(t, repo, f1api.WithUser(testutil.Alice))
	store.Start(ctx)

	snap := store.Snapshot()
	if snap.Loading {
		t.Error("expected loading to resolve")
	}
	if snap.User == nil || snap.User.ID != testutil.Alice.ID {
		t.Fatalf("expected alice, got %+v", snap.User)
	}
	if client.CallCount("CurrentUser") != 1 {
		t.Errorf("expected exactly one user fetch, got %d", client.CallCount("CurrentUser"))
	}
}

func TestStart_ExpiredTokenLogsOut(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	repo.SaveToken(ctx, "expired-token")

	store, _ := setupStore(t, repo, f1api.WithUser(testutil.Alice))
	store.Start(ctx)

	snap := store.Snapshot()
	if snap.Loading || snap.User != nil || snap.Token != "" {
		t.Errorf("expected cleared session after 401, got %+v", snap)
	}
	token, _ := repo.LoadToken(ctx)
	if token != "" {
		t.Errorf("expected persisted token cleared, got %q", token)
	}
}

func TestStart_LoadTokenErrorResolvesAnonymous(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.LoadTokenError = stderrors.New("disk I/O error")

	store, _ := setupStore(t, repo)
	store.Start(context.Background())

	if snap := store.Snapshot(); snap.Loading || snap.User != nil {
		t.Errorf("expected anonymous session, got %+v", snap)
	}
}

func TestLogin_Success(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	store, client := setupStore(t, repo, f1api.WithUser(testutil.Alice))
	store.Start(ctx)

	result := store.Login(ctx, "alice@example.com", "secret")
	if !result.Success || result.Error != "" {
		t.Fatalf("expected success, got %+v", result)
	}

	snap := store.Snapshot()
	if snap.Token != "mock-token" || snap.User == nil || snap.User.Username != "alice" {
		t.Errorf("unexpected session after login: %+v", snap)
	}
	persisted, _ := repo.LoadToken(ctx)
	if persisted != "mock-token" {
		t.Errorf("expected token persisted, got %q", persisted)
	}

	// token attached to the user fetch
	seen := client.SeenTokens()
	if seen[len(seen)-1] != "mock-token" {
		t.Errorf("expected token on user fetch, got %v", seen)
	}
}

func TestLogin_FetchesUserOncePerToken(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	store, client := setupStore(t, repo, f1api.WithUser(testutil.Alice))
	store.Start(ctx)

	store.Login(ctx, "alice@example.com", "secret")
	store.Login(ctx, "alice@example.com", "secret")

	if n := client.CallCount("CurrentUser"); n != 1 {
		t.Errorf("expected one user fetch for one token value, got %d", n)
	}
}

func TestLogin_ServerMessage(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	store, _ := setupStore(t, repo, f1api.WithError("Login",
		&f1api.APIError{Status: http.StatusBadRequest, Message: "Invalid credentials"}))

	result := store.Login(context.Background(), "alice@example.com", "wrong")
	if result.Success || result.Error != "Invalid credentials" {
		t.Errorf("expected server message, got %+v", result)
	}
	if store.Token() != "" {
		t.Error("failed login must not set a token")
	}
}

func TestLogin_DefaultMessage(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	store, _ := setupStore(t, repo, f1api.WithError("Login", stderrors.New("connection refused")))

	result := store.Login(context.Background(), "alice@example.com", "secret")
	if result.Success || result.Error != "Login failed" {
		t.Errorf("expected default message, got %+v", result)
	}
}

func TestRegister_DefaultMessage(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	store, _ := setupStore(t, repo, f1api.WithError("Register",
		&f1api.APIError{Status: http.StatusInternalServerError}))

	result := store.Register(context.Background(), "newbie", "new@example.com", "pw")
	if result.Success || result.Error != "Registration failed" {
		t.Errorf("expected default message, got %+v", result)
	}
}

func TestRegister_LogsIn(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	store, _ := setupStore(t, repo)
	store.Start(ctx)

	result := store.Register(ctx, "newbie", "new@example.com", "pw")
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if snap := store.Snapshot(); snap.User == nil || snap.User.Username != "newbie" {
		t.Errorf("expected new user in session, got %+v", snap.User)
	}
}

func TestLogin_PersistFailureKeepsSession(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.SaveTokenError = stderrors.New("read-only database")
	ctx := context.Background()
	store, _ := setupStore(t, repo, f1api.WithUser(testutil.Alice))

	if result := store.Login(ctx, "alice@example.com", "secret"); !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if !store.Snapshot().Authenticated() {
		t.Error("session should work for this process even when persistence fails")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	store, _ := setupStore(t, repo, f1api.WithUser(testutil.Alice))
	store.Start(ctx)
	store.Login(ctx, "alice@example.com", "secret")

	var notifications int
	store.Subscribe(func(session.Session) { notifications++ })

	store.Logout(ctx)
	store.Logout(ctx)

	snap := store.Snapshot()
	if snap.Token != "" || snap.User != nil || snap.Loading {
		t.Errorf("expected logged out session, got %+v", snap)
	}
	if notifications != 1 {
		t.Errorf("second logout should not notify, got %d notifications", notifications)
	}
	token, _ := repo.LoadToken(ctx)
	if token != "" {
		t.Errorf("expected persisted token cleared, got %q", token)
	}
}

func TestExpireIfCurrent(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	store, client := setupStore(t, repo, f1api.WithUser(testutil.Alice))
	store.Start(ctx)
	store.Login(ctx, "alice@example.com", "secret")
	stale := store.Token()

	client.SetIssuedToken("second-token")
	store.Login(ctx, "alice@example.com", "secret")

	store.ExpireIfCurrent(ctx, stale)
	store.ExpireIfCurrent(ctx, "")
	if snap := store.Snapshot(); snap.Token != "second-token" || !snap.Authenticated() {
		t.Fatalf("a stale token must not end the newer session, got %+v", snap)
	}

	store.ExpireIfCurrent(ctx, "second-token")
	if store.Snapshot().Token != "" {
		t.Error("expected the current token to expire")
	}
	if token, _ := repo.LoadToken(ctx); token != "" {
		t.Errorf("expected persisted token cleared, got %q", token)
	}
}

func TestFetchUser_UnauthorizedClearsSession(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	store, client := setupStore(t, repo, f1api.WithUser(testutil.Alice))
	store.Start(ctx)
	store.Login(ctx, "alice@example.com", "secret")

	client.SetError("CurrentUser", &f1api.APIError{Status: http.StatusUnauthorized, Message: "Token is not valid"})
	if err := store.FetchUser(ctx); err == nil {
		t.Fatal("expected FetchUser error")
	}

	snap := store.Snapshot()
	if snap.User != nil || snap.Token != "" || snap.Loading {
		t.Errorf("expected cleared session, got %+v", snap)
	}
}

func TestFetchUser_NetworkErrorClearsSession(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	store, client := setupStore(t, repo, f1api.WithUser(testutil.Alice))
	store.Login(ctx, "alice@example.com", "secret")

	client.SetError("CurrentUser", stderrors.New("connection reset"))
	store.RefreshUser(ctx)

	if store.Snapshot().Authenticated() {
		t.Error("any fetch failure should log out")
	}
}

func TestFetchUser_NoToken(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	store, client := setupStore(t, repo)

	if err := store.FetchUser(context.Background()); err == nil {
		t.Error("expected error without a token")
	}
	if client.TotalCalls() != 0 {
		t.Errorf("expected no backend calls, got %d", client.TotalCalls())
	}
	if store.Snapshot().Loading {
		t.Error("expected loading resolved")
	}
}

func TestUpdatePreferences_ReplacesUser(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	store, _ := setupStore(t, repo, f1api.WithUser(testutil.Alice))
	store.Login(ctx, "alice@example.com", "secret")

	if store.Theme().ID != "default" {
		t.Errorf("expected default theme before a preference, got %q", store.Theme().ID)
	}

	if ok := store.UpdatePreferences(ctx, models.Preferences{Theme: "mclaren"}); !ok {
		t.Fatal("expected UpdatePreferences to succeed")
	}
	if got := store.Snapshot().User.Preferences.Theme; got != "mclaren" {
		t.Errorf("expected server copy with mclaren, got %q", got)
	}
	if store.Theme().ID != "mclaren" {
		t.Errorf("expected mclaren theme, got %q", store.Theme().ID)
	}
}

func TestUpdatePreferences_Failure(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	store, client := setupStore(t, repo, f1api.WithUser(testutil.Alice))

	if store.UpdatePreferences(ctx, models.Preferences{Theme: "ferrari"}) {
		t.Error("expected false without a session")
	}
	if client.TotalCalls() != 0 {
		t.Errorf("expected no backend calls, got %d", client.TotalCalls())
	}

	store.Login(ctx, "alice@example.com", "secret")
	client.SetError("UpdatePreferences", &f1api.APIError{Status: http.StatusInternalServerError})
	if store.UpdatePreferences(ctx, models.Preferences{Theme: "ferrari"}) {
		t.Error("expected false on server error")
	}
	if store.Snapshot().User.Preferences.Theme != "" {
		t.Error("cached user must not change on failure")
	}
}

func TestThemeRoundTrip(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	client := testutil.NewBackend(f1api.WithUser(testutil.Alice))

	first := session.New(logger.Nop(), client, repo)
	client.SetTokenSource(first)
	first.Start(ctx)
	first.Login(ctx, "alice@example.com", "secret")
	first.UpdatePreferences(ctx, models.Preferences{Theme: "williams"})

	// a restarted process restores the token and sees the saved theme
	second := session.New(logger.Nop(), client, repo)
	client.SetTokenSource(second)
	second.Start(ctx)

	if got := second.Snapshot().User.Preferences.Theme; got != "williams" {
		t.Errorf("expected williams pre-selected after reload, got %q", got)
	}
	if second.Theme().ID != "williams" {
		t.Errorf("expected williams theme, got %q", second.Theme().ID)
	}
}

func TestSubscribe(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	store, _ := setupStore(t, repo, f1api.WithUser(testutil.Alice))

	var mu sync.Mutex
	var snaps []session.Session
	unsubscribe := store.Subscribe(func(s session.Session) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})

	store.Start(ctx)
	store.Login(ctx, "alice@example.com", "secret")

	mu.Lock()
	got := len(snaps)
	last := snaps[len(snaps)-1]
	mu.Unlock()
	if got < 2 {
		t.Fatalf("expected notifications for start and login, got %d", got)
	}
	if last.User == nil || last.Loading {
		t.Errorf("last notification should carry the loaded user, got %+v", last)
	}

	unsubscribe()
	unsubscribe()
	store.Logout(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(snaps) != got {
		t.Errorf("expected no notifications after unsubscribe, got %d more", len(snaps)-got)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	store, _ := setupStore(t, repo, f1api.WithUser(testutil.Alice))
	store.Login(ctx, "alice@example.com", "secret")

	snap := store.Snapshot()
	snap.User.Username = "mallory"

	if store.Snapshot().User.Username != "alice" {
		t.Error("mutating a snapshot must not affect the store")
	}
}

func TestSession_Roles(t *testing.T) {
	anon := session.Session{}
	user := session.Session{Token: "t", User: &models.User{ID: "u"}}
	admin := session.Session{Token: "t", User: &models.User{ID: "a", IsAdmin: true}}

	if anon.Authenticated() || anon.IsAdmin() {
		t.Error("anonymous session has no roles")
	}
	if !user.Authenticated() || user.IsAdmin() {
		t.Error("user session is authenticated but not admin")
	}
	if !admin.IsAdmin() {
		t.Error("admin session should be admin")
	}
}
