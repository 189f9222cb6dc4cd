package services_test

import (
	"context"
	"testing"

	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/session"
	"github.com/abrezinsky/f1bet/internal/testutil"
	"github.com/abrezinsky/f1bet/pkg/f1api"
)

// setupSession creates a started session store backed by a mock backend
func setupSession(t *testing.T, opts ...f1api.MockOption) (*session.Store, *f1api.MockClient) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	client := testutil.NewBackend(opts...)
	store := session.New(logger.Nop(), client, repo)
	client.SetTokenSource(store)
	store.Start(context.Background())
	return store, client
}

// login logs the mock backend's user in
func login(t *testing.T, store *session.Store) {
	t.Helper()
	if res := store.Login(context.Background(), "user@example.com", "secret"); !res.Success {
		t.Fatalf("login failed: %s", res.Error)
	}
}
