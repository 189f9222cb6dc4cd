package services_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/repository/mock"
	"github.com/abrezinsky/f1bet/internal/services"
	"github.com/abrezinsky/f1bet/internal/testutil"
	"github.com/abrezinsky/f1bet/pkg/f1api"
)

// ==================== Races ====================

func TestRaceService_ListRaces(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	settings := services.NewSettingsService(logger.Nop(), repo)
	ctx := context.Background()

	svc := services.NewRaceService(logger.Nop(), testutil.NewBackend(), settings)
	listing := svc.ListRaces(ctx)
	if len(listing.Races) != 2 || listing.Empty != "" || listing.Error != "" {
		t.Errorf("expected two races, got %+v", listing)
	}

	empty := services.NewRaceService(logger.Nop(), f1api.NewMockClient(), settings)
	if got := empty.ListRaces(ctx); got.Empty != services.MsgRacesEmpty {
		t.Errorf("expected empty message, got %+v", got)
	}

	failing := services.NewRaceService(logger.Nop(),
		f1api.NewMockClient(f1api.WithError("ListRaces", stderrors.New("connection refused"))), settings)
	if got := failing.ListRaces(ctx); got.Error != services.MsgRacesError {
		t.Errorf("expected error message, got %+v", got)
	}
}

func TestRaceService_ListRaces_FlagsIndependent(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	odd := models.Race{ID: "r9", Name: "Imola", IsPredictionOpen: true, IsRaceCompleted: true}
	svc := services.NewRaceService(logger.Nop(), f1api.NewMockClient(f1api.WithRaces(odd)),
		services.NewSettingsService(logger.Nop(), repo))

	listing := svc.ListRaces(context.Background())
	if !listing.Races[0].IsPredictionOpen || !listing.Races[0].IsRaceCompleted {
		t.Errorf("flags must pass through untouched, got %+v", listing.Races[0])
	}
}

func TestRaceService_RaceQR(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	settings := services.NewSettingsService(logger.Nop(), repo)
	svc := services.NewRaceService(logger.Nop(), testutil.NewBackend(), settings)
	ctx := context.Background()

	if _, err := svc.RaceQR(ctx, testutil.OpenRace.ID); err != services.ErrBaseURLNotConfigured {
		t.Errorf("expected ErrBaseURLNotConfigured, got %v", err)
	}
	if _, err := svc.RaceQR(ctx, ""); err != services.ErrRaceIDRequired {
		t.Errorf("expected ErrRaceIDRequired, got %v", err)
	}

	settings.SetBaseURL(ctx, "http://192.168.1.10:8080/")
	png, err := svc.RaceQR(ctx, testutil.OpenRace.ID)
	if err != nil {
		t.Fatalf("RaceQR failed: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("expected PNG data")
	}
}

func TestRaceService_RaceQR_SettingsError(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.GetSettingError = stderrors.New("database is locked")
	svc := services.NewRaceService(logger.Nop(), testutil.NewBackend(),
		services.NewSettingsService(logger.Nop(), repo))

	if _, err := svc.RaceQR(context.Background(), testutil.OpenRace.ID); err == nil {
		t.Error("expected settings error to propagate")
	}
}

// ==================== Ranking ====================

func TestRankingService(t *testing.T) {
	ctx := context.Background()

	svc := services.NewRankingService(logger.Nop(), testutil.NewBackend())
	ranking := svc.Ranking(ctx)
	if len(ranking.Users) != 2 || ranking.Users[0].ID != testutil.Alice.ID {
		t.Errorf("expected alice first, got %+v", ranking.Users)
	}

	empty := services.NewRankingService(logger.Nop(), f1api.NewMockClient())
	if got := empty.Ranking(ctx); got.Empty != services.MsgRankingEmpty || len(got.Users) != 0 {
		t.Errorf("expected empty-state message, got %+v", got)
	}

	failing := services.NewRankingService(logger.Nop(),
		f1api.NewMockClient(f1api.WithError("Ranking", &f1api.APIError{Status: http.StatusInternalServerError})))
	if got := failing.Ranking(ctx); got.Error != services.MsgRankingError {
		t.Errorf("expected error message, got %+v", got)
	}
}

// ==================== Profile ====================

func setupProfile(t *testing.T, opts ...f1api.MockOption) (*services.ProfileService, *f1api.MockClient, func()) {
	t.Helper()
	opts = append([]f1api.MockOption{f1api.WithUser(testutil.Alice)}, opts...)
	store, client := setupSession(t, opts...)
	svc := services.NewProfileService(logger.Nop(), client, store)
	return svc, client, func() { login(t, store) }
}

func TestProfile_RequiresLogin(t *testing.T) {
	svc, client, _ := setupProfile(t)

	view := svc.Load(context.Background(), testutil.Alice.ID)

	if view.Error != services.MsgLoginToViewProfile {
		t.Errorf("expected login message, got %+v", view)
	}
	if client.TotalCalls() != 0 {
		t.Errorf("expected no backend calls, got %d", client.TotalCalls())
	}
}

func TestProfile_OwnerWithHistory(t *testing.T) {
	history := []models.Prediction{{
		ID:              "p1",
		Race:            models.RaceRef{ID: testutil.ClosedRace.ID, Race: &testutil.ClosedRace},
		PredictedWinner: "Max Verstappen",
		PredictedSecond: "Lando Norris",
		PredictedThird:  "Oscar Piastri",
		Score:           15,
	}}
	svc, _, doLogin := setupProfile(t, f1api.WithHistory(testutil.Alice.ID, history...))
	doLogin()

	view := svc.Load(context.Background(), testutil.Alice.ID)

	if view.Error != "" || view.Empty != "" {
		t.Fatalf("unexpected messages: %+v", view)
	}
	if !view.IsOwner {
		t.Error("expected owner flag on own profile")
	}
	if len(view.History) != 1 || view.History[0].Race.Race.Name != testutil.ClosedRace.Name {
		t.Errorf("unexpected history: %+v", view.History)
	}
	if view.Selected.ID != "default" {
		t.Errorf("expected default theme selected, got %q", view.Selected.ID)
	}
}

func TestProfile_OtherUserEmptyHistory(t *testing.T) {
	svc, _, doLogin := setupProfile(t)
	doLogin()

	view := svc.Load(context.Background(), testutil.Admin.ID)

	if view.IsOwner {
		t.Error("another user's profile is not owned")
	}
	if view.Empty != services.MsgHistoryEmpty {
		t.Errorf("expected empty-history message, got %+v", view)
	}
	if view.User == nil || !view.User.IsAdmin {
		t.Errorf("expected admin user loaded, got %+v", view.User)
	}
}

func TestProfile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		opts   []f1api.MockOption
		userID string
		want   string
	}{
		{"forbidden", []f1api.MockOption{f1api.WithForbiddenHistory(testutil.Admin.ID)}, testutil.Admin.ID, services.MsgProfileForbidden},
		{"not found", nil, "ghost", services.MsgProfileNotFound},
		{"server error", []f1api.MockOption{f1api.WithError("UserPredictions", &f1api.APIError{Status: http.StatusInternalServerError})}, testutil.Admin.ID, services.MsgProfileError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, doLogin := setupProfile(t, tt.opts...)
			doLogin()

			view := svc.Load(context.Background(), tt.userID)

			if view.Error != tt.want {
				t.Errorf("expected %q, got %q", tt.want, view.Error)
			}
		})
	}
}

func TestProfile_UploadAvatarRefreshesSession(t *testing.T) {
	store, client := setupSession(t, f1api.WithUser(testutil.Alice))
	login(t, store)
	svc := services.NewProfileService(logger.Nop(), client, store)
	fetchesBefore := client.CallCount("CurrentUser")

	res := svc.UploadAvatar(context.Background(), "helmet.png", bytes.NewReader([]byte("\x89PNG\r\n")))

	if res.Error != "" || res.ProfilePicture != "/uploads/helmet.png" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if client.CallCount("CurrentUser") != fetchesBefore+1 {
		t.Error("expected the session to re-fetch the user")
	}
	if got := store.Snapshot().User.ProfilePicture; got != "/uploads/helmet.png" {
		t.Errorf("expected new avatar in session, got %q", got)
	}
}

func TestProfile_UploadAvatarFailure(t *testing.T) {
	svc, client, doLogin := setupProfile(t)
	doLogin()
	client.SetError("UploadProfilePicture", &f1api.APIError{Status: http.StatusBadRequest, Message: "Only images are allowed"})

	res := svc.UploadAvatar(context.Background(), "notes.txt", bytes.NewReader([]byte("hello")))

	if res.Error != "Only images are allowed" || res.Success != "" {
		t.Errorf("expected server message, got %+v", res)
	}
}

func TestProfile_SetTheme(t *testing.T) {
	store, client := setupSession(t, f1api.WithUser(testutil.Alice))
	login(t, store)
	svc := services.NewProfileService(logger.Nop(), client, store)
	ctx := context.Background()

	if svc.SetTheme(ctx, "brawn") {
		t.Error("unknown themes should be rejected")
	}
	if client.CallCount("UpdatePreferences") != 0 {
		t.Error("unknown themes must not reach the backend")
	}

	if !svc.SetTheme(ctx, "astonmartin") {
		t.Fatal("expected theme saved")
	}
	if store.Theme().ID != "astonmartin" {
		t.Errorf("expected session theme updated, got %q", store.Theme().ID)
	}
}

// ==================== Settings ====================

func TestSettingsService(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Nop(), repo)
	ctx := context.Background()

	if url, err := svc.GetBaseURL(ctx); err != nil || url != "" {
		t.Errorf("expected unset base URL, got %q err=%v", url, err)
	}
	svc.SetBaseURL(ctx, "http://10.0.0.2:8080")
	svc.SetAPIURL(ctx, "http://localhost:5000/api")

	if url, _ := svc.GetBaseURL(ctx); url != "http://10.0.0.2:8080" {
		t.Errorf("unexpected base URL %q", url)
	}
	if url, _ := svc.GetAPIURL(ctx); url != "http://localhost:5000/api" {
		t.Errorf("unexpected API URL %q", url)
	}
}

func TestSettingsService_DatabaseError(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.GetSettingError = stderrors.New("database is locked")
	svc := services.NewSettingsService(logger.Nop(), repo)

	if _, err := svc.GetAPIURL(context.Background()); err == nil {
		t.Error("expected database error to propagate")
	}
}
