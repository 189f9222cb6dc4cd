package services

import (
	"context"
	"io"

	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/session"
	"github.com/abrezinsky/f1bet/pkg/f1api"
)

// Session is the part of the session store the services use
type Session interface {
	Snapshot() session.Session
	Token() string
	ExpireIfCurrent(ctx context.Context, token string)
	RefreshUser(ctx context.Context) error
	UpdatePreferences(ctx context.Context, prefs models.Preferences) bool
}

// PredictionClient is the backend surface of the prediction workflow
type PredictionClient interface {
	GetRace(ctx context.Context, raceID string) (*models.Race, error)
	MyPrediction(ctx context.Context, raceID string) (*models.Prediction, error)
	SubmitPrediction(ctx context.Context, req models.PredictionRequest) (*f1api.SubmitResult, error)
}

// AdminClient is the backend surface of the admin workflow
type AdminClient interface {
	ListRaces(ctx context.Context) ([]models.Race, error)
	RecordResult(ctx context.Context, result models.RaceResult) (string, error)
	CalculateScores(ctx context.Context, raceID string) (string, error)
}

// ProfileClient is the backend surface of the profile view
type ProfileClient interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UserPredictions(ctx context.Context, userID string) ([]models.Prediction, error)
	UploadProfilePicture(ctx context.Context, filename string, image io.Reader) (*f1api.UploadResult, error)
}

// RaceServicer defines the interface for race catalog operations
type RaceServicer interface {
	ListRaces(ctx context.Context) RaceListing
	RaceQR(ctx context.Context, raceID string) ([]byte, error)
}

// RankingServicer defines the interface for the leaderboard
type RankingServicer interface {
	Ranking(ctx context.Context) Ranking
}

// ProfileServicer defines the interface for profile operations
type ProfileServicer interface {
	Load(ctx context.Context, userID string) ProfileView
	UploadAvatar(ctx context.Context, filename string, image io.Reader) AvatarResult
	SetTheme(ctx context.Context, themeID string) bool
}

// PredictionServicer defines the interface for prediction workflows
type PredictionServicer interface {
	Open(ctx context.Context, raceID string) *PredictionWorkflow
	Workflow(ctx context.Context, raceID string) *PredictionWorkflow
	DiscardAll()
}

// AdminServicer defines the interface for admin operations
type AdminServicer interface {
	ListRaces(ctx context.Context) RaceListing
	RecordResult(ctx context.Context, result models.RaceResult) ActionState
	CalculateScores(ctx context.Context, raceID string) ActionState
	States() (results, scores ActionState)
	Reset()
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	GetAPIURL(ctx context.Context) (string, error)
	SetAPIURL(ctx context.Context, url string) error
}

// Ensure services implement their interfaces
var (
	_ RaceServicer       = (*RaceService)(nil)
	_ RankingServicer    = (*RankingService)(nil)
	_ ProfileServicer    = (*ProfileService)(nil)
	_ PredictionServicer = (*PredictionService)(nil)
	_ AdminServicer      = (*AdminService)(nil)
	_ SettingsServicer   = (*SettingsService)(nil)
)
