package repository

import (
	"context"

	"github.com/abrezinsky/f1bet/internal/models"
)

// TokenRepository persists the session token across restarts
type TokenRepository interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// RaceStatusRepository remembers the last observed prediction window of
// each race so the watcher can report flips
type RaceStatusRepository interface {
	ListRaceStatuses(ctx context.Context) (map[string]models.RaceStatus, error)
	SaveRaceStatus(ctx context.Context, status models.RaceStatus) error
}

// FullRepository combines all repository interfaces
type FullRepository interface {
	TokenRepository
	SettingsRepository
	RaceStatusRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
