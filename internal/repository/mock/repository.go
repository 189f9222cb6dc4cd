package mock

import (
	"context"

	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.SaveTokenError = errors.New("disk full")
//	store := session.New(log, client, mockRepo)
type Repository struct {
	repository.FullRepository

	// ===== Token Errors =====
	LoadTokenError  error
	SaveTokenError  error
	ClearTokenError error

	// ===== Settings Errors =====
	GetSettingError    error
	SetSettingError    error
	DeleteSettingError error

	// ===== Race Status Errors =====
	ListRaceStatusesError error
	SaveRaceStatusError   error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Token Methods =====

func (m *Repository) LoadToken(ctx context.Context) (string, error) {
	if m.LoadTokenError != nil {
		return "", m.LoadTokenError
	}
	return m.FullRepository.LoadToken(ctx)
}

func (m *Repository) SaveToken(ctx context.Context, token string) error {
	if m.SaveTokenError != nil {
		return m.SaveTokenError
	}
	return m.FullRepository.SaveToken(ctx, token)
}

func (m *Repository) ClearToken(ctx context.Context) error {
	if m.ClearTokenError != nil {
		return m.ClearTokenError
	}
	return m.FullRepository.ClearToken(ctx)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) DeleteSetting(ctx context.Context, key string) error {
	if m.DeleteSettingError != nil {
		return m.DeleteSettingError
	}
	return m.FullRepository.DeleteSetting(ctx, key)
}

// ===== Race Status Methods =====

func (m *Repository) ListRaceStatuses(ctx context.Context) (map[string]models.RaceStatus, error) {
	if m.ListRaceStatusesError != nil {
		return nil, m.ListRaceStatusesError
	}
	return m.FullRepository.ListRaceStatuses(ctx)
}

func (m *Repository) SaveRaceStatus(ctx context.Context, status models.RaceStatus) error {
	if m.SaveRaceStatusError != nil {
		return m.SaveRaceStatusError
	}
	return m.FullRepository.SaveRaceStatus(ctx, status)
}
