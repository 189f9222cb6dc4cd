package services

import (
	"context"

	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/repository"
)

const (
	settingBaseURL = "base_url"
	settingAPIURL  = "api_url"
)

// SettingsService handles locally persisted client settings
type SettingsService struct {
	log  logger.Logger
	repo repository.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{log: log, repo: repo}
}

// GetBaseURL returns the URL other devices use to reach this client
func (s *SettingsService) GetBaseURL(ctx context.Context) (string, error) {
	return s.optional(ctx, settingBaseURL)
}

// SetBaseURL saves the client base URL
func (s *SettingsService) SetBaseURL(ctx context.Context, url string) error {
	return s.repo.SetSetting(ctx, settingBaseURL, url)
}

// GetAPIURL returns the backend URL used by the previous run
func (s *SettingsService) GetAPIURL(ctx context.Context) (string, error) {
	return s.optional(ctx, settingAPIURL)
}

// SetAPIURL remembers the backend URL
func (s *SettingsService) SetAPIURL(ctx context.Context, url string) error {
	return s.repo.SetSetting(ctx, settingAPIURL, url)
}

func (s *SettingsService) optional(ctx context.Context, key string) (string, error) {
	value, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		if err == repository.ErrNotFound {
			return "", nil // not yet configured
		}
		return "", err
	}
	return value, nil
}
