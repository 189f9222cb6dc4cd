package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/models"
)

// RaceListing is the race calendar as a view renders it. Exactly one of
// Races, Empty and Error is meaningful.
type RaceListing struct {
	Races []models.Race
	Empty string
	Error string
}

// RaceLister lists the calendar
type RaceLister interface {
	ListRaces(ctx context.Context) ([]models.Race, error)
}

// RaceService handles the race catalog
type RaceService struct {
	log      logger.Logger
	client   RaceLister
	settings SettingsServicer
}

// NewRaceService creates a new RaceService
func NewRaceService(log logger.Logger, client RaceLister, settings SettingsServicer) *RaceService {
	return &RaceService{log: log, client: client, settings: settings}
}

// ListRaces loads the calendar
func (s *RaceService) ListRaces(ctx context.Context) RaceListing {
	races, err := s.client.ListRaces(ctx)
	if err != nil {
		s.log.Warn("Failed to load races", "error", err)
		return RaceListing{Error: MsgRacesError}
	}
	if len(races) == 0 {
		return RaceListing{Empty: MsgRacesEmpty}
	}
	return RaceListing{Races: races}
}

// RaceQR returns a PNG QR code linking to the race's prediction page
func (s *RaceService) RaceQR(ctx context.Context, raceID string) ([]byte, error) {
	if raceID == "" {
		return nil, ErrRaceIDRequired
	}
	baseURL, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting base URL: %w", err)
	}
	if baseURL == "" {
		return nil, ErrBaseURLNotConfigured
	}
	predictURL := fmt.Sprintf("%s/predict/%s", strings.TrimSuffix(baseURL, "/"), url.PathEscape(raceID))
	return qrcode.Encode(predictURL, qrcode.Medium, 256)
}
