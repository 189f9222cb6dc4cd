package services

import (
	"context"

	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/models"
)

// Ranking is the leaderboard as a view renders it
type Ranking struct {
	Users []models.User
	Empty string
	Error string
}

// RankingLister fetches the leaderboard
type RankingLister interface {
	Ranking(ctx context.Context) ([]models.User, error)
}

// RankingService handles the leaderboard
type RankingService struct {
	log    logger.Logger
	client RankingLister
}

// NewRankingService creates a new RankingService
func NewRankingService(log logger.Logger, client RankingLister) *RankingService {
	return &RankingService{log: log, client: client}
}

// Ranking loads the leaderboard in the order the backend returns it
func (s *RankingService) Ranking(ctx context.Context) Ranking {
	users, err := s.client.Ranking(ctx)
	if err != nil {
		s.log.Warn("Failed to load ranking", "error", err)
		return Ranking{Error: MsgRankingError}
	}
	if len(users) == 0 {
		return Ranking{Empty: MsgRankingEmpty}
	}
	return Ranking{Users: users}
}
