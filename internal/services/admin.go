package services

import (
	"context"
	"sync"

	"github.com/abrezinsky/f1bet/internal/errors"
	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/models"
)

// ActionState is the pending/error/success state of one admin action
type ActionState struct {
	Pending bool
	Error   string
	Success string
}

// AdminService drives the admin page. Recording a result and calculating
// scores keep separate states.
type AdminService struct {
	log     logger.Logger
	client  AdminClient
	session Session

	mu      sync.Mutex
	results ActionState
	scores  ActionState
}

// NewAdminService creates a new AdminService
func NewAdminService(log logger.Logger, client AdminClient, session Session) *AdminService {
	return &AdminService{log: log, client: client, session: session}
}

// ListRaces loads the race selector
func (s *AdminService) ListRaces(ctx context.Context) RaceListing {
	races, err := s.client.ListRaces(ctx)
	if err != nil {
		s.log.Warn("Failed to load races for admin", "error", err)
		return RaceListing{Error: MsgAdminRacesError}
	}
	return RaceListing{Races: races}
}

// RecordResult validates and submits an official result
func (s *AdminService) RecordResult(ctx context.Context, result models.RaceResult) ActionState {
	picks := result.Picks()
	switch {
	case result.RaceID == "" || !picks.Complete():
		return s.finish(&s.results, ActionState{Error: MsgResultIncomplete})
	case !picks.Distinct():
		return s.finish(&s.results, ActionState{Error: MsgResultDuplicate})
	}

	if !s.begin(&s.results) {
		return s.current(&s.results, MsgActionInProgress)
	}

	token := s.token()
	msg, err := s.client.RecordResult(ctx, result)
	if err != nil {
		s.log.Warn("Failed to record race result", "race", result.RaceID, "error", err)
		s.expireOn(ctx, token, err)
		return s.finish(&s.results, ActionState{Error: errors.MessageOf(err, MsgResultFailed)})
	}

	s.log.Info("Race result recorded", "race", result.RaceID, "winner", result.OfficialWinner)
	if msg == "" {
		msg = MsgResultRecorded
	}
	return s.finish(&s.results, ActionState{Success: msg})
}

// CalculateScores triggers score calculation for a race. Repeat runs are
// left to the backend to reject.
func (s *AdminService) CalculateScores(ctx context.Context, raceID string) ActionState {
	if raceID == "" {
		return s.finish(&s.scores, ActionState{Error: MsgScoresNoRace})
	}

	if !s.begin(&s.scores) {
		return s.current(&s.scores, MsgActionInProgress)
	}

	token := s.token()
	msg, err := s.client.CalculateScores(ctx, raceID)
	if err != nil {
		s.log.Warn("Failed to calculate scores", "race", raceID, "error", err)
		s.expireOn(ctx, token, err)
		return s.finish(&s.scores, ActionState{Error: errors.MessageOf(err, MsgScoresFailed)})
	}

	s.log.Info("Scores calculated", "race", raceID)
	if msg == "" {
		msg = MsgScoresCalculated
	}
	return s.finish(&s.scores, ActionState{Success: msg})
}

// States returns the current state of both actions
func (s *AdminService) States() (results, scores ActionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results, s.scores
}

// Reset clears both action states
func (s *AdminService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = ActionState{}
	s.scores = ActionState{}
}

// begin marks an action pending unless it already is
func (s *AdminService) begin(state *ActionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.Pending {
		return false
	}
	*state = ActionState{Pending: true}
	return true
}

func (s *AdminService) finish(state *ActionState, next ActionState) ActionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	*state = next
	return next
}

func (s *AdminService) current(state *ActionState, msg string) ActionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := *state
	cur.Error = msg
	return cur
}

func (s *AdminService) token() string {
	if s.session == nil {
		return ""
	}
	return s.session.Token()
}

// expireOn ends the session a 401 was issued for, if it is still current
func (s *AdminService) expireOn(ctx context.Context, token string, err error) {
	if errors.Is(err, errors.ErrUnauthorized) && s.session != nil {
		s.session.ExpireIfCurrent(ctx, token)
	}
}
