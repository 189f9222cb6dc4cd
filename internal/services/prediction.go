package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/f1bet/internal/errors"
	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/models"
)

// PredictionState is the state of a prediction workflow
type PredictionState int

const (
	PredictionLoading PredictionState = iota
	PredictionClosed
	PredictionEditing
	PredictionSubmitting
	PredictionFailed
)

func (s PredictionState) String() string {
	switch s {
	case PredictionLoading:
		return "loading"
	case PredictionClosed:
		return "closed"
	case PredictionEditing:
		return "editing"
	case PredictionSubmitting:
		return "submitting"
	case PredictionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PredictionView is a snapshot of a workflow for rendering
type PredictionView struct {
	State    PredictionState
	Race     *models.Race
	Picks    models.Picks
	Baseline *models.Prediction // last prediction the server confirmed
	Error    string
	Success  string
}

// HasBaseline reports whether submitting will update an existing prediction
func (v PredictionView) HasBaseline() bool {
	return v.Baseline != nil
}

// PredictionWorkflow drives one user's prediction for one race. Once
// discarded, responses that arrive late are ignored.
type PredictionWorkflow struct {
	log            logger.Logger
	client         PredictionClient
	raceID         string
	authenticated  bool
	expiry         tokenExpiry

	mu        sync.Mutex
	state     PredictionState
	race      *models.Race
	picks     models.Picks
	baseline  *models.Prediction
	errMsg    string
	success   string
	discarded bool
}

// tokenExpiry ends the session a rejected request was sent with
type tokenExpiry interface {
	Token() string
	ExpireIfCurrent(ctx context.Context, token string)
}

func newPredictionWorkflow(log logger.Logger, client PredictionClient, raceID string, authenticated bool, expiry tokenExpiry) *PredictionWorkflow {
	return &PredictionWorkflow{
		log:           log,
		client:        client,
		raceID:        raceID,
		authenticated: authenticated,
		expiry:        expiry,
		state:         PredictionLoading,
	}
}

// RaceID returns the race this workflow predicts
func (w *PredictionWorkflow) RaceID() string {
	return w.raceID
}

// Load fetches the race and the caller's existing prediction concurrently.
// A missing prediction is not an error: the picks start empty.
func (w *PredictionWorkflow) Load(ctx context.Context) PredictionView {
	if !w.authenticated {
		w.mu.Lock()
		w.state = PredictionFailed
		w.errMsg = MsgLoginToPredict
		w.mu.Unlock()
		return w.View()
	}

	var race *models.Race
	var existing *models.Prediction

	token := w.token()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := w.client.GetRace(gctx, w.raceID)
		if err != nil {
			return fmt.Errorf("fetching race: %w", err)
		}
		race = r
		return nil
	})
	g.Go(func() error {
		p, err := w.client.MyPrediction(gctx, w.raceID)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				w.log.Debug("No existing prediction", "race", w.raceID)
				return nil
			}
			return fmt.Errorf("fetching prediction: %w", err)
		}
		existing = p
		return nil
	})
	err := g.Wait()

	w.mu.Lock()
	if w.discarded {
		w.mu.Unlock()
		return w.View()
	}
	if err != nil {
		w.log.Warn("Failed to load prediction page", "race", w.raceID, "error", err)
		w.state = PredictionFailed
		w.errMsg = MsgPredictLoadError
		if errors.Is(err, errors.ErrNotFound) {
			w.errMsg = MsgRaceUnavailable
		}
		w.mu.Unlock()
		w.expireOn(ctx, token, err)
		return w.View()
	}

	w.race = race
	w.baseline = existing
	if existing != nil {
		w.picks = existing.Picks()
	}
	w.state = PredictionEditing
	w.mu.Unlock()

	return w.View()
}

// Submit validates the picks locally and sends them as a create-or-update.
// Invalid picks never reach the backend.
func (w *PredictionWorkflow) Submit(ctx context.Context, picks models.Picks) PredictionView {
	w.mu.Lock()
	if w.discarded {
		w.mu.Unlock()
		return w.View()
	}
	switch w.currentState() {
	case PredictionSubmitting:
		w.errMsg = MsgSubmitInProgress
		w.mu.Unlock()
		return w.View()
	case PredictionEditing:
	default:
		// loading, closed or failed workflows offer no form
		w.mu.Unlock()
		return w.View()
	}

	w.picks = picks
	w.errMsg = ""
	w.success = ""
	if !picks.Complete() || !picks.Distinct() {
		w.errMsg = MsgPicksInvalid
		w.mu.Unlock()
		return w.View()
	}
	w.state = PredictionSubmitting
	w.mu.Unlock()

	token := w.token()
	res, err := w.client.SubmitPrediction(ctx, models.PredictionRequest{
		RaceID:          w.raceID,
		PredictedWinner: picks.Winner,
		PredictedSecond: picks.Second,
		PredictedThird:  picks.Third,
	})

	w.mu.Lock()
	if w.discarded {
		w.mu.Unlock()
		return w.View()
	}
	w.state = PredictionEditing
	if err != nil {
		w.log.Info("Prediction rejected", "race", w.raceID, "error", err)
		w.errMsg = errors.MessageOf(err, MsgPredictionFailed)
		w.mu.Unlock()
		w.expireOn(ctx, token, err)
		return w.View()
	}

	baseline := res.Prediction
	if baseline.Race.ID == "" {
		baseline.Race.ID = w.raceID
	}
	w.baseline = &baseline
	w.picks = baseline.Picks()
	w.success = res.Message
	if w.success == "" {
		w.success = MsgPredictionSaved
	}
	w.mu.Unlock()

	w.log.Info("Prediction saved", "race", w.raceID, "prediction", baseline.ID)
	return w.View()
}

// Discard marks the view gone; pending responses become no-ops
func (w *PredictionWorkflow) Discard() {
	w.mu.Lock()
	w.discarded = true
	w.mu.Unlock()
}

// Discarded reports whether the workflow was discarded
func (w *PredictionWorkflow) Discarded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.discarded
}

// View returns a snapshot of the workflow
func (w *PredictionWorkflow) View() PredictionView {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := PredictionView{
		State:   w.currentState(),
		Picks:   w.picks,
		Error:   w.errMsg,
		Success: w.success,
	}
	if w.race != nil {
		r := *w.race
		v.Race = &r
	}
	if w.baseline != nil {
		b := *w.baseline
		v.Baseline = &b
	}
	return v
}

// currentState derives Closed from the loaded race. Callers must hold w.mu.
func (w *PredictionWorkflow) currentState() PredictionState {
	if w.state == PredictionEditing && w.race != nil && !w.race.IsPredictionOpen {
		return PredictionClosed
	}
	return w.state
}

func (w *PredictionWorkflow) token() string {
	if w.expiry == nil {
		return ""
	}
	return w.expiry.Token()
}

func (w *PredictionWorkflow) expireOn(ctx context.Context, token string, err error) {
	if errors.Is(err, errors.ErrUnauthorized) && w.expiry != nil {
		w.expiry.ExpireIfCurrent(ctx, token)
	}
}

// PredictionService keeps the open prediction workflow of each race
type PredictionService struct {
	log     logger.Logger
	client  PredictionClient
	session Session

	mu   sync.Mutex
	open map[string]*PredictionWorkflow
}

// NewPredictionService creates a new PredictionService
func NewPredictionService(log logger.Logger, client PredictionClient, session Session) *PredictionService {
	return &PredictionService{
		log:     log,
		client:  client,
		session: session,
		open:    make(map[string]*PredictionWorkflow),
	}
}

func workflowKey(userID, raceID string) string {
	return userID + "/" + raceID
}

// Open starts a fresh workflow for the current user and race, discarding
// the one it replaces, and loads it
func (s *PredictionService) Open(ctx context.Context, raceID string) *PredictionWorkflow {
	snap := s.session.Snapshot()
	userID := ""
	if snap.User != nil {
		userID = snap.User.ID
	}

	w := newPredictionWorkflow(s.log, s.client, raceID, snap.User != nil, s.session)
	key := workflowKey(userID, raceID)

	s.mu.Lock()
	if prev, ok := s.open[key]; ok {
		prev.Discard()
	}
	s.open[key] = w
	s.mu.Unlock()

	w.Load(ctx)
	return w
}

// Workflow returns the open workflow for the current user and race, or
// opens one
func (s *PredictionService) Workflow(ctx context.Context, raceID string) *PredictionWorkflow {
	snap := s.session.Snapshot()
	userID := ""
	if snap.User != nil {
		userID = snap.User.ID
	}

	s.mu.Lock()
	w, ok := s.open[workflowKey(userID, raceID)]
	s.mu.Unlock()
	if ok && !w.Discarded() && w.View().State != PredictionFailed {
		return w
	}
	return s.Open(ctx, raceID)
}

// DiscardAll discards every open workflow, e.g. on logout
func (s *PredictionService) DiscardAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, w := range s.open {
		w.Discard()
		delete(s.open, key)
	}
}
