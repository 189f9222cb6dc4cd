// Package watcher polls the race catalog and announces races whose
// prediction window or completion flag changed since the last poll.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/repository"
)

// DefaultSpec polls the catalog once a minute
const DefaultSpec = "@every 1m"

// RaceLister fetches the race catalog
type RaceLister interface {
	ListRaces(ctx context.Context) ([]models.Race, error)
}

// Broadcaster receives status changes
type Broadcaster interface {
	BroadcastRaceStatus(status models.RaceStatus)
}

// Watcher runs Check on a cron schedule
type Watcher struct {
	log     logger.Logger
	client  RaceLister
	repo    repository.RaceStatusRepository
	out     Broadcaster
	spec    string
	c       *cron.Cron
	now     func() time.Time
	checkMu sync.Mutex
}

// New creates a watcher. An empty spec uses DefaultSpec.
func New(log logger.Logger, client RaceLister, repo repository.RaceStatusRepository, out Broadcaster, spec string) (*Watcher, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	w := &Watcher{
		log:    log,
		client: client,
		repo:   repo,
		out:    out,
		spec:   spec,
		c:      cron.New(),
		now:    time.Now,
	}
	_, err := w.c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := w.Check(ctx); err != nil {
			w.log.Warn("Race status check failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid watch schedule %q: %w", spec, err)
	}
	return w, nil
}

// Start runs the schedule in the background
func (w *Watcher) Start() {
	w.log.Info("Starting race status watcher", "cron", w.spec)
	w.c.Start()
}

// Stop halts the schedule and waits for a running check to finish
func (w *Watcher) Stop() {
	<-w.c.Stop().Done()
}

// Spec returns the cron schedule in use
func (w *Watcher) Spec() string {
	return w.spec
}

// Check fetches the catalog once, stores every race's status and broadcasts
// the ones that differ from what was stored before. Races seen for the first
// time are stored silently.
func (w *Watcher) Check(ctx context.Context) ([]models.RaceStatus, error) {
	w.checkMu.Lock()
	defer w.checkMu.Unlock()

	known, err := w.repo.ListRaceStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load race statuses: %w", err)
	}

	races, err := w.client.ListRaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}

	now := w.now()
	var changed []models.RaceStatus
	for _, race := range races {
		status := race.Status(now)
		prev, seen := known[race.ID]
		if seen && prev.IsPredictionOpen == status.IsPredictionOpen && prev.IsRaceCompleted == status.IsRaceCompleted {
			continue
		}
		if err := w.repo.SaveRaceStatus(ctx, status); err != nil {
			return changed, fmt.Errorf("failed to save status of race %s: %w", race.ID, err)
		}
		if !seen {
			continue
		}
		w.log.Info("Race status changed", "race_id", race.ID, "name", race.Name,
			"prediction_open", status.IsPredictionOpen, "completed", status.IsRaceCompleted)
		changed = append(changed, status)
		if w.out != nil {
			w.out.BroadcastRaceStatus(status)
		}
	}
	return changed, nil
}
