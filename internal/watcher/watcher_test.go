package watcher

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/repository/mock"
	"github.com/abrezinsky/f1bet/internal/testutil"
	"github.com/abrezinsky/f1bet/pkg/f1api"
)

type recorder struct {
	mu       sync.Mutex
	statuses []models.RaceStatus
}

func (r *recorder) BroadcastRaceStatus(status models.RaceStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.statuses)
}

func TestNew_InvalidSpec(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	if _, err := New(logger.Nop(), f1api.NewMockClient(), repo, nil, "every tuesday"); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestNew_DefaultSpec(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	w, err := New(logger.Nop(), f1api.NewMockClient(), repo, nil, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if w.Spec() != DefaultSpec {
		t.Errorf("expected %q, got %q", DefaultSpec, w.Spec())
	}
	w.Start()
	w.Stop()
}

func TestCheck_FirstRunIsSilent(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	out := &recorder{}
	w, _ := New(logger.Nop(), testutil.NewBackend(), repo, out, "")

	changed, err := w.Check(context.Background())
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(changed) != 0 || out.count() != 0 {
		t.Errorf("first sighting must not broadcast, got %+v", changed)
	}

	stored, _ := repo.ListRaceStatuses(context.Background())
	if len(stored) != 2 {
		t.Errorf("expected both races stored, got %d", len(stored))
	}
}

func TestCheck_BroadcastsFlips(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	client := testutil.NewBackend()
	out := &recorder{}
	w, _ := New(logger.Nop(), client, repo, out, "")
	ctx := context.Background()

	w.Check(ctx)
	client.SetRaceOpen(testutil.OpenRace.ID, false)
	w.now = func() time.Time { return time.Date(2025, 5, 25, 13, 0, 0, 0, time.UTC) }

	changed, err := w.Check(ctx)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(changed) != 1 || changed[0].RaceID != testutil.OpenRace.ID || changed[0].IsPredictionOpen {
		t.Fatalf("expected the open race to close, got %+v", changed)
	}
	if out.count() != 1 {
		t.Errorf("expected one broadcast, got %d", out.count())
	}

	stored, _ := repo.ListRaceStatuses(ctx)
	if stored[testutil.OpenRace.ID].IsPredictionOpen {
		t.Error("expected the new status stored")
	}

	// unchanged catalog
	if changed, _ := w.Check(ctx); len(changed) != 0 {
		t.Errorf("expected no changes, got %+v", changed)
	}
}

func TestCheck_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("list races", func(t *testing.T) {
		repo := testutil.NewTestRepository(t)
		client := f1api.NewMockClient(f1api.WithError("ListRaces", stderrors.New("connection refused")))
		w, _ := New(logger.Nop(), client, repo, nil, "")
		if _, err := w.Check(ctx); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("load statuses", func(t *testing.T) {
		repo := mock.NewRepository(testutil.NewTestRepository(t))
		repo.ListRaceStatusesError = stderrors.New("database is locked")
		client := testutil.NewBackend()
		w, _ := New(logger.Nop(), client, repo, nil, "")
		if _, err := w.Check(ctx); err == nil {
			t.Error("expected error")
		}
		if client.CallCount("ListRaces") != 0 {
			t.Error("catalog must not be fetched without stored statuses")
		}
	})

	t.Run("save status", func(t *testing.T) {
		repo := mock.NewRepository(testutil.NewTestRepository(t))
		repo.SaveRaceStatusError = stderrors.New("disk full")
		w, _ := New(logger.Nop(), testutil.NewBackend(), repo, nil, "")
		if _, err := w.Check(ctx); err == nil {
			t.Error("expected error")
		}
	})
}
