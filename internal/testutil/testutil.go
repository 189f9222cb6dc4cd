package testutil

import (
	"testing"

	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/repository"
	"github.com/abrezinsky/f1bet/pkg/f1api"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// Sample data shared by package tests
var (
	Alice = models.User{ID: "u-alice", Username: "alice", Email: "alice@example.com", TotalScore: 25}
	Admin = models.User{ID: "u-admin", Username: "race-control", Email: "admin@example.com", IsAdmin: true}

	OpenRace   = models.Race{ID: "r-open", Name: "Monaco Grand Prix", Location: "Monte Carlo", Season: 2025, Round: 8, IsPredictionOpen: true}
	ClosedRace = models.Race{ID: "r-closed", Name: "Bahrain Grand Prix", Location: "Sakhir", Season: 2025, Round: 1, IsRaceCompleted: true}
)

// NewBackend returns a mock backend seeded with the sample users and races
func NewBackend(opts ...f1api.MockOption) *f1api.MockClient {
	base := []f1api.MockOption{
		f1api.WithUsers(Alice, Admin),
		f1api.WithRaces(OpenRace, ClosedRace),
	}
	return f1api.NewMockClient(append(base, opts...)...)
}
