package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLoadToken_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}

	mock.ExpectQuery("SELECT value FROM settings").
		WithArgs(TokenKey).
		WillReturnError(errors.New("disk I/O error"))

	token, err := repo.LoadToken(context.Background())
	if err == nil {
		t.Fatal("expected error from query failure, got nil")
	}
	if token != "" {
		t.Errorf("expected empty token on error, got %q", token)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveToken_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}

	mock.ExpectExec("INSERT OR REPLACE INTO settings").
		WithArgs(TokenKey, "tok").
		WillReturnError(errors.New("database is locked"))

	if err := repo.SaveToken(context.Background(), "tok"); err == nil {
		t.Error("expected error from exec failure, got nil")
	}
}

func TestClearToken_DeletesKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}

	mock.ExpectExec("DELETE FROM settings WHERE key").
		WithArgs(TokenKey).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ClearToken(context.Background()); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListRaceStatuses_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}

	mock.ExpectQuery("SELECT (.+) FROM race_status").WillReturnError(errors.New("no such table"))

	if _, err := repo.ListRaceStatuses(context.Background()); err == nil {
		t.Error("expected error from query failure, got nil")
	}
}

func TestListRaceStatuses_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}

	rows := sqlmock.NewRows([]string{"race_id", "name", "is_prediction_open", "is_race_completed", "seen_at"}).
		AddRow("r1", "Monaco", "not-a-bool", false, nil)
	mock.ExpectQuery("SELECT (.+) FROM race_status").WillReturnRows(rows)

	if _, err := repo.ListRaceStatuses(context.Background()); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

func TestMigrate_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS settings").WillReturnError(errors.New("read-only database"))

	if err := repo.migrate(); err == nil {
		t.Error("expected migration error, got nil")
	}
}
