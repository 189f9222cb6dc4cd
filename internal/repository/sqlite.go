package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/abrezinsky/f1bet/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// TokenKey is the settings key holding the session token
const TokenKey = "auth_token"

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS race_status (
			race_id TEXT PRIMARY KEY,
			name TEXT,
			is_prediction_open BOOLEAN NOT NULL DEFAULT 0,
			is_race_completed BOOLEAN NOT NULL DEFAULT 0,
			seen_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting updates a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

// DeleteSetting removes a setting; deleting a missing key is not an error
func (r *Repository) DeleteSetting(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	return err
}

// ==================== Token Methods ====================

// LoadToken returns the persisted session token, or "" when none is stored
func (r *Repository) LoadToken(ctx context.Context) (string, error) {
	token, err := r.GetSetting(ctx, TokenKey)
	if err == ErrNotFound {
		return "", nil
	}
	return token, err
}

// SaveToken persists the session token
func (r *Repository) SaveToken(ctx context.Context, token string) error {
	return r.SetSetting(ctx, TokenKey, token)
}

// ClearToken removes the persisted session token
func (r *Repository) ClearToken(ctx context.Context) error {
	return r.DeleteSetting(ctx, TokenKey)
}

// ==================== Race Status Methods ====================

// ListRaceStatuses returns the last observed status of every race, by id
func (r *Repository) ListRaceStatuses(ctx context.Context) (map[string]models.RaceStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT race_id, COALESCE(name, ''), is_prediction_open, is_race_completed, seen_at
		FROM race_status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make(map[string]models.RaceStatus)
	for rows.Next() {
		var s models.RaceStatus
		var seenAt sql.NullTime
		if err := rows.Scan(&s.RaceID, &s.Name, &s.IsPredictionOpen, &s.IsRaceCompleted, &seenAt); err != nil {
			return nil, err
		}
		if seenAt.Valid {
			s.SeenAt = seenAt.Time
		}
		statuses[s.RaceID] = s
	}
	return statuses, rows.Err()
}

// SaveRaceStatus upserts the observed status of a race
func (r *Repository) SaveRaceStatus(ctx context.Context, status models.RaceStatus) error {
	seenAt := status.SeenAt
	if seenAt.IsZero() {
		seenAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO race_status (race_id, name, is_prediction_open, is_race_completed, seen_at)
		VALUES (?, ?, ?, ?, ?)
	`, status.RaceID, status.Name, status.IsPredictionOpen, status.IsRaceCompleted, seenAt.UTC())
	return err
}
