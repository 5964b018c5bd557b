package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const interestTextKey = "interest_text"

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) SaveInterestText(ctx context.Context, text string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO settings (key, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`, interestTextKey, text, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save interest text: %w", err)
	}
	return nil
}

// InterestText returns the empty string when no text was ever saved.
func (r *SettingsRepository) InterestText(ctx context.Context) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, interestTextKey).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("load interest text: %w", err)
	}
	return value, nil
}
