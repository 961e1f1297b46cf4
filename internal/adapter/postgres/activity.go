package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// State keys in app_state.
const (
	StateKeySettings     = "settings"
	StateKeySuggestion   = "suggestion"
	StateKeyLastActivity = "last_activity"
)

const touchSQL = `
INSERT INTO app_state (key, value, updated_at)
VALUES ($1, 'null'::jsonb, now())
ON CONFLICT (key) DO UPDATE SET updated_at = now()`

// Touch records the last write instant. Repositories call it after every
// successful write on the same querier, so it commits with the write.
func Touch(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, touchSQL, StateKeyLastActivity); err != nil {
		return fmt.Errorf("touch last activity: %w", err)
	}
	return nil
}

// LastActivity returns the instant of the last write, or nil when nothing
// has been written yet.
func LastActivity(ctx context.Context, q Querier) (*time.Time, error) {
	var at time.Time
	err := q.QueryRow(ctx, `SELECT updated_at FROM app_state WHERE key = $1`, StateKeyLastActivity).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, MapError(err, "state", StateKeyLastActivity)
	}
	at = at.UTC()
	return &at, nil
}
