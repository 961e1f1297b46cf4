// Package state implements the singleton state slots (settings, cached
// suggestion, last activity) using the app_state table.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/allergycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

const upsertSQL = `
INSERT INTO app_state (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

// Repo provides state slot persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
}

// New creates a new state repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, tx: postgres.NewTxManager(pool)}
}

// GetSettings returns the stored settings, or empty settings when none were
// saved.
func (r *Repo) GetSettings(ctx context.Context) (domain.AppSettings, error) {
	var s domain.AppSettings
	found, err := r.get(ctx, postgres.StateKeySettings, &s)
	if err != nil || !found {
		return domain.AppSettings{}, err
	}
	return s, nil
}

// SaveSettings overwrites the settings slot.
func (r *Repo) SaveSettings(ctx context.Context, s domain.AppSettings) error {
	return r.put(ctx, postgres.StateKeySettings, s)
}

// GetSuggestion returns the cached advisory suggestion, or nil when there is
// none.
func (r *Repo) GetSuggestion(ctx context.Context) (*domain.Suggestion, error) {
	var s domain.Suggestion
	found, err := r.get(ctx, postgres.StateKeySuggestion, &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

// SaveSuggestion overwrites the cached suggestion.
func (r *Repo) SaveSuggestion(ctx context.Context, s domain.Suggestion) error {
	return r.put(ctx, postgres.StateKeySuggestion, s)
}

// ClearSuggestion removes the cached suggestion.
func (r *Repo) ClearSuggestion(ctx context.Context) error {
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		tag, err := q.Exec(ctx, `DELETE FROM app_state WHERE key = $1`, postgres.StateKeySuggestion)
		if err != nil || tag.RowsAffected() == 0 {
			return err
		}
		return postgres.Touch(ctx, q)
	})
	return postgres.MapError(err, "state", postgres.StateKeySuggestion)
}

// LastActivity returns the instant of the last write, or nil.
func (r *Repo) LastActivity(ctx context.Context) (*time.Time, error) {
	return postgres.LastActivity(ctx, postgres.QuerierFromCtx(ctx, r.pool))
}

func (r *Repo) get(ctx context.Context, key string, dst any) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var raw []byte
	err := q.QueryRow(ctx, `SELECT value FROM app_state WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, postgres.MapError(err, "state", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("state %s: %w: decode: %v", key, domain.ErrStoreUnavailable, err)
	}
	return true, nil
}

func (r *Repo) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state %s: encode: %w", key, err)
	}

	err = r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		if _, err := q.Exec(ctx, upsertSQL, key, raw); err != nil {
			return err
		}
		return postgres.Touch(ctx, q)
	})
	return postgres.MapError(err, "state", key)
}
