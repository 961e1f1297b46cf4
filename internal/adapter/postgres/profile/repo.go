// Package profile implements the Profile repository using PostgreSQL.
// Optional demographic attributes live in a JSONB details column.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/allergycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

const columns = "id, name, details, created_at, updated_at"

// Repo provides profile persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
}

// New creates a new profile repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, tx: postgres.NewTxManager(pool)}
}

// List returns all profiles ordered by creation time.
// Returns an empty slice (not nil) when there are none.
func (r *Repo) List(ctx context.Context) ([]domain.Profile, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, `SELECT `+columns+` FROM profiles ORDER BY created_at, id`)
	if err != nil {
		return nil, postgres.MapError(err, "profiles", "list")
	}
	defer rows.Close()

	profiles := []domain.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "profiles", "list")
	}
	return profiles, nil
}

// GetByID returns a profile. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	p, err := scanProfile(q.QueryRow(ctx, `SELECT `+columns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		return nil, postgres.MapError(err, "profile", id)
	}
	return &p, nil
}

// Create inserts a new profile.
func (r *Repo) Create(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		if err := insert(ctx, q, []domain.Profile{p}); err != nil {
			return err
		}
		return postgres.Touch(ctx, q)
	})
	if err != nil {
		return nil, postgres.MapError(err, "profile", p.ID)
	}
	return &p, nil
}

// Update replaces the stored profile. Returns domain.ErrNotFound if it does
// not exist.
func (r *Repo) Update(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	details, err := json.Marshal(p.ProfileDetails)
	if err != nil {
		return nil, fmt.Errorf("encode profile details: %w", err)
	}

	stmt := postgres.Builder().
		Update("profiles").
		Set("name", p.Name).
		Set("details", details).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID})

	err = r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		affected, err := postgres.Exec(ctx, q, stmt)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pgx.ErrNoRows
		}
		return postgres.Touch(ctx, q)
	})
	if err != nil {
		return nil, postgres.MapError(err, "profile", p.ID)
	}
	return &p, nil
}

// Delete removes a profile. The foreign keys cascade to symptom entries and
// food entry links. A missing profile is a no-op.
func (r *Repo) Delete(ctx context.Context, id string) error {
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		affected, err := postgres.Exec(ctx, q, postgres.Builder().Delete("profiles").Where(squirrel.Eq{"id": id}))
		if err != nil || affected == 0 {
			return err
		}
		return postgres.Touch(ctx, q)
	})
	return postgres.MapError(err, "profile", id)
}

// ReplaceAll deletes every profile (cascading to owned rows) and inserts the
// given ones.
func (r *Repo) ReplaceAll(ctx context.Context, profiles []domain.Profile) error {
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		if _, err := q.Exec(ctx, `DELETE FROM profiles`); err != nil {
			return err
		}
		if err := insert(ctx, q, profiles); err != nil {
			return err
		}
		return postgres.Touch(ctx, q)
	})
	return postgres.MapError(err, "profiles", "replace")
}

func insert(ctx context.Context, q postgres.Querier, profiles []domain.Profile) error {
	rows := make([][]any, 0, len(profiles))
	for _, p := range profiles {
		details, err := json.Marshal(p.ProfileDetails)
		if err != nil {
			return fmt.Errorf("encode profile details: %w", err)
		}
		rows = append(rows, []any{p.ID, p.Name, details, p.CreatedAt, p.UpdatedAt})
	}

	stmt := postgres.Builder().
		Insert("profiles").
		Columns("id", "name", "details", "created_at", "updated_at")
	return postgres.InsertRows(ctx, q, stmt, 5, rows)
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var (
		p       domain.Profile
		details []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &details, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Profile{}, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &p.ProfileDetails); err != nil {
			return domain.Profile{}, fmt.Errorf("decode profile details: %w", err)
		}
	}
	p.CreatedAt = utc(p.CreatedAt)
	p.UpdatedAt = utc(p.UpdatedAt)
	return p, nil
}

func utc(t time.Time) time.Time { return t.UTC() }
