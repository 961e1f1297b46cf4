// Package symptom implements the SymptomEntry repository using PostgreSQL.
package symptom

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/allergycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

var columns = []string{
	"id", "logged_at", "symptom", "category", "severity",
	"start_time", "duration", "linked_food_entry_id", "profile_id",
}

// Repo provides symptom entry persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
}

// New creates a new symptom entry repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, tx: postgres.NewTxManager(pool)}
}

// List returns all symptom entries ordered by start time.
func (r *Repo) List(ctx context.Context) ([]domain.SymptomEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From("symptom_entries").
		OrderBy("start_time", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "symptom entries", "list")
	}
	defer rows.Close()

	entries := []domain.SymptomEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symptom entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "symptom entries", "list")
	}
	return entries, nil
}

// GetByID returns a symptom entry. Returns domain.ErrNotFound if it does not
// exist.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.SymptomEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From("symptom_entries").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	e, err := scanEntry(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "symptom entry", id)
	}
	return &e, nil
}

// Create inserts a symptom entry. An unknown profile yields domain.ErrNotFound.
func (r *Repo) Create(ctx context.Context, e domain.SymptomEntry) (*domain.SymptomEntry, error) {
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		if err := insert(ctx, q, []domain.SymptomEntry{e}); err != nil {
			return err
		}
		return postgres.Touch(ctx, q)
	})
	if err != nil {
		return nil, postgres.MapError(err, "symptom entry", e.ID)
	}
	return &e, nil
}

// Update replaces every mutable field of a symptom entry. loggedAt is kept.
// Returns domain.ErrNotFound if the entry does not exist.
func (r *Repo) Update(ctx context.Context, e domain.SymptomEntry) (*domain.SymptomEntry, error) {
	stmt := postgres.Builder().
		Update("symptom_entries").
		Set("symptom", e.Symptom).
		Set("category", string(e.Category)).
		Set("severity", int(e.Severity)).
		Set("start_time", e.StartTime).
		Set("duration", e.Duration).
		Set("linked_food_entry_id", e.LinkedFoodEntryID).
		Set("profile_id", e.ProfileID).
		Where(squirrel.Eq{"id": e.ID})

	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
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
		return nil, postgres.MapError(err, "symptom entry", e.ID)
	}
	return r.GetByID(ctx, e.ID)
}

// Delete removes a symptom entry. A missing entry is a no-op.
func (r *Repo) Delete(ctx context.Context, id string) error {
	_, err := r.delete(ctx, squirrel.Eq{"id": id})
	return postgres.MapError(err, "symptom entry", id)
}

// ReplaceAll deletes every symptom entry and inserts the given ones.
func (r *Repo) ReplaceAll(ctx context.Context, entries []domain.SymptomEntry) error {
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		if _, err := q.Exec(ctx, `DELETE FROM symptom_entries`); err != nil {
			return err
		}
		if err := insert(ctx, q, entries); err != nil {
			return err
		}
		return postgres.Touch(ctx, q)
	})
	return postgres.MapError(err, "symptom entries", "replace")
}

// DeleteByProfile removes every symptom owned by profileID and returns the
// number removed.
func (r *Repo) DeleteByProfile(ctx context.Context, profileID string) (int, error) {
	n, err := r.delete(ctx, squirrel.Eq{"profile_id": profileID})
	if err != nil {
		return 0, postgres.MapError(err, "symptom entries", profileID)
	}
	return n, nil
}

// DeleteOrphans removes every symptom whose profile is not in keep and
// returns the number removed.
func (r *Repo) DeleteOrphans(ctx context.Context, keep []string) (int, error) {
	n, err := r.delete(ctx, squirrel.NotEq{"profile_id": keep})
	if err != nil {
		return 0, postgres.MapError(err, "symptom entries", "orphans")
	}
	return n, nil
}

func (r *Repo) delete(ctx context.Context, where squirrel.Sqlizer) (int, error) {
	var removed int64
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		n, err := postgres.Exec(ctx, q, postgres.Builder().Delete("symptom_entries").Where(where))
		if err != nil {
			return err
		}
		removed = n
		if n == 0 {
			return nil
		}
		return postgres.Touch(ctx, q)
	})
	return int(removed), err
}

func insert(ctx context.Context, q postgres.Querier, entries []domain.SymptomEntry) error {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{
			e.ID, e.LoggedAt, e.Symptom, string(e.Category), int(e.Severity),
			e.StartTime, e.Duration, e.LinkedFoodEntryID, e.ProfileID,
		})
	}
	stmt := postgres.Builder().Insert("symptom_entries").Columns(columns...)
	return postgres.InsertRows(ctx, q, stmt, len(columns), rows)
}

func scanEntry(row pgx.Row) (domain.SymptomEntry, error) {
	var (
		e        domain.SymptomEntry
		category string
		severity int
	)
	err := row.Scan(
		&e.ID, &e.LoggedAt, &e.Symptom, &category, &severity,
		&e.StartTime, &e.Duration, &e.LinkedFoodEntryID, &e.ProfileID,
	)
	if err != nil {
		return domain.SymptomEntry{}, err
	}
	e.Category = domain.Category(category)
	e.Severity = domain.Severity(severity)
	e.LoggedAt = e.LoggedAt.UTC()
	e.StartTime = e.StartTime.UTC()
	return e, nil
}
