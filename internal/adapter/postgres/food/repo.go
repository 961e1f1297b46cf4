// Package food implements the FoodEntry repository using PostgreSQL.
// The profiles a meal applies to are stored in food_entry_profiles, ordered
// by position.
package food

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/allergycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

const selectSQL = `
SELECT f.id, f.eaten_at, f.food_items, f.photo,
       COALESCE(array_agg(fp.profile_id ORDER BY fp.position)
                FILTER (WHERE fp.profile_id IS NOT NULL), '{}') AS profile_ids
FROM food_entries f
LEFT JOIN food_entry_profiles fp ON fp.food_entry_id = f.id`

// Repo provides food entry persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
}

// New creates a new food entry repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, tx: postgres.NewTxManager(pool)}
}

// List returns all food entries ordered by timestamp.
func (r *Repo) List(ctx context.Context) ([]domain.FoodEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, selectSQL+` GROUP BY f.id ORDER BY f.eaten_at, f.id`)
	if err != nil {
		return nil, postgres.MapError(err, "food entries", "list")
	}
	defer rows.Close()

	entries := []domain.FoodEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan food entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "food entries", "list")
	}
	return entries, nil
}

// GetByID returns a food entry. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.FoodEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	e, err := scanEntry(q.QueryRow(ctx, selectSQL+` WHERE f.id = $1 GROUP BY f.id`, id))
	if err != nil {
		return nil, postgres.MapError(err, "food entry", id)
	}
	return &e, nil
}

// Create inserts a food entry and its profile links. A link to a missing
// profile yields domain.ErrNotFound.
func (r *Repo) Create(ctx context.Context, e domain.FoodEntry) (*domain.FoodEntry, error) {
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		if err := insert(ctx, q, []domain.FoodEntry{e}); err != nil {
			return err
		}
		return postgres.Touch(ctx, q)
	})
	if err != nil {
		return nil, postgres.MapError(err, "food entry", e.ID)
	}
	return &e, nil
}

// Update replaces the food items, photo and profile links of an entry. The
// timestamp is immutable. Returns domain.ErrNotFound if the entry does not
// exist.
func (r *Repo) Update(ctx context.Context, e domain.FoodEntry) (*domain.FoodEntry, error) {
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		affected, err := postgres.Exec(ctx, q, postgres.Builder().
			Update("food_entries").
			Set("food_items", e.FoodItems).
			Set("photo", e.Photo).
			Where(squirrel.Eq{"id": e.ID}))
		if err != nil {
			return err
		}
		if affected == 0 {
			return pgx.ErrNoRows
		}

		if _, err := q.Exec(ctx, `DELETE FROM food_entry_profiles WHERE food_entry_id = $1`, e.ID); err != nil {
			return err
		}
		if err := insertLinks(ctx, q, []domain.FoodEntry{e}); err != nil {
			return err
		}
		return postgres.Touch(ctx, q)
	})
	if err != nil {
		return nil, postgres.MapError(err, "food entry", e.ID)
	}

	stored, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Delete removes a food entry. A missing entry is a no-op.
func (r *Repo) Delete(ctx context.Context, id string) error {
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		affected, err := postgres.Exec(ctx, q, postgres.Builder().Delete("food_entries").Where(squirrel.Eq{"id": id}))
		if err != nil || affected == 0 {
			return err
		}
		return postgres.Touch(ctx, q)
	})
	return postgres.MapError(err, "food entry", id)
}

// ReplaceAll deletes every food entry and inserts the given ones.
func (r *Repo) ReplaceAll(ctx context.Context, entries []domain.FoodEntry) error {
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		if _, err := q.Exec(ctx, `DELETE FROM food_entries`); err != nil {
			return err
		}
		if err := insert(ctx, q, entries); err != nil {
			return err
		}
		return postgres.Touch(ctx, q)
	})
	return postgres.MapError(err, "food entries", "replace")
}

// RemoveProfileRef unlinks profileID from every food entry and returns the
// number of entries changed.
func (r *Repo) RemoveProfileRef(ctx context.Context, profileID string) (int, error) {
	return r.unlink(ctx, squirrel.Eq{"profile_id": profileID})
}

// RetainProfileRefs unlinks every profile id not in keep and returns the
// number of references removed.
func (r *Repo) RetainProfileRefs(ctx context.Context, keep []string) (int, error) {
	return r.unlink(ctx, squirrel.NotEq{"profile_id": keep})
}

func (r *Repo) unlink(ctx context.Context, where squirrel.Sqlizer) (int, error) {
	var removed int64
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		n, err := postgres.Exec(ctx, q, postgres.Builder().Delete("food_entry_profiles").Where(where))
		if err != nil {
			return err
		}
		removed = n
		if n == 0 {
			return nil
		}
		return postgres.Touch(ctx, q)
	})
	if err != nil {
		return 0, postgres.MapError(err, "food entry profiles", "unlink")
	}
	return int(removed), nil
}

func insert(ctx context.Context, q postgres.Querier, entries []domain.FoodEntry) error {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{e.ID, e.Timestamp, e.FoodItems, e.Photo})
	}
	stmt := postgres.Builder().
		Insert("food_entries").
		Columns("id", "eaten_at", "food_items", "photo")
	if err := postgres.InsertRows(ctx, q, stmt, 4, rows); err != nil {
		return err
	}

	return insertLinks(ctx, q, entries)
}

func insertLinks(ctx context.Context, q postgres.Querier, entries []domain.FoodEntry) error {
	var rows [][]any
	for _, e := range entries {
		for i, pid := range e.ProfileIDs {
			rows = append(rows, []any{e.ID, pid, i})
		}
	}
	stmt := postgres.Builder().
		Insert("food_entry_profiles").
		Columns("food_entry_id", "profile_id", "position").
		Suffix("ON CONFLICT DO NOTHING")
	return postgres.InsertRows(ctx, q, stmt, 3, rows)
}

func scanEntry(row pgx.Row) (domain.FoodEntry, error) {
	var e domain.FoodEntry
	if err := row.Scan(&e.ID, &e.Timestamp, &e.FoodItems, &e.Photo, &e.ProfileIDs); err != nil {
		return domain.FoodEntry{}, err
	}
	e.Timestamp = e.Timestamp.UTC()
	if e.ProfileIDs == nil {
		e.ProfileIDs = []string{}
	}
	return e, nil
}
