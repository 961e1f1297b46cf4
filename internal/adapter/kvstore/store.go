// Package kvstore is the device-local record store. Every collection is one
// JSON document under a fixed key in a single SQLite table, so a household's
// whole diary lives in one file.
package kvstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/pressly/goose/v3"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// Storage keys.
const (
	KeyProfiles     = "ALLERGYCARE_USER_PROFILES"
	KeyFoodEntries  = "ALLERGYCARE_FOOD_LOGS"
	KeySymptoms     = "ALLERGYCARE_SYMPTOM_LOGS"
	KeySettings     = "ALLERGYCARE_APP_SETTINGS"
	KeySuggestion   = "ALLERGYCARE_AI_SUGGESTIONS"
	KeyLastActivity = "ALLERGYCARE_LAST_ACTIVITY"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store owns the SQLite handle. Writes are serialized by mu; a transaction
// started by RunInTx travels in the context.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the database file at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping kv store: %v", domain.ErrStoreUnavailable, err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("kv migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, sub)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type txCtxKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) querier(ctx context.Context) querier {
	if tx, ok := ctx.Value(txCtxKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// RunInTx executes fn within one SQLite transaction. A nested call joins the
// outer transaction. On panic the transaction is rolled back and the panic
// re-raised.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txCtxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err, "transaction")
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, txCtxKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err, "commit")
	}
	return nil
}

// get reads the raw value under key. found is false when the key is unset.
func (s *Store) get(ctx context.Context, key string) (raw string, found bool, err error) {
	err = s.querier(ctx).QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapError(err, key)
	}
	return raw, true, nil
}

const upsertSQL = `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// put writes raw under key and records the last activity in the same
// transaction.
func (s *Store) put(ctx context.Context, key, raw string) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		if _, err := s.querier(ctx).ExecContext(ctx, upsertSQL, key, raw, now.Format(time.RFC3339Nano)); err != nil {
			return mapError(err, key)
		}
		return s.touch(ctx, now)
	})
}

// remove deletes key and records the last activity.
func (s *Store) remove(ctx context.Context, key string) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		res, err := s.querier(ctx).ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
		if err != nil {
			return mapError(err, key)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		return s.touch(ctx, time.Now().UTC())
	})
}

func (s *Store) touch(ctx context.Context, at time.Time) error {
	stamp := at.Format(time.RFC3339Nano)
	_, err := s.querier(ctx).ExecContext(ctx, upsertSQL, KeyLastActivity, `"`+stamp+`"`, stamp)
	return mapError(err, KeyLastActivity)
}

// LastActivity returns the instant of the last write, or nil.
func (s *Store) LastActivity(ctx context.Context) (*time.Time, error) {
	raw, found, err := s.get(ctx, KeyLastActivity)
	if err != nil || !found {
		return nil, err
	}
	var at time.Time
	if err := decode(raw, KeyLastActivity, &at); err != nil {
		return nil, err
	}
	return &at, nil
}

func mapError(err error, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("kv %s: %w", key, err)
	}
	return fmt.Errorf("kv %s: %w: %v", key, domain.ErrStoreUnavailable, err)
}
