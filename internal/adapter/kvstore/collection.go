package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// collection is a JSON array of records stored under one key.
type collection[T any] struct {
	store *Store
	key   string
	id    func(T) string
}

// load returns the stored records, or an empty slice when the key is unset.
// A document that no longer decodes is reported as an unavailable store.
func (c collection[T]) load(ctx context.Context) ([]T, error) {
	raw, found, err := c.store.get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	items := []T{}
	if !found {
		return items, nil
	}
	if err := decode(raw, c.key, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c collection[T]) save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.store.putJSON(ctx, c.key, items)
}

// mutate loads, applies fn and saves inside one transaction. fn returns
// whether anything changed; nothing is written otherwise.
func (c collection[T]) mutate(ctx context.Context, fn func([]T) ([]T, bool, error)) error {
	return c.store.RunInTx(ctx, func(ctx context.Context) error {
		items, err := c.load(ctx)
		if err != nil {
			return err
		}
		next, changed, err := fn(items)
		if err != nil || !changed {
			return err
		}
		return c.save(ctx, next)
	})
}

func (c collection[T]) getByID(ctx context.Context, id string) (*T, error) {
	items, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if c.id(items[i]) == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w", c.key, id, domain.ErrNotFound)
}

func (c collection[T]) create(ctx context.Context, item T) error {
	return c.mutate(ctx, func(items []T) ([]T, bool, error) {
		for _, existing := range items {
			if c.id(existing) == c.id(item) {
				return nil, false, fmt.Errorf("%s %s: %w", c.key, c.id(item), domain.ErrConflict)
			}
		}
		return append(items, item), true, nil
	})
}

func (c collection[T]) update(ctx context.Context, item T, merge func(stored, next T) T) (*T, error) {
	var result T
	err := c.mutate(ctx, func(items []T) ([]T, bool, error) {
		for i := range items {
			if c.id(items[i]) == c.id(item) {
				items[i] = merge(items[i], item)
				result = items[i]
				return items, true, nil
			}
		}
		return nil, false, fmt.Errorf("%s %s: %w", c.key, c.id(item), domain.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// removeWhere drops every record matching drop and returns how many went.
func (c collection[T]) removeWhere(ctx context.Context, drop func(T) bool) (int, error) {
	removed := 0
	err := c.mutate(ctx, func(items []T) ([]T, bool, error) {
		kept := make([]T, 0, len(items))
		for _, item := range items {
			if drop(item) {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		return kept, removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv %s: encode: %w", key, err)
	}
	return s.put(ctx, key, string(raw))
}

func decode(raw, key string, dst any) error {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("kv %s: %w: decode: %v", key, domain.ErrStoreUnavailable, err)
	}
	return nil
}
