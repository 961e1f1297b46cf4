package kvstore

import (
	"context"
	"slices"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// ProfileRepo stores profiles under KeyProfiles in insertion order.
type ProfileRepo struct {
	c collection[domain.Profile]
}

// NewProfileRepo creates a profile repository on s.
func NewProfileRepo(s *Store) *ProfileRepo {
	return &ProfileRepo{c: collection[domain.Profile]{
		store: s,
		key:   KeyProfiles,
		id:    func(p domain.Profile) string { return p.ID },
	}}
}

func (r *ProfileRepo) List(ctx context.Context) ([]domain.Profile, error) {
	return r.c.load(ctx)
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return r.c.getByID(ctx, id)
}

func (r *ProfileRepo) Create(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	if err := r.c.create(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces the stored profile; the creation time is kept.
func (r *ProfileRepo) Update(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	return r.c.update(ctx, p, func(stored, next domain.Profile) domain.Profile {
		next.CreatedAt = stored.CreatedAt
		return next
	})
}

func (r *ProfileRepo) Delete(ctx context.Context, id string) error {
	_, err := r.c.removeWhere(ctx, func(p domain.Profile) bool { return p.ID == id })
	return err
}

func (r *ProfileRepo) ReplaceAll(ctx context.Context, profiles []domain.Profile) error {
	return r.c.save(ctx, profiles)
}

// FoodRepo stores food entries under KeyFoodEntries.
type FoodRepo struct {
	c collection[domain.FoodEntry]
}

// NewFoodRepo creates a food entry repository on s.
func NewFoodRepo(s *Store) *FoodRepo {
	return &FoodRepo{c: collection[domain.FoodEntry]{
		store: s,
		key:   KeyFoodEntries,
		id:    func(e domain.FoodEntry) string { return e.ID },
	}}
}

// List returns food entries ordered by timestamp. Entries with equal
// timestamps keep their stored order.
func (r *FoodRepo) List(ctx context.Context) ([]domain.FoodEntry, error) {
	entries, err := r.c.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ProfileIDs == nil {
			entries[i].ProfileIDs = []string{}
		}
	}
	slices.SortStableFunc(entries, func(a, b domain.FoodEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return entries, nil
}

func (r *FoodRepo) GetByID(ctx context.Context, id string) (*domain.FoodEntry, error) {
	return r.c.getByID(ctx, id)
}

func (r *FoodRepo) Create(ctx context.Context, e domain.FoodEntry) (*domain.FoodEntry, error) {
	if err := r.c.create(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update replaces the stored entry; the timestamp is immutable.
func (r *FoodRepo) Update(ctx context.Context, e domain.FoodEntry) (*domain.FoodEntry, error) {
	return r.c.update(ctx, e, func(stored, next domain.FoodEntry) domain.FoodEntry {
		next.Timestamp = stored.Timestamp
		return next
	})
}

func (r *FoodRepo) Delete(ctx context.Context, id string) error {
	_, err := r.c.removeWhere(ctx, func(e domain.FoodEntry) bool { return e.ID == id })
	return err
}

func (r *FoodRepo) ReplaceAll(ctx context.Context, entries []domain.FoodEntry) error {
	return r.c.save(ctx, entries)
}

// RemoveProfileRef drops profileID from every entry and returns the number of
// entries changed.
func (r *FoodRepo) RemoveProfileRef(ctx context.Context, profileID string) (int, error) {
	changed, _, err := r.prune(ctx, func(id string) bool { return id != profileID })
	return changed, err
}

// RetainProfileRefs drops every profile id not in keep and returns the number
// of references removed.
func (r *FoodRepo) RetainProfileRefs(ctx context.Context, keep []string) (int, error) {
	set := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		set[id] = struct{}{}
	}
	_, removed, err := r.prune(ctx, func(id string) bool {
		_, ok := set[id]
		return ok
	})
	return removed, err
}

// prune returns the number of entries changed and of references removed.
func (r *FoodRepo) prune(ctx context.Context, keep func(string) bool) (changed, removed int, err error) {
	err = r.c.mutate(ctx, func(entries []domain.FoodEntry) ([]domain.FoodEntry, bool, error) {
		for i := range entries {
			before := len(entries[i].ProfileIDs)
			entries[i].ProfileIDs = slices.DeleteFunc(entries[i].ProfileIDs, func(id string) bool { return !keep(id) })
			if n := before - len(entries[i].ProfileIDs); n > 0 {
				changed++
				removed += n
			}
		}
		return entries, changed > 0, nil
	})
	if err != nil {
		return 0, 0, err
	}
	return changed, removed, nil
}

// SymptomRepo stores symptom entries under KeySymptoms.
type SymptomRepo struct {
	c collection[domain.SymptomEntry]
}

// NewSymptomRepo creates a symptom entry repository on s.
func NewSymptomRepo(s *Store) *SymptomRepo {
	return &SymptomRepo{c: collection[domain.SymptomEntry]{
		store: s,
		key:   KeySymptoms,
		id:    func(e domain.SymptomEntry) string { return e.ID },
	}}
}

// List returns symptom entries ordered by start time.
func (r *SymptomRepo) List(ctx context.Context) ([]domain.SymptomEntry, error) {
	entries, err := r.c.load(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(entries, func(a, b domain.SymptomEntry) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return entries, nil
}

func (r *SymptomRepo) GetByID(ctx context.Context, id string) (*domain.SymptomEntry, error) {
	return r.c.getByID(ctx, id)
}

func (r *SymptomRepo) Create(ctx context.Context, e domain.SymptomEntry) (*domain.SymptomEntry, error) {
	if err := r.c.create(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update replaces the stored entry; loggedAt is immutable.
func (r *SymptomRepo) Update(ctx context.Context, e domain.SymptomEntry) (*domain.SymptomEntry, error) {
	return r.c.update(ctx, e, func(stored, next domain.SymptomEntry) domain.SymptomEntry {
		next.LoggedAt = stored.LoggedAt
		return next
	})
}

func (r *SymptomRepo) Delete(ctx context.Context, id string) error {
	_, err := r.c.removeWhere(ctx, func(e domain.SymptomEntry) bool { return e.ID == id })
	return err
}

func (r *SymptomRepo) ReplaceAll(ctx context.Context, entries []domain.SymptomEntry) error {
	return r.c.save(ctx, entries)
}

// DeleteByProfile removes every symptom owned by profileID.
func (r *SymptomRepo) DeleteByProfile(ctx context.Context, profileID string) (int, error) {
	return r.c.removeWhere(ctx, func(e domain.SymptomEntry) bool { return e.ProfileID == profileID })
}

// DeleteOrphans removes every symptom whose profile is not in keep.
func (r *SymptomRepo) DeleteOrphans(ctx context.Context, keep []string) (int, error) {
	return r.c.removeWhere(ctx, func(e domain.SymptomEntry) bool { return !slices.Contains(keep, e.ProfileID) })
}

// StateRepo holds the singleton slots.
type StateRepo struct {
	s *Store
}

// NewStateRepo creates a state repository on s.
func NewStateRepo(s *Store) *StateRepo {
	return &StateRepo{s: s}
}

// GetSettings returns the stored settings, or empty settings.
func (r *StateRepo) GetSettings(ctx context.Context) (domain.AppSettings, error) {
	raw, found, err := r.s.get(ctx, KeySettings)
	if err != nil || !found {
		return domain.AppSettings{}, err
	}
	var settings domain.AppSettings
	if err := decode(raw, KeySettings, &settings); err != nil {
		return domain.AppSettings{}, err
	}
	return settings, nil
}

func (r *StateRepo) SaveSettings(ctx context.Context, settings domain.AppSettings) error {
	return r.s.putJSON(ctx, KeySettings, settings)
}

// GetSuggestion returns the cached suggestion, or nil.
func (r *StateRepo) GetSuggestion(ctx context.Context) (*domain.Suggestion, error) {
	raw, found, err := r.s.get(ctx, KeySuggestion)
	if err != nil || !found {
		return nil, err
	}
	var s domain.Suggestion
	if err := decode(raw, KeySuggestion, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StateRepo) SaveSuggestion(ctx context.Context, s domain.Suggestion) error {
	return r.s.putJSON(ctx, KeySuggestion, s)
}

func (r *StateRepo) ClearSuggestion(ctx context.Context) error {
	return r.s.remove(ctx, KeySuggestion)
}

func (r *StateRepo) LastActivity(ctx context.Context) (*time.Time, error) {
	return r.s.LastActivity(ctx)
}
