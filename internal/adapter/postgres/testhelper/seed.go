package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// now returns the current instant at Postgres precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// SeedProfile inserts a profile with an empty details document.
func SeedProfile(t *testing.T, pool *pgxpool.Pool) domain.Profile {
	t.Helper()

	ts := now()
	p := domain.Profile{
		ID:        uuid.NewString(),
		Name:      "Profile " + uniqueSuffix(),
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO profiles (id, name, details, created_at, updated_at) VALUES ($1, $2, '{}', $3, $4)`,
		p.ID, p.Name, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedProfile: %v", err)
	}
	return p
}

// SeedFoodEntry inserts a meal linked to the given profiles.
func SeedFoodEntry(t *testing.T, pool *pgxpool.Pool, foodItems string, at time.Time, profileIDs ...string) domain.FoodEntry {
	t.Helper()
	ctx := context.Background()

	f := domain.FoodEntry{
		ID:         uuid.NewString(),
		Timestamp:  at.UTC().Truncate(time.Microsecond),
		FoodItems:  foodItems,
		ProfileIDs: append([]string{}, profileIDs...),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO food_entries (id, eaten_at, food_items) VALUES ($1, $2, $3)`,
		f.ID, f.Timestamp, f.FoodItems,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedFoodEntry insert entry: %v", err)
	}

	for i, pid := range profileIDs {
		_, err := pool.Exec(ctx,
			`INSERT INTO food_entry_profiles (food_entry_id, profile_id, position) VALUES ($1, $2, $3)`,
			f.ID, pid, i,
		)
		if err != nil {
			t.Fatalf("testhelper: SeedFoodEntry link profile: %v", err)
		}
	}
	return f
}

// SeedSymptomEntry inserts a symptom owned by profileID.
func SeedSymptomEntry(t *testing.T, pool *pgxpool.Pool, profileID, symptom string, severity domain.Severity, start time.Time) domain.SymptomEntry {
	t.Helper()

	s := domain.SymptomEntry{
		ID:        uuid.NewString(),
		LoggedAt:  now(),
		Symptom:   symptom,
		Category:  domain.CategorySkin,
		Severity:  severity,
		StartTime: start.UTC().Truncate(time.Microsecond),
		Duration:  "30 minutes",
		ProfileID: profileID,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO symptom_entries (id, logged_at, symptom, category, severity, start_time, duration, profile_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.LoggedAt, s.Symptom, string(s.Category), int(s.Severity), s.StartTime, s.Duration, s.ProfileID,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedSymptomEntry: %v", err)
	}
	return s
}
