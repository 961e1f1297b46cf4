package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/adapter/postgres/state"
	"github.com/heartmarshall/allergycare-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

func TestRepo_Settings(t *testing.T) {
	t.Parallel()
	repo := state.New(testhelper.SetupTestDB(t))
	ctx := context.Background()

	got, err := repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got.Name != nil || got.Notes != nil {
		t.Errorf("expected empty settings, got %+v", got)
	}

	name := "Family Diary"
	if err := repo.SaveSettings(ctx, domain.AppSettings{Name: &name}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	got, err = repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got.Name == nil || *got.Name != name {
		t.Errorf("Name mismatch: got %v", got.Name)
	}

	last, err := repo.LastActivity(ctx)
	if err != nil {
		t.Fatalf("LastActivity: %v", err)
	}
	if last == nil || time.Since(*last) > time.Minute {
		t.Errorf("expected recent last activity, got %v", last)
	}
}

func TestRepo_Suggestion(t *testing.T) {
	t.Parallel()
	repo := state.New(testhelper.SetupTestDB(t))
	ctx := context.Background()

	got, err := repo.GetSuggestion(ctx)
	if err != nil || got != nil {
		t.Fatalf("expected no suggestion, got %v (err %v)", got, err)
	}

	s := domain.Suggestion{
		PossibleTriggers: []string{"Milk"},
		Explanation:      "Milk often precedes cramps.",
		Source:           domain.SuggestionSourceModel,
		GeneratedAt:      time.Now().UTC().Truncate(time.Second),
	}
	if err := repo.SaveSuggestion(ctx, s); err != nil {
		t.Fatalf("SaveSuggestion: %v", err)
	}

	got, err = repo.GetSuggestion(ctx)
	if err != nil {
		t.Fatalf("GetSuggestion: %v", err)
	}
	if got == nil || got.Explanation != s.Explanation || got.Source != s.Source {
		t.Errorf("suggestion mismatch: got %+v", got)
	}

	if err := repo.ClearSuggestion(ctx); err != nil {
		t.Fatalf("ClearSuggestion: %v", err)
	}
	got, _ = repo.GetSuggestion(ctx)
	if got != nil {
		t.Errorf("expected cleared suggestion, got %+v", got)
	}
}

func TestRepo_LastActivity_Empty(t *testing.T) {
	t.Parallel()
	repo := state.New(testhelper.SetupTestDB(t))

	last, err := repo.LastActivity(context.Background())
	if err != nil {
		t.Fatalf("LastActivity: %v", err)
	}
	if last != nil {
		t.Errorf("expected nil last activity, got %v", last)
	}
}
