package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/allergycare-backend/internal/config"
	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

var base = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	foods       *foodRepoMock
	symptoms    *symptomRepoMock
	profiles    *profileRepoMock
	suggestions *suggestionRepoMock
	advisor     *advisorMock
	loc         *time.Location
}

func newFixture() *fixture {
	return &fixture{
		foods:       &foodRepoMock{},
		symptoms:    &symptomRepoMock{},
		profiles:    &profileRepoMock{},
		suggestions: &suggestionRepoMock{},
		advisor:     &advisorMock{},
		loc:         time.UTC,
	}
}

func (f *fixture) service() *Service {
	return NewService(testLogger(), f.foods, f.symptoms, f.profiles, f.suggestions, f.advisor,
		config.AnalysisConfig{HighConfidence: 70, Location: f.loc},
		config.AdvisoryConfig{TaskTTL: time.Minute, MaxTasks: 8},
	)
}

func (f *fixture) withMilkBread() {
	f.foods.ListFunc = func(context.Context) ([]domain.FoodEntry, error) {
		return []domain.FoodEntry{{ID: "f1", FoodItems: "Milk, Bread", Timestamp: base, ProfileIDs: []string{"p1"}}}, nil
	}
	f.symptoms.ListFunc = func(context.Context) ([]domain.SymptomEntry, error) {
		return []domain.SymptomEntry{{
			ID: "s1", Symptom: "rash", Category: domain.CategorySkin, Severity: 6,
			StartTime: base.Add(2 * time.Hour), Duration: "1h", ProfileID: "p1",
			LinkedFoodEntryID: ptr("f1"),
		}}, nil
	}
	f.profiles.ListFunc = func(context.Context) ([]domain.Profile, error) {
		return []domain.Profile{{ID: "p1", Name: "Mia"}}, nil
	}
}

func modelSuggestion(triggers ...string) *domain.Suggestion {
	return &domain.Suggestion{PossibleTriggers: triggers, Explanation: "ok", Source: domain.SuggestionSourceModel, GeneratedAt: base}
}

// ---------------------------------------------------------------------------
// AnalyzeTriggers
// ---------------------------------------------------------------------------

func TestAnalyzeTriggers_RanksAndRunsAdvisory(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.withMilkBread()
	var gotFoods, gotSymptoms []string
	f.advisor.SuggestTriggersFunc = func(_ context.Context, foods, symptoms []string) (*domain.Suggestion, error) {
		gotFoods, gotSymptoms = foods, symptoms
		return modelSuggestion("Milk"), nil
	}

	report, err := f.service().AnalyzeTriggers(context.Background(), TriggerAnalysisInput{Wait: true})
	require.NoError(t, err)

	require.Len(t, report.Triggers, 2)
	assert.Equal(t, "milk", report.Triggers[0].Food)
	assert.Equal(t, 100, report.Triggers[0].Confidence)
	assert.Equal(t, 2, report.Summary.HighConfidence)
	assert.Equal(t, 100, report.Summary.AverageConfidence)
	assert.Equal(t, 1, report.Summary.SymptomsConsidered)
	assert.Equal(t, 1, report.Summary.FoodsConsidered)

	require.NotNil(t, report.Advisory)
	assert.Equal(t, TaskSucceeded, report.Advisory.Status)
	assert.Equal(t, []string{"Milk"}, report.Advisory.Suggestion.PossibleTriggers)
	assert.Equal(t, []string{"milk", "bread"}, gotFoods)
	assert.Equal(t, []string{"rash"}, gotSymptoms)
}

func TestAnalyzeTriggers_AdvisoryFailureKeepsRanking(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.withMilkBread()
	f.advisor.SuggestTriggersFunc = func(context.Context, []string, []string) (*domain.Suggestion, error) {
		return nil, fmt.Errorf("llm: %w", domain.ErrAdvisoryUnavailable)
	}

	report, err := f.service().AnalyzeTriggers(context.Background(), TriggerAnalysisInput{Wait: true})
	require.NoError(t, err)

	assert.Len(t, report.Triggers, 2)
	require.NotNil(t, report.Advisory)
	assert.Equal(t, TaskFailed, report.Advisory.Status)
	assert.Equal(t, NoNarrativeMessage, report.Advisory.Message)
	assert.ErrorIs(t, report.Advisory.Err(), domain.ErrAdvisoryUnavailable)
	assert.Nil(t, report.Advisory.Suggestion)
}

func TestAnalyzeTriggers_NoSymptomsSkipsAdvisory(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.foods.ListFunc = func(context.Context) ([]domain.FoodEntry, error) {
		return []domain.FoodEntry{{ID: "f1", FoodItems: "egg", Timestamp: base}}, nil
	}

	report, err := f.service().AnalyzeTriggers(context.Background(), TriggerAnalysisInput{})
	require.NoError(t, err)

	assert.NotNil(t, report.Triggers)
	assert.Empty(t, report.Triggers)
	assert.Nil(t, report.Advisory)
	assert.Zero(t, report.Summary.TotalTriggers)
}

func TestAnalyzeTriggers_StoreUnavailableDegrades(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.foods.ListFunc = func(context.Context) ([]domain.FoodEntry, error) {
		return nil, fmt.Errorf("decode: %w", domain.ErrStoreUnavailable)
	}

	report, err := f.service().AnalyzeTriggers(context.Background(), TriggerAnalysisInput{})
	require.NoError(t, err)
	assert.Empty(t, report.Triggers)
	assert.Nil(t, report.Advisory)
}

func TestAnalyzeTriggers_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	_, err := f.service().AnalyzeTriggers(context.Background(), TriggerAnalysisInput{
		From:        "2024-02-10",
		To:          "2024-02-01",
		MinSeverity: ptr(0),
		Categories:  []string{"ears"},
	})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 3)
}

func TestAnalyzeTriggers_FiltersByDayInTimezone(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.loc = time.FixedZone("UTC+2", 2*3600)
	f.foods.ListFunc = func(context.Context) ([]domain.FoodEntry, error) {
		return []domain.FoodEntry{
			// 2024-01-01 23:30 local, outside the range
			{ID: "late", FoodItems: "wine", Timestamp: time.Date(2024, 1, 1, 21, 30, 0, 0, time.UTC)},
			// 2024-01-02 00:30 local
			{ID: "early", FoodItems: "coffee", Timestamp: time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC)},
		}, nil
	}
	f.symptoms.ListFunc = func(context.Context) ([]domain.SymptomEntry, error) {
		return []domain.SymptomEntry{{
			ID: "s1", Symptom: "headache", Category: domain.CategoryGeneral, Severity: 4,
			StartTime: time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC), ProfileID: "p1",
		}}, nil
	}
	f.advisor.SuggestTriggersFunc = func(context.Context, []string, []string) (*domain.Suggestion, error) {
		return modelSuggestion(), nil
	}

	report, err := f.service().AnalyzeTriggers(context.Background(), TriggerAnalysisInput{
		From: "2024-01-02", To: "2024-01-02", Wait: true,
	})
	require.NoError(t, err)

	require.Len(t, report.Triggers, 1)
	assert.Equal(t, "coffee", report.Triggers[0].Food)
	assert.Equal(t, 1, report.Summary.FoodsConsidered)
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

func TestTask_PendingThenDetachedFromRequest(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	f := newFixture()
	f.withMilkBread()
	f.advisor.SuggestTriggersFunc = func(ctx context.Context, _, _ []string) (*domain.Suggestion, error) {
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return modelSuggestion("Bread"), nil
	}
	svc := f.service()

	reqCtx, cancel := context.WithCancel(context.Background())
	report, err := svc.AnalyzeTriggers(reqCtx, TriggerAnalysisInput{})
	require.NoError(t, err)
	require.NotNil(t, report.Advisory)
	assert.Equal(t, TaskPending, report.Advisory.Status)

	cancel()
	close(release)

	task, err := svc.WaitTask(context.Background(), report.Advisory.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskSucceeded, task.Status)
	assert.NotNil(t, task.FinishedAt)

	polled, err := svc.GetTask(context.Background(), report.Advisory.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskSucceeded, polled.Status)

	require.NoError(t, svc.Close(context.Background()))
}

func TestGetTask_Unknown(t *testing.T) {
	t.Parallel()

	_, err := newFixture().service().GetTask(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTask_PanicMarksFailed(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.withMilkBread()
	f.advisor.SuggestTriggersFunc = func(context.Context, []string, []string) (*domain.Suggestion, error) {
		panic("boom")
	}

	report, err := f.service().AnalyzeTriggers(context.Background(), TriggerAnalysisInput{Wait: true})
	require.NoError(t, err)
	assert.Equal(t, TaskFailed, report.Advisory.Status)
}

func TestTask_NilSuggestionMarksFailed(t *testing.T) {
	t.Parallel()

	var logs strings.Builder
	r := newRegistry(4, time.Minute, slog.New(slog.NewTextHandler(&logs, nil)))
	task := r.start(context.Background(), TaskKindTriggers, func(context.Context) (*domain.Suggestion, error) {
		return nil, nil
	})

	got, ok := r.wait(context.Background(), task.ID)
	require.True(t, ok)
	assert.Equal(t, TaskFailed, got.Status)
	assert.Equal(t, NoNarrativeMessage, got.Message)
	assert.ErrorIs(t, got.Err(), domain.ErrAdvisoryUnavailable)

	require.NoError(t, r.drain(context.Background()))
	assert.Contains(t, logs.String(), "advisory task failed")
	assert.NotContains(t, logs.String(), "panicked")
}

func TestTask_StartAfterDrainIsRejected(t *testing.T) {
	t.Parallel()

	r := newRegistry(4, time.Minute, testLogger())
	require.NoError(t, r.drain(context.Background()))

	called := false
	task := r.start(context.Background(), TaskKindLogReview, func(context.Context) (*domain.Suggestion, error) {
		called = true
		return &domain.Suggestion{}, nil
	})

	assert.Equal(t, TaskFailed, task.Status)
	assert.ErrorIs(t, task.Err(), domain.ErrAdvisoryUnavailable)
	assert.False(t, called)

	got, ok := r.wait(context.Background(), task.ID)
	require.True(t, ok)
	assert.Equal(t, TaskFailed, got.Status)
}

func TestTask_ConcurrentStartAndDrain(t *testing.T) {
	t.Parallel()

	r := newRegistry(64, time.Minute, testLogger())
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.start(context.Background(), TaskKindTriggers, func(context.Context) (*domain.Suggestion, error) {
				return &domain.Suggestion{Source: domain.SuggestionSourceModel}, nil
			})
		}()
	}
	require.NoError(t, r.drain(context.Background()))
	wg.Wait()
}

// ---------------------------------------------------------------------------
// ReviewLogs and the suggestion cache
// ---------------------------------------------------------------------------

func TestReviewLogs_SavesSuggestion(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.withMilkBread()
	var foodLog, symptomLog string
	f.advisor.ReviewLogsFunc = func(_ context.Context, fl, sl string) (*domain.Suggestion, error) {
		foodLog, symptomLog = fl, sl
		return modelSuggestion("Milk"), nil
	}

	task, err := f.service().ReviewLogs(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, TaskSucceeded, task.Status)
	assert.Equal(t, TaskKindLogReview, task.Kind)
	assert.Equal(t, 1, f.suggestions.cleared)
	assert.Equal(t, 1, f.suggestions.savedCount())

	assert.Equal(t, "- On 2024-01-01 08:00, ate: Milk, Bread (profiles: Mia)", foodLog)
	assert.Equal(t,
		"- On 2024-01-01 10:00, symptom: rash, category: skin, severity: 6/10, duration: 1h, profile: Mia"+
			" (possibly linked to: Milk, Bread on 2024-01-01 08:00)",
		symptomLog)
}

func TestReviewLogs_EmptyDiary(t *testing.T) {
	t.Parallel()

	f := newFixture()
	task, err := f.service().ReviewLogs(context.Background(), false)

	assert.Nil(t, task)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
	assert.Equal(t, 1, f.suggestions.cleared)
}

func TestReviewLogs_FailureWithWait(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.withMilkBread()
	f.advisor.ReviewLogsFunc = func(context.Context, string, string) (*domain.Suggestion, error) {
		return nil, domain.ErrAdvisoryUnavailable
	}

	task, err := f.service().ReviewLogs(context.Background(), true)
	assert.ErrorIs(t, err, domain.ErrAdvisoryUnavailable)
	require.NotNil(t, task)
	assert.Equal(t, TaskFailed, task.Status)
	assert.Zero(t, f.suggestions.savedCount())
}

func TestFormatLogs_UnknownProfilesAndOrder(t *testing.T) {
	t.Parallel()

	svc := newFixture().service()
	foodLog, symptomLog := svc.formatLogs(
		[]domain.FoodEntry{
			{ID: "b", FoodItems: "tea", Timestamp: base.Add(time.Hour)},
			{ID: "a", FoodItems: "egg", Timestamp: base, ProfileIDs: []string{"gone"}},
		},
		[]domain.SymptomEntry{{
			ID: "s", Symptom: "itch", Category: domain.CategorySkin, Severity: 2,
			StartTime: base, Duration: "5m", ProfileID: "gone", LinkedFoodEntryID: ptr("deleted"),
		}},
		nil,
	)

	lines := strings.Split(foodLog, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "egg (profiles: unknown profile)")
	assert.Contains(t, lines[1], "tea (profiles: no profile)")
	assert.NotContains(t, symptomLog, "possibly linked")
	assert.Contains(t, symptomLog, "profile: unknown profile")
}

func TestGetSuggestion(t *testing.T) {
	t.Parallel()

	t.Run("stored", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.suggestions.GetSuggestionFunc = func(context.Context) (*domain.Suggestion, error) {
			return modelSuggestion("Egg"), nil
		}
		got, err := f.service().GetSuggestion(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Egg"}, got.PossibleTriggers)
	})

	t.Run("store unavailable", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.suggestions.GetSuggestionFunc = func(context.Context) (*domain.Suggestion, error) {
			return nil, domain.ErrStoreUnavailable
		}
		got, err := f.service().GetSuggestion(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
