package analysis

import (
	"context"
	"sync"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

type foodRepoMock struct {
	ListFunc func(ctx context.Context) ([]domain.FoodEntry, error)
}

func (m *foodRepoMock) List(ctx context.Context) ([]domain.FoodEntry, error) {
	if m.ListFunc == nil {
		return []domain.FoodEntry{}, nil
	}
	return m.ListFunc(ctx)
}

type symptomRepoMock struct {
	ListFunc func(ctx context.Context) ([]domain.SymptomEntry, error)
}

func (m *symptomRepoMock) List(ctx context.Context) ([]domain.SymptomEntry, error) {
	if m.ListFunc == nil {
		return []domain.SymptomEntry{}, nil
	}
	return m.ListFunc(ctx)
}

type profileRepoMock struct {
	ListFunc func(ctx context.Context) ([]domain.Profile, error)
}

func (m *profileRepoMock) List(ctx context.Context) ([]domain.Profile, error) {
	if m.ListFunc == nil {
		return []domain.Profile{}, nil
	}
	return m.ListFunc(ctx)
}

type suggestionRepoMock struct {
	GetSuggestionFunc   func(ctx context.Context) (*domain.Suggestion, error)
	SaveSuggestionFunc  func(ctx context.Context, s domain.Suggestion) error
	ClearSuggestionFunc func(ctx context.Context) error

	mu      sync.Mutex
	saved   []domain.Suggestion
	cleared int
}

func (m *suggestionRepoMock) GetSuggestion(ctx context.Context) (*domain.Suggestion, error) {
	if m.GetSuggestionFunc == nil {
		panic("suggestionRepoMock.GetSuggestionFunc: method is nil but suggestionRepo.GetSuggestion was just called")
	}
	return m.GetSuggestionFunc(ctx)
}

func (m *suggestionRepoMock) SaveSuggestion(ctx context.Context, s domain.Suggestion) error {
	m.mu.Lock()
	m.saved = append(m.saved, s)
	m.mu.Unlock()
	if m.SaveSuggestionFunc == nil {
		return nil
	}
	return m.SaveSuggestionFunc(ctx, s)
}

func (m *suggestionRepoMock) ClearSuggestion(ctx context.Context) error {
	m.mu.Lock()
	m.cleared++
	m.mu.Unlock()
	if m.ClearSuggestionFunc == nil {
		return nil
	}
	return m.ClearSuggestionFunc(ctx)
}

func (m *suggestionRepoMock) savedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type advisorMock struct {
	SuggestTriggersFunc func(ctx context.Context, foods, symptoms []string) (*domain.Suggestion, error)
	ReviewLogsFunc      func(ctx context.Context, foodLog, symptomLog string) (*domain.Suggestion, error)
}

func (m *advisorMock) SuggestTriggers(ctx context.Context, foods, symptoms []string) (*domain.Suggestion, error) {
	if m.SuggestTriggersFunc == nil {
		panic("advisorMock.SuggestTriggersFunc: method is nil but advisor.SuggestTriggers was just called")
	}
	return m.SuggestTriggersFunc(ctx, foods, symptoms)
}

func (m *advisorMock) ReviewLogs(ctx context.Context, foodLog, symptomLog string) (*domain.Suggestion, error) {
	if m.ReviewLogsFunc == nil {
		panic("advisorMock.ReviewLogsFunc: method is nil but advisor.ReviewLogs was just called")
	}
	return m.ReviewLogsFunc(ctx, foodLog, symptomLog)
}
