package diary

import (
	"context"
	"sync"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

type foodRepoMock struct {
	ListFunc    func(ctx context.Context) ([]domain.FoodEntry, error)
	GetByIDFunc func(ctx context.Context, id string) (*domain.FoodEntry, error)
	CreateFunc  func(ctx context.Context, e domain.FoodEntry) (*domain.FoodEntry, error)
	UpdateFunc  func(ctx context.Context, e domain.FoodEntry) (*domain.FoodEntry, error)
	DeleteFunc  func(ctx context.Context, id string) error

	mu      sync.Mutex
	created []domain.FoodEntry
	updated []domain.FoodEntry
}

func (m *foodRepoMock) List(ctx context.Context) ([]domain.FoodEntry, error) {
	if m.ListFunc == nil {
		panic("foodRepoMock.ListFunc: method is nil but foodRepo.List was just called")
	}
	return m.ListFunc(ctx)
}

func (m *foodRepoMock) GetByID(ctx context.Context, id string) (*domain.FoodEntry, error) {
	if m.GetByIDFunc == nil {
		panic("foodRepoMock.GetByIDFunc: method is nil but foodRepo.GetByID was just called")
	}
	return m.GetByIDFunc(ctx, id)
}

func (m *foodRepoMock) Create(ctx context.Context, e domain.FoodEntry) (*domain.FoodEntry, error) {
	m.mu.Lock()
	m.created = append(m.created, e)
	m.mu.Unlock()
	if m.CreateFunc == nil {
		return &e, nil
	}
	return m.CreateFunc(ctx, e)
}

func (m *foodRepoMock) Update(ctx context.Context, e domain.FoodEntry) (*domain.FoodEntry, error) {
	m.mu.Lock()
	m.updated = append(m.updated, e)
	m.mu.Unlock()
	if m.UpdateFunc == nil {
		return &e, nil
	}
	return m.UpdateFunc(ctx, e)
}

func (m *foodRepoMock) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, id)
}

type symptomRepoMock struct {
	ListFunc    func(ctx context.Context) ([]domain.SymptomEntry, error)
	GetByIDFunc func(ctx context.Context, id string) (*domain.SymptomEntry, error)
	CreateFunc  func(ctx context.Context, e domain.SymptomEntry) (*domain.SymptomEntry, error)
	UpdateFunc  func(ctx context.Context, e domain.SymptomEntry) (*domain.SymptomEntry, error)
	DeleteFunc  func(ctx context.Context, id string) error

	mu      sync.Mutex
	created []domain.SymptomEntry
	updated []domain.SymptomEntry
}

func (m *symptomRepoMock) List(ctx context.Context) ([]domain.SymptomEntry, error) {
	if m.ListFunc == nil {
		panic("symptomRepoMock.ListFunc: method is nil but symptomRepo.List was just called")
	}
	return m.ListFunc(ctx)
}

func (m *symptomRepoMock) GetByID(ctx context.Context, id string) (*domain.SymptomEntry, error) {
	if m.GetByIDFunc == nil {
		panic("symptomRepoMock.GetByIDFunc: method is nil but symptomRepo.GetByID was just called")
	}
	return m.GetByIDFunc(ctx, id)
}

func (m *symptomRepoMock) Create(ctx context.Context, e domain.SymptomEntry) (*domain.SymptomEntry, error) {
	m.mu.Lock()
	m.created = append(m.created, e)
	m.mu.Unlock()
	if m.CreateFunc == nil {
		return &e, nil
	}
	return m.CreateFunc(ctx, e)
}

func (m *symptomRepoMock) Update(ctx context.Context, e domain.SymptomEntry) (*domain.SymptomEntry, error) {
	m.mu.Lock()
	m.updated = append(m.updated, e)
	m.mu.Unlock()
	if m.UpdateFunc == nil {
		return &e, nil
	}
	return m.UpdateFunc(ctx, e)
}

func (m *symptomRepoMock) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, id)
}

type profileRepoMock struct {
	ListFunc    func(ctx context.Context) ([]domain.Profile, error)
	GetByIDFunc func(ctx context.Context, id string) (*domain.Profile, error)
}

func (m *profileRepoMock) List(ctx context.Context) ([]domain.Profile, error) {
	if m.ListFunc == nil {
		panic("profileRepoMock.ListFunc: method is nil but profileRepo.List was just called")
	}
	return m.ListFunc(ctx)
}

func (m *profileRepoMock) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if m.GetByIDFunc == nil {
		panic("profileRepoMock.GetByIDFunc: method is nil but profileRepo.GetByID was just called")
	}
	return m.GetByIDFunc(ctx, id)
}

// knownProfiles returns a GetByID func that finds only the given ids.
func knownProfiles(ids ...string) func(ctx context.Context, id string) (*domain.Profile, error) {
	return func(_ context.Context, id string) (*domain.Profile, error) {
		for _, known := range ids {
			if known == id {
				return &domain.Profile{ID: id, Name: "P " + id}, nil
			}
		}
		return nil, domain.ErrNotFound
	}
}

type activityReaderMock struct {
	LastActivityFunc func(ctx context.Context) (*time.Time, error)
}

func (m *activityReaderMock) LastActivity(ctx context.Context) (*time.Time, error) {
	if m.LastActivityFunc == nil {
		return nil, nil
	}
	return m.LastActivityFunc(ctx)
}

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
	calls       int
}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.RunInTxFunc == nil {
		return fn(ctx)
	}
	return m.RunInTxFunc(ctx, fn)
}
