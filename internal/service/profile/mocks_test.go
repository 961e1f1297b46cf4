package profile

import (
	"context"
	"sync"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

type profileRepoMock struct {
	ListFunc    func(ctx context.Context) ([]domain.Profile, error)
	GetByIDFunc func(ctx context.Context, id string) (*domain.Profile, error)
	CreateFunc  func(ctx context.Context, p domain.Profile) (*domain.Profile, error)
	UpdateFunc  func(ctx context.Context, p domain.Profile) (*domain.Profile, error)
	DeleteFunc  func(ctx context.Context, id string) error

	mu      sync.Mutex
	created []domain.Profile
	updated []domain.Profile
	deleted []string
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

func (m *profileRepoMock) Create(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	m.mu.Lock()
	m.created = append(m.created, p)
	m.mu.Unlock()
	if m.CreateFunc == nil {
		return &p, nil
	}
	return m.CreateFunc(ctx, p)
}

func (m *profileRepoMock) Update(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	m.mu.Lock()
	m.updated = append(m.updated, p)
	m.mu.Unlock()
	if m.UpdateFunc == nil {
		return &p, nil
	}
	return m.UpdateFunc(ctx, p)
}

func (m *profileRepoMock) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, id)
	m.mu.Unlock()
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, id)
}

type foodRepoMock struct {
	RemoveProfileRefFunc  func(ctx context.Context, profileID string) (int, error)
	RetainProfileRefsFunc func(ctx context.Context, keep []string) (int, error)
}

func (m *foodRepoMock) RemoveProfileRef(ctx context.Context, profileID string) (int, error) {
	if m.RemoveProfileRefFunc == nil {
		panic("foodRepoMock.RemoveProfileRefFunc: method is nil but foodRepo.RemoveProfileRef was just called")
	}
	return m.RemoveProfileRefFunc(ctx, profileID)
}

func (m *foodRepoMock) RetainProfileRefs(ctx context.Context, keep []string) (int, error) {
	if m.RetainProfileRefsFunc == nil {
		panic("foodRepoMock.RetainProfileRefsFunc: method is nil but foodRepo.RetainProfileRefs was just called")
	}
	return m.RetainProfileRefsFunc(ctx, keep)
}

type symptomRepoMock struct {
	DeleteByProfileFunc func(ctx context.Context, profileID string) (int, error)
	DeleteOrphansFunc   func(ctx context.Context, keep []string) (int, error)
}

func (m *symptomRepoMock) DeleteByProfile(ctx context.Context, profileID string) (int, error) {
	if m.DeleteByProfileFunc == nil {
		panic("symptomRepoMock.DeleteByProfileFunc: method is nil but symptomRepo.DeleteByProfile was just called")
	}
	return m.DeleteByProfileFunc(ctx, profileID)
}

func (m *symptomRepoMock) DeleteOrphans(ctx context.Context, keep []string) (int, error) {
	if m.DeleteOrphansFunc == nil {
		panic("symptomRepoMock.DeleteOrphansFunc: method is nil but symptomRepo.DeleteOrphans was just called")
	}
	return m.DeleteOrphansFunc(ctx, keep)
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
