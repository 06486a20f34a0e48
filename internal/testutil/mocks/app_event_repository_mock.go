package mocks

import (
	"context"

	"github.com/ksebe/streakd/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockAppEventRepository is a mock implementation of repository.AppEventRepository
type MockAppEventRepository struct {
	mock.Mock
}

func (m *MockAppEventRepository) Insert(ctx context.Context, event models.AppEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAppEventRepository) List(ctx context.Context, userID string, limit int) ([]models.AppEvent, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AppEvent), args.Error(1)
}
