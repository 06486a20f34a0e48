package mocks

import (
	"context"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockPracticeEventRepository is a mock implementation of repository.PracticeEventRepository
type MockPracticeEventRepository struct {
	mock.Mock
}

func (m *MockPracticeEventRepository) Upsert(ctx context.Context, events []models.PracticeEvent) (int, error) {
	args := m.Called(ctx, events)
	return args.Int(0), args.Error(1)
}

func (m *MockPracticeEventRepository) Days(ctx context.Context, userID, kind string) ([]datekey.Key, error) {
	args := m.Called(ctx, userID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datekey.Key), args.Error(1)
}
