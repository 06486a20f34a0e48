package mocks

import (
	"context"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/stretchr/testify/mock"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueuePush(ctx context.Context, userID string, day datekey.Key) error {
	args := m.Called(ctx, userID, day)
	return args.Error(0)
}

func (m *MockJobQueue) EnqueueSync(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
