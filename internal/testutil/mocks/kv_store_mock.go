package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockKVStore is a mock implementation of repository.KVStore
type MockKVStore struct {
	mock.Mock
}

func (m *MockKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockKVStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKVStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
