package repository

import (
	"context"
	"errors"
	"sync"
)

// ErrStoreUnavailable is returned by a MemoryStore that has been told to fail.
var ErrStoreUnavailable = errors.New("store unavailable")

// MemoryStore is an in-process KVStore. It is safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	data      map[string]string
	failWrite bool
	failRead  bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// FailWrites makes Set and Remove return ErrStoreUnavailable, like a full quota.
func (s *MemoryStore) FailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrite = fail
}

// FailReads makes Get return ErrStoreUnavailable.
func (s *MemoryStore) FailReads(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRead = fail
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failRead {
		return "", false, ErrStoreUnavailable
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite {
		return ErrStoreUnavailable
	}
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite {
		return ErrStoreUnavailable
	}
	delete(s.data, key)
	return nil
}

// Keys returns a snapshot of the stored keys, unordered.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

type namespacedStore struct {
	inner  KVStore
	prefix string
}

// Namespaced prefixes every key passed to inner with prefix. The server uses
// it to keep users apart on one shared store.
func Namespaced(inner KVStore, prefix string) KVStore {
	if prefix == "" {
		return inner
	}
	return &namespacedStore{inner: inner, prefix: prefix}
}

func (s *namespacedStore) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *namespacedStore) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *namespacedStore) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, s.prefix+key)
}

// UserNamespace is the key prefix used for a user's data.
func UserNamespace(userID string) string {
	return "user:" + userID + ":"
}
