// Package memory is a process-local SessionStorage. Nothing survives a
// restart; it backs tests and LIBRARY_STORAGE=memory.
package memory

import (
	"context"
	"sync"

	"github.com/librarydesk/library-client/internal/core/ports"
)

type Storage struct {
	mu   sync.RWMutex
	data map[string]string
}

func New() *Storage {
	return &Storage{data: make(map[string]string)}
}

func (s *Storage) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", ports.ErrKeyNotFound
	}
	return v, nil
}

func (s *Storage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

func (s *Storage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.data, k)
	}
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *Storage) Ping(context.Context) error { return nil }

func (s *Storage) Close(context.Context) error { return nil }
