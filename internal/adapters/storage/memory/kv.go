package memory

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("memory store closed")

// KV is an in-memory implementation of domain.KeyValueStore.
// It is NOT persistent and is only suitable for development / tests.
type KV struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

func NewKV() *KV {
	return &KV{
		values: make(map[string]string),
	}
}

func (s *KV) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *KV) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.values[key] = value
	return nil
}

func (s *KV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	delete(s.values, key)
	return nil
}

// Close makes every later call fail, which is handy to simulate an
// unavailable backend.
func (s *KV) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
