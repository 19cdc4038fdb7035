// Package kv provides the durable key-value collaborator the engine persists
// through. Implementations must survive process restart (except MemStore,
// which exists for tests and for running without persistence).
package kv

import "sync"

// Store is the persistence contract: string keys, string values, absence is
// not an error. The engine treats any returned error as a degraded mode, not
// a failure of the triggering operation.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (string, bool, error)
	// Set writes a value, replacing any previous one.
	Set(key, value string) error
}

// MemStore is an in-memory Store. Zero value is not usable; call NewMemStore.
type MemStore struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string]string)}
}

func (s *MemStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}
