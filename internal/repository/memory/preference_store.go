package memory

import (
	"context"
	"sync"

	"notehub-engine/internal/repository/contract"
)

var _ contract.PreferenceStore = (*PreferenceStore)(nil)

type PreferenceStore struct {
	mu     sync.RWMutex
	values map[string]string
	writes int
}

func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{values: make(map[string]string)}
}

func (s *PreferenceStore) GetPref(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *PreferenceStore) SetPref(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.writes++
	return nil
}

// Writes reports how many SetPref calls have been made.
func (s *PreferenceStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
