package memory

import (
	"context"
	"sync"

	"github.com/aretw0/fullform/pkg/domain"
)

// OptionsStore implements ports.OptionsStore in memory.
type OptionsStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewOptionsStore() *OptionsStore {
	return &OptionsStore{data: make(map[string][]byte)}
}

func (s *OptionsStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, domain.ErrOptionsNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *OptionsStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *OptionsStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
