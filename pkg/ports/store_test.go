package ports_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/ports"
)

// jsonStore is a minimal SnapshotStore that serializes like a real backend would.
type jsonStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *jsonStore) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.data[sessionID] = b
	return nil
}

func (s *jsonStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	s.mu.Lock()
	b, ok := s.data[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *jsonStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *jsonStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestSnapshotStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, &jsonStore{})
}
