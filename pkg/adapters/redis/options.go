package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/fullform/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// OptionsStore implements ports.OptionsStore using plain Redis strings.
// Display options do not expire.
type OptionsStore struct {
	client *backend.Client
	prefix string
}

// NewOptionsStore creates a store writing keys under prefix (default "fullform:options:").
func NewOptionsStore(client *backend.Client, prefix string) *OptionsStore {
	if prefix == "" {
		prefix = "fullform:options:"
	}
	return &OptionsStore{client: client, prefix: prefix}
}

func (s *OptionsStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrOptionsNotFound
		}
		return nil, fmt.Errorf("failed to get options: %w", err)
	}
	return val, nil
}

func (s *OptionsStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set options: %w", err)
	}
	return nil
}

func (s *OptionsStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
