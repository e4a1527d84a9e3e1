package file

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/fullform/pkg/domain"
)

// OptionsStore implements ports.OptionsStore with one file per key.
// Keys are hex encoded into file names since they contain ':' and user names.
type OptionsStore struct {
	BasePath string
}

// NewOptionsStore creates a store rooted at basePath (default ".fullform/options").
func NewOptionsStore(basePath string) *OptionsStore {
	if basePath == "" {
		basePath = filepath.Join(".fullform", "options")
	}
	return &OptionsStore{BasePath: basePath}
}

func (s *OptionsStore) path(key string) string {
	return filepath.Join(s.BasePath, hex.EncodeToString([]byte(key))+".json")
}

func (s *OptionsStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrOptionsNotFound
		}
		return nil, fmt.Errorf("failed to read options: %w", err)
	}
	return data, nil
}

func (s *OptionsStore) Set(ctx context.Context, key string, value []byte) error {
	return writeAtomic(s.path(key), value)
}

func (s *OptionsStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete options: %w", err)
	}
	return nil
}
