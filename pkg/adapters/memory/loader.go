package memory

import (
	"fmt"
	"sort"

	"github.com/aretw0/fullform/pkg/domain"
)

// Loader implements ports.PayloadLoader using an in-memory map.
type Loader struct {
	payloads map[string][]byte
}

// NewLoader creates a loader from raw JSON payload documents keyed by fixture name.
func NewLoader(data map[string]string) *Loader {
	payloads := make(map[string][]byte)
	for k, v := range data {
		payloads[k] = []byte(v)
	}
	return &Loader{
		payloads: payloads,
	}
}

// GetPayload decodes the fixture stored under name.
func (l *Loader) GetPayload(name string) (*domain.Payload, error) {
	raw, ok := l.payloads[name]
	if !ok {
		return nil, fmt.Errorf("fixture not found: %s", name)
	}
	p, err := domain.ParsePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", name, err)
	}
	return p, nil
}

// ListPayloads returns all fixture names.
func (l *Loader) ListPayloads() ([]string, error) {
	keys := make([]string, 0, len(l.payloads))
	for k := range l.payloads {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
