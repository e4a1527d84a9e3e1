package ports

import (
	"context"

	"github.com/aretw0/fullform/pkg/domain"
)

// PayloadLoader retrieves form payload fixtures by name.
// Fixtures let a session be started without a live form server (demos, tests, the CLI).
type PayloadLoader interface {
	// GetPayload returns the payload stored under name.
	GetPayload(name string) (*domain.Payload, error)

	// ListPayloads returns the names of every available fixture.
	ListPayloads() ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that receives the name of each changed fixture.
	Watch(ctx context.Context) (<-chan string, error)
}
