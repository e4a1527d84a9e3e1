// Package displayopts persists the display options of a web apps user.
//
// Options are stored as a flat JSON object under "env:domain:user:displayOptions".
// Options that only describe the current page load (phone mode, single app mode and
// landing page mode) are never written.
package displayopts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/fullform/internal/logging"
	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/ports"
)

// Key builds the storage key for a user of a domain in an environment.
func Key(environment, domainName, username string) string {
	return domain.OptionsKey{
		Environment: environment,
		Domain:      domainName,
		Username:    username,
	}.String()
}

// Service reads and writes display options through an OptionsStore.
type Service struct {
	store  ports.OptionsStore
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used to report unreadable stored options.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a display options service.
func New(store ports.OptionsStore, opts ...Option) *Service {
	s := &Service{store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores the persistable subset of opts.
func (s *Service) Save(ctx context.Context, key string, opts domain.DisplayOptions) error {
	data, err := json.Marshal(opts.Persistable())
	if err != nil {
		return fmt.Errorf("failed to encode display options: %w", err)
	}
	if err := s.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save display options: %w", err)
	}
	return nil
}

// Load returns the saved options. Missing or unreadable data yields empty options;
// only storage failures are returned.
func (s *Service) Load(ctx context.Context, key string) (domain.DisplayOptions, error) {
	var opts domain.DisplayOptions
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, domain.ErrOptionsNotFound) {
		return opts, nil
	}
	if err != nil {
		return opts, fmt.Errorf("failed to load display options: %w", err)
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		s.logger.Warn("Unable to parse saved display options", "key", key, "err", err)
		return domain.DisplayOptions{}, nil
	}
	return opts.Persistable(), nil
}

// Delete forgets the saved options.
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

// Restore loads the saved options for key and merges them over startup.
func (s *Service) Restore(ctx context.Context, key string, startup domain.DisplayOptions) (domain.DisplayOptions, error) {
	saved, err := s.Load(ctx, key)
	if err != nil {
		return startup, err
	}
	return Merge(startup, saved), nil
}

// Merge combines the options of the current page load with saved ones. Page-load
// options always come from startup; saved values win for the rest when set.
func Merge(startup, saved domain.DisplayOptions) domain.DisplayOptions {
	out := saved.Persistable()
	out.PhoneMode = startup.PhoneMode
	out.SingleAppMode = startup.SingleAppMode
	out.LandingPageAppMode = startup.LandingPageAppMode
	if !out.OneQuestionPerScreen {
		out.OneQuestionPerScreen = startup.OneQuestionPerScreen
	}
	if out.Language == "" {
		out.Language = startup.Language
	}
	if !out.StickySearches {
		out.StickySearches = startup.StickySearches
	}
	return out
}
