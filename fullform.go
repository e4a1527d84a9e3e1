package fullform

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/fullform/internal/logging"
	loamAdapter "github.com/aretw0/fullform/pkg/adapters/loam"
	"github.com/aretw0/fullform/pkg/adapters/memory"
	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/formui"
	"github.com/aretw0/fullform/pkg/ports"
	"github.com/aretw0/fullform/pkg/session"
)

// Version is the release of this module.
//
//go:embed VERSION
var Version string

// Engine is the high-level entry point of the library.
// It pairs a session manager with a source of form fixtures.
type Engine struct {
	sessions    *session.Manager
	loader      ports.PayloadLoader
	store       ports.SnapshotStore
	sessionOpts []session.Option
	logger      *slog.Logger
	Name        string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom PayloadLoader, bypassing the default Loam initialization.
func WithLoader(l ports.PayloadLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore sets the snapshot store. Defaults to an in-memory store.
func WithStore(s ports.SnapshotStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithHooks registers observability hooks on every session.
func WithHooks(h domain.Hooks) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, session.WithHooks(h))
	}
}

// WithTransport forwards throttled answers to a form server.
func WithTransport(t ports.AnswerTransport) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, session.WithTransport(t))
	}
}

// WithSessionOptions passes options straight to the session manager.
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, opts...)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine.
// By default, fixtures are read from a Loam repository at fixtureDir.
// If WithLoader is provided, fixtureDir can be empty and Loam is skipped.
func New(fixtureDir string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if fixtureDir == "" {
			return nil, fmt.Errorf("fixtureDir is required when no custom loader is provided")
		}
		l, err := loamAdapter.Open(fixtureDir)
		if err != nil {
			return nil, err
		}
		eng.loader = l
	}
	if fixtureDir != "" {
		eng.Name = filepath.Base(fixtureDir)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("fixtures", eng.Name)
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	// the engine logger goes first so explicit session options can override it
	sessionOpts := append([]session.Option{session.WithLogger(eng.logger)}, eng.sessionOpts...)
	eng.sessions = session.NewManager(eng.store, sessionOpts...)
	return eng, nil
}

// Open loads the named fixture and starts a session for it.
// A non-empty sessionID overrides the one carried by the fixture.
func (e *Engine) Open(ctx context.Context, fixture, sessionID string, opts ...formui.Option) (*formui.Form, error) {
	p, err := e.loader.GetPayload(fixture)
	if err != nil {
		return nil, err
	}
	if sessionID != "" {
		p.SessionID = sessionID
	}
	return e.sessions.Open(ctx, *p, opts...)
}

// Fixtures lists the names of the available fixtures.
func (e *Engine) Fixtures() ([]string, error) {
	return e.loader.ListPayloads()
}

// Watch returns a channel that signals when a fixture changes.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

// Sessions returns the underlying session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Loader returns the PayloadLoader used by the engine.
func (e *Engine) Loader() ports.PayloadLoader {
	return e.loader
}

// Shutdown closes every live session.
func (e *Engine) Shutdown() {
	e.sessions.Shutdown()
}
