package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/fullform/internal/logging"
	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/formui"
	"github.com/aretw0/fullform/pkg/ports"
	"github.com/google/uuid"
)

const (
	// DefaultLockTTL bounds how long a crashed replica can hold a distributed lock.
	DefaultLockTTL = 30 * time.Second

	// DefaultSendTimeout bounds one answer round-trip to the form server.
	DefaultSendTimeout = 15 * time.Second
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// live is a form currently held in memory, with its navigation context.
type live struct {
	form *formui.Form
	ctx  *domain.SessionContext
}

// Manager orchestrates form session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu       sync.Mutex            // Global lock for the maps
	locks    map[string]*lockEntry // Map of active locks
	sessions map[string]*live

	locker      ports.DistributedLocker // Optional distributed locker
	lockTTL     time.Duration
	transport   ports.AnswerTransport
	sendTimeout time.Duration
	broker      *Broker
	hooks       domain.Hooks
	formOpts    []formui.Option
	logger      *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithTransport forwards throttled answers to the form server.
func WithTransport(t ports.AnswerTransport) Option {
	return func(m *Manager) {
		m.transport = t
	}
}

// WithSendTimeout overrides DefaultSendTimeout.
func WithSendTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.sendTimeout = d
		}
	}
}

// WithBroker shares a broker between managers or with an outer adapter.
func WithBroker(b *Broker) Option {
	return func(m *Manager) {
		if b != nil {
			m.broker = b
		}
	}
}

// WithHooks adds callbacks run for every managed form, e.g. metrics.
func WithHooks(h domain.Hooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(h)
	}
}

// WithFormOptions applies options to every form the manager builds.
// Hooks must be registered with WithHooks instead.
func WithFormOptions(opts ...formui.Option) Option {
	return func(m *Manager) {
		m.formOpts = append(m.formOpts, opts...)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given snapshot store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		locks:       make(map[string]*lockEntry),
		sessions:    make(map[string]*live),
		lockTTL:     DefaultLockTTL,
		sendTimeout: DefaultSendTimeout,
		logger:      logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.broker == nil {
		m.broker = NewBroker(DefaultBuffer, m.logger)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Broker returns the event broker of this manager.
func (m *Manager) Broker() *Broker {
	return m.broker
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// Subscribe listens to the events of one session until cancel is called or the
// session is closed.
func (m *Manager) Subscribe(sessionID string) (<-chan domain.Event, func()) {
	return m.broker.Subscribe(sessionID)
}

// Open builds a form from a payload and registers it. A payload without a session id
// gets a fresh one. An existing form under the same id is closed and replaced.
func (m *Manager) Open(ctx context.Context, p domain.Payload, opts ...formui.Option) (*formui.Form, error) {
	if p.SessionID == "" {
		p.SessionID = uuid.NewString()
	}
	var form *formui.Form
	err := m.WithLock(ctx, p.SessionID, func(ctx context.Context) error {
		f, err := m.build(p, opts)
		if err != nil {
			return err
		}
		m.register(p.SessionID, &live{form: f, ctx: domain.NewSessionContext()})
		form = f
		return m.save(ctx, p.SessionID)
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("session opened", "session_id", p.SessionID, "seq_id", p.SeqID)
	return form, nil
}

// Resume rebuilds a form from its stored snapshot. A form already in memory is returned
// as is.
func (m *Manager) Resume(ctx context.Context, sessionID string) (*formui.Form, error) {
	var form *formui.Form
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if l := m.lookup(sessionID); l != nil {
			form = l.form
			return nil
		}
		snap, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		p := snap.Payload
		p.SessionID = sessionID
		f, err := m.build(p, nil)
		if err != nil {
			return fmt.Errorf("failed to rebuild session: %w", err)
		}
		m.register(sessionID, &live{form: f, ctx: snap.Context.Clone()})
		form = f
		return nil
	})
	return form, err
}

// Get returns the live form of a session, resuming it from storage when needed.
func (m *Manager) Get(ctx context.Context, sessionID string) (*formui.Form, error) {
	if l := m.lookup(sessionID); l != nil {
		return l.form, nil
	}
	return m.Resume(ctx, sessionID)
}

// List returns the ids of live and stored sessions.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	stored, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		seen[id] = struct{}{}
	}
	m.mu.Lock()
	for id := range m.sessions {
		seen[id] = struct{}{}
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Reconcile decodes a raw server response and applies it to the session's form.
// ix names the question whose answer triggered the request, if any.
func (m *Manager) Reconcile(ctx context.Context, sessionID string, raw []byte, ix string) (domain.ReconcileStats, error) {
	resp, err := domain.ParseResponse(raw)
	if err != nil {
		return domain.ReconcileStats{}, err
	}
	return m.Apply(ctx, sessionID, resp, ix)
}

// Apply routes a decoded server response to the session's form.
func (m *Manager) Apply(ctx context.Context, sessionID string, resp *domain.Response, ix string) (domain.ReconcileStats, error) {
	if _, err := m.Get(ctx, sessionID); err != nil {
		return domain.ReconcileStats{}, err
	}
	var stats domain.ReconcileStats
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		l := m.lookup(sessionID)
		if l == nil {
			return domain.ErrSessionNotFound
		}
		var err error
		stats, err = l.form.HandleResponse(resp, ix)
		if err != nil {
			return err
		}
		return m.save(ctx, sessionID)
	})
	return stats, err
}

// Answer sets the answer of a question. The notification leaves the form once the
// throttle interval passes without another answer to the same question.
func (m *Manager) Answer(ctx context.Context, sessionID, ix string, value any) error {
	if _, err := m.Get(ctx, sessionID); err != nil {
		return err
	}
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		l := m.lookup(sessionID)
		if l == nil {
			return domain.ErrSessionNotFound
		}
		if err := l.form.Answer(ix, value); err != nil {
			return err
		}
		return m.save(ctx, sessionID)
	})
}

// Save persists the live form of a session, e.g. after answers were set on the form directly.
func (m *Manager) Save(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.save(ctx, sessionID)
	})
}

// Close stops the session's pending timers, ends its subscriptions and deletes its
// snapshot.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		l := m.sessions[sessionID]
		delete(m.sessions, sessionID)
		m.mu.Unlock()
		if l != nil {
			l.form.Close()
		}

		err := m.store.Delete(ctx, sessionID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	m.broker.CloseSession(sessionID)
	m.logger.Info("session closed", "session_id", sessionID)
	return nil
}

// Shutdown closes every live form without deleting snapshots.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*live)
	m.mu.Unlock()
	for id, l := range sessions {
		l.form.Close()
		m.broker.CloseSession(id)
	}
}

// Context returns a copy of the session's navigation context.
func (m *Manager) Context(ctx context.Context, sessionID string) (*domain.SessionContext, error) {
	if _, err := m.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	var out *domain.SessionContext
	err := m.WithLock(ctx, sessionID, func(context.Context) error {
		l := m.lookup(sessionID)
		if l == nil {
			return domain.ErrSessionNotFound
		}
		out = l.ctx.Clone()
		return nil
	})
	return out, err
}

// UpdateContext mutates the session's navigation context under the session lock and
// persists it. A failing fn leaves the context unchanged.
func (m *Manager) UpdateContext(ctx context.Context, sessionID string, fn func(*domain.SessionContext) error) error {
	if _, err := m.Get(ctx, sessionID); err != nil {
		return err
	}
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		l := m.lookup(sessionID)
		if l == nil {
			return domain.ErrSessionNotFound
		}
		next := l.ctx.Clone()
		if err := fn(next); err != nil {
			return err
		}
		l.ctx = next
		return m.save(ctx, sessionID)
	})
}

func (m *Manager) lookup(sessionID string) *live {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionID]
}

// register installs l, closing any form it replaces. Caller holds the session lock.
func (m *Manager) register(sessionID string, l *live) {
	m.mu.Lock()
	old := m.sessions[sessionID]
	m.sessions[sessionID] = l
	m.mu.Unlock()
	if old != nil {
		old.form.Close()
	}
}

// current reports whether f is still the live form of its session.
func (m *Manager) current(sessionID string, f *formui.Form) bool {
	l := m.lookup(sessionID)
	return l != nil && l.form == f
}

// save persists the live form. Caller holds the session lock.
func (m *Manager) save(ctx context.Context, sessionID string) error {
	l := m.lookup(sessionID)
	if l == nil {
		return domain.ErrSessionNotFound
	}
	if err := m.store.Save(ctx, sessionID, domain.NewSnapshot(l.form.Payload(), l.ctx)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (m *Manager) build(p domain.Payload, extra []formui.Option) (*formui.Form, error) {
	var form *formui.Form
	hooks := domain.Hooks{
		OnAnswer: func(evt domain.AnswerEvent) {
			m.onAnswer(form, evt)
		},
		OnChange: func(evt domain.ChangeEvent) {
			m.broker.Publish(evt.SessionID, domain.Event{Type: domain.EventChange, Change: &evt})
		},
		OnReconcile: func(evt domain.ReconcileEvent) {
			m.broker.Publish(evt.SessionID, domain.Event{Type: domain.EventReconcile, Reconcile: &evt})
		},
	}.Merge(m.hooks)

	opts := make([]formui.Option, 0, len(m.formOpts)+len(extra)+2)
	opts = append(opts, formui.WithLogger(m.logger))
	opts = append(opts, m.formOpts...)
	opts = append(opts, extra...)
	opts = append(opts, formui.WithHooks(hooks))

	f, err := formui.New(p, opts...)
	if err != nil {
		return nil, err
	}
	form = f
	return f, nil
}

// onAnswer runs on the form's throttle timer. Answers from a replaced or closed form
// are dropped.
func (m *Manager) onAnswer(f *formui.Form, evt domain.AnswerEvent) {
	if f == nil || !m.current(evt.SessionID, f) {
		return
	}
	m.broker.Publish(evt.SessionID, domain.Event{Type: domain.EventAnswer, Answer: &evt})
	if m.transport == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
	defer cancel()
	resp, err := m.transport.SendAnswer(ctx, evt)
	if err != nil {
		m.logger.Warn("failed to send answer", "session_id", evt.SessionID, "ix", evt.Ix, "err", err)
		return
	}
	if resp == nil {
		return
	}

	err = m.WithLock(ctx, evt.SessionID, func(ctx context.Context) error {
		if !m.current(evt.SessionID, f) {
			return nil
		}
		if _, err := f.HandleResponse(resp, evt.Ix); err != nil {
			return err
		}
		return m.save(ctx, evt.SessionID)
	})
	if err != nil {
		m.logger.Warn("failed to apply answer response", "session_id", evt.SessionID, "ix", evt.Ix, "err", err)
	}
}
