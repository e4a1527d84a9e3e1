package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/fullform/pkg/adapters/memory"
	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/formui"
	"github.com/aretw0/fullform/pkg/ports"
	"github.com/aretw0/fullform/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock is a formui.Scheduler whose timers only fire from Advance.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock *manualClock
	at    time.Duration
	f     func()
	done  bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) formui.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.done
	t.done = true
	return active
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []func()
	for _, t := range c.timers {
		if !t.done && t.at <= c.now {
			t.done = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Snapshot
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Snapshot)
	}
	s.data[sessionID] = snap
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.data[sessionID]; ok {
		return snap, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

// recordingTransport captures sent answers and replies with a fixed response.
type recordingTransport struct {
	mu   sync.Mutex
	sent []domain.AnswerEvent
	resp *domain.Response
	err  error
}

func (r *recordingTransport) SendAnswer(ctx context.Context, evt domain.AnswerEvent) (*domain.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, evt)
	return r.resp, r.err
}

func (r *recordingTransport) events() []domain.AnswerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AnswerEvent(nil), r.sent...)
}

// countingLocker is a DistributedLocker that records lock usage.
type countingLocker struct {
	mu      sync.Mutex
	locks   int
	unlocks int
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locks++
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.unlocks++
		l.mu.Unlock()
		return nil
	}, nil
}

func payload(id string) domain.Payload {
	return domain.Payload{
		SessionID: id,
		SeqID:     1,
		Title:     "Household survey",
		Tree: []domain.Descriptor{
			{
				Type:     domain.NodeTypeQuestion,
				Ix:       "0",
				Caption:  "Name",
				Datatype: domain.DatatypeString,
			},
			{
				Type:     domain.NodeTypeQuestion,
				Ix:       "1",
				Caption:  "Age",
				Datatype: domain.DatatypeInt,
			},
		},
	}
}

func newManager(t *testing.T, clock *manualClock, opts ...session.Option) (*session.Manager, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	opts = append([]session.Option{session.WithFormOptions(formui.WithScheduler(clock))}, opts...)
	mgr := session.NewManager(store, opts...)
	t.Cleanup(mgr.Shutdown)
	return mgr, store
}

func TestManager_OpenPersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	mgr, store := newManager(t, &manualClock{})

	form, err := mgr.Open(ctx, payload("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", form.SessionID())

	snap, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Household survey", snap.Payload.Title)
	assert.Len(t, snap.Payload.Tree, 2)
	assert.NotNil(t, snap.Context)
}

func TestManager_OpenGeneratesID(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newManager(t, &manualClock{})

	form, err := mgr.Open(ctx, payload(""))
	require.NoError(t, err)
	assert.NotEmpty(t, form.SessionID())

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{form.SessionID()}, ids)
}

func TestManager_OpenRejectsUnknownNodeType(t *testing.T) {
	ctx := context.Background()
	mgr, store := newManager(t, &manualClock{})

	p := payload("bad")
	p.Tree = append(p.Tree, domain.Descriptor{Type: "widget"})
	_, err := mgr.Open(ctx, p)
	assert.ErrorIs(t, err, domain.ErrUnknownNodeType)

	_, err = store.Load(ctx, "bad")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_AnswerForwardsThrottledValue(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{}
	transport := &recordingTransport{}
	mgr, store := newManager(t, clock, session.WithTransport(transport))

	_, err := mgr.Open(ctx, payload("abc"))
	require.NoError(t, err)
	events, cancel := mgr.Subscribe("abc")
	defer cancel()

	require.NoError(t, mgr.Answer(ctx, "abc", "0", "Ana"))
	require.NoError(t, mgr.Answer(ctx, "abc", "0", "Anabel"))
	clock.Advance(100 * time.Millisecond)
	assert.Empty(t, transport.events())

	clock.Advance(formui.DefaultThrottle)
	sent := transport.events()
	require.Len(t, sent, 1)
	assert.Equal(t, "Anabel", sent[0].Answer)
	assert.Equal(t, "0", sent[0].Ix)

	select {
	case evt := <-events:
		require.Equal(t, domain.EventAnswer, evt.Type)
		assert.Equal(t, "Anabel", evt.Answer.Answer)
	default:
		t.Fatal("expected an answer event")
	}

	snap, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Anabel", snap.Payload.Tree[0].Answer)
}

func TestManager_TransportResponseIsApplied(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{}
	transport := &recordingTransport{resp: &domain.Response{
		Status: domain.StatusValidationError,
		Type:   "constraint",
		SeqID:  2,
	}}
	mgr, _ := newManager(t, clock, session.WithTransport(transport))

	form, err := mgr.Open(ctx, payload("abc"))
	require.NoError(t, err)

	require.NoError(t, mgr.Answer(ctx, "abc", "1", "12"))
	clock.Advance(formui.DefaultThrottle)

	q, err := form.Question("1")
	require.NoError(t, err)
	assert.Equal(t, formui.MsgConstraint, q.ServerError())
	assert.False(t, q.IsValid())
	assert.Equal(t, 2, form.SeqID())
}

func TestManager_TransportErrorKeepsSession(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{}
	transport := &recordingTransport{err: errors.New("connection refused")}
	mgr, _ := newManager(t, clock, session.WithTransport(transport))

	form, err := mgr.Open(ctx, payload("abc"))
	require.NoError(t, err)
	require.NoError(t, mgr.Answer(ctx, "abc", "0", "Ana"))
	clock.Advance(formui.DefaultThrottle)

	assert.Len(t, transport.events(), 1)
	assert.False(t, form.Closed())
}

func TestManager_ReplacedFormNeverForwards(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{}
	transport := &recordingTransport{}
	mgr, _ := newManager(t, clock, session.WithTransport(transport))

	old, err := mgr.Open(ctx, payload("abc"))
	require.NoError(t, err)
	require.NoError(t, mgr.Answer(ctx, "abc", "0", "stale"))

	fresh, err := mgr.Open(ctx, payload("abc"))
	require.NoError(t, err)
	assert.True(t, old.Closed())
	assert.NotSame(t, old, fresh)

	clock.Advance(formui.DefaultThrottle)
	assert.Empty(t, transport.events())
}

func TestManager_ReconcileRoutesToSession(t *testing.T) {
	ctx := context.Background()
	mgr, store := newManager(t, &manualClock{})

	a, err := mgr.Open(ctx, payload("a"))
	require.NoError(t, err)
	b, err := mgr.Open(ctx, payload("b"))
	require.NoError(t, err)

	raw := []byte(`{"seq_id": 2, "tree": [
		{"type": "question", "ix": "0", "caption": "Name", "datatype": "str", "answer": "Bo"}
	]}`)
	stats, err := mgr.Reconcile(ctx, "a", raw, "")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)

	assert.Len(t, a.Children(), 1)
	assert.Equal(t, 2, a.SeqID())
	assert.Len(t, b.Children(), 2)
	assert.Equal(t, 1, b.SeqID())

	snap, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Payload.SeqID)
	assert.Equal(t, "Bo", snap.Payload.Tree[0].Answer)
}

func TestManager_ReconcileErrors(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newManager(t, &manualClock{})

	_, err := mgr.Reconcile(ctx, "missing", []byte(`{"status":"accepted"}`), "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = mgr.Open(ctx, payload("abc"))
	require.NoError(t, err)

	_, err = mgr.Reconcile(ctx, "abc", []byte(`not json`), "")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = mgr.Reconcile(ctx, "abc", []byte(`{"status":"error","reason":"boom"}`), "")
	assert.ErrorIs(t, err, formui.ErrServerResponse)
}

func TestManager_ResumeFromSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	first := session.NewManager(store)

	_, err := first.Open(ctx, payload("abc"))
	require.NoError(t, err)
	require.NoError(t, first.UpdateContext(ctx, "abc", func(c *domain.SessionContext) error {
		c.QueryKey = "search_command.m0"
		return nil
	}))
	first.Shutdown()

	second := session.NewManager(store)
	defer second.Shutdown()
	form, err := second.Resume(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Household survey", form.Title())
	assert.Len(t, form.Questions(), 2)

	sc, err := second.Context(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "search_command.m0", sc.QueryKey)

	again, err := second.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Same(t, form, again)
}

func TestManager_SaveCapturesDirectAnswers(t *testing.T) {
	ctx := context.Background()
	mgr, store := newManager(t, &manualClock{})

	form, err := mgr.Open(ctx, payload("abc"))
	require.NoError(t, err)
	require.NoError(t, form.Answer("0", "Ada"))

	snap, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, snap.Payload.Tree[0].Answer)

	require.NoError(t, mgr.Save(ctx, "abc"))
	snap, err = store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Ada", snap.Payload.Tree[0].Answer)

	assert.ErrorIs(t, mgr.Save(ctx, "missing"), domain.ErrSessionNotFound)
}

func TestManager_Close(t *testing.T) {
	ctx := context.Background()
	mgr, store := newManager(t, &manualClock{})

	form, err := mgr.Open(ctx, payload("abc"))
	require.NoError(t, err)
	events, _ := mgr.Subscribe("abc")

	require.NoError(t, mgr.Close(ctx, "abc"))
	assert.True(t, form.Closed())

	_, open := <-events
	assert.False(t, open, "subscription should end with the session")

	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = mgr.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.NoError(t, mgr.Close(ctx, "abc"), "closing twice is a no-op")
}

func TestManager_UpdateContextRollsBack(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newManager(t, &manualClock{})
	_, err := mgr.Open(ctx, payload("abc"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = mgr.UpdateContext(ctx, "abc", func(c *domain.SessionContext) error {
		c.SelectedValues["q"] = "1,2"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	sc, err := mgr.Context(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, sc.SelectedValues)
}

func TestManager_ChangeEventsReachSubscribers(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newManager(t, &manualClock{})
	_, err := mgr.Open(ctx, payload("abc"))
	require.NoError(t, err)

	events, cancel := mgr.Subscribe("abc")
	defer cancel()

	_, err = mgr.Apply(ctx, "abc", &domain.Response{
		Status: domain.StatusAccepted,
		Errors: map[string]string{"1": "Too old"},
	}, "")
	require.NoError(t, err)

	evt := <-events
	require.Equal(t, domain.EventChange, evt.Type)
	assert.Equal(t, "1", evt.Change.Ix)
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	locker := &countingLocker{}
	manager := session.NewManager(store, session.WithLocker(locker))
	defer manager.Shutdown()
	ctx := context.Background()
	id := "race-test"

	_, err := manager.Open(ctx, payload(id))
	require.NoError(t, err)

	var wg sync.WaitGroup
	concurrentWrites := 10
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Answer(ctx, id, "0", "x"))
		}()
	}
	wg.Wait()

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Equal(t, locker.locks, locker.unlocks)
	assert.GreaterOrEqual(t, locker.locks, concurrentWrites+1)
}
