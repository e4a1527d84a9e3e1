package session

import (
	"log/slog"
	"sync"

	"github.com/aretw0/fullform/internal/logging"
	"github.com/aretw0/fullform/pkg/domain"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

type subscriber struct {
	ch   chan domain.Event
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Broker fans session events out to subscribers.
// Publishing never blocks: a subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]*subscriber
	next   uint64
	buffer int
	logger *slog.Logger
}

// NewBroker creates a broker. A buffer below 1 uses DefaultBuffer.
func NewBroker(buffer int, logger *slog.Logger) *Broker {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Broker{
		subs:   make(map[string]map[uint64]*subscriber),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a listener for one session. The returned cancel func removes the
// subscription and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe(sessionID string) (<-chan domain.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	sub := &subscriber{ch: make(chan domain.Event, b.buffer)}
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[uint64]*subscriber)
	}
	b.subs[sessionID][id] = sub

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[sessionID]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(b.subs, sessionID)
			}
		}
		b.mu.Unlock()
		sub.close()
	}
	return sub.ch, cancel
}

// Publish delivers evt to every subscriber of sessionID.
func (b *Broker) Publish(sessionID string, evt domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, sub := range b.subs[sessionID] {
		select {
		case sub.ch <- evt:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				"session_id", sessionID,
				"subscriber", id,
				"type", evt.Type,
			)
		}
	}
}

// Subscribers returns the number of listeners on a session.
func (b *Broker) Subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}

// CloseSession ends every subscription of a session.
func (b *Broker) CloseSession(sessionID string) {
	b.mu.Lock()
	set := b.subs[sessionID]
	delete(b.subs, sessionID)
	b.mu.Unlock()
	for _, sub := range set {
		sub.close()
	}
}
