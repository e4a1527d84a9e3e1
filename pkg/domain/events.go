package domain

import (
	"time"
)

// EventType defines the category of an event published by a form session.
type EventType string

const (
	EventAnswer    EventType = "answer"
	EventChange    EventType = "change"
	EventReconcile EventType = "reconcile"
)

// ChangeKind describes what happened to a node during reconciliation.
type ChangeKind string

const (
	ChangeUpdated  ChangeKind = "updated"
	ChangeReplaced ChangeKind = "replaced"
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
)

// AnswerEvent is the outbound notification for a (throttled) answer change.
type AnswerEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Ix        string    `json:"ix"`
	Answer    any       `json:"answer"`
	SeqID     int       `json:"seq_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ChangeEvent is fired once per node mutated by reconciliation or a server error update.
type ChangeEvent struct {
	SessionID string     `json:"session_id"`
	Ix        string     `json:"ix"`
	Kind      ChangeKind `json:"kind"`
	NodeType  NodeType   `json:"node_type"`
}

// ReconcileStats summarizes one reconciliation pass.
type ReconcileStats struct {
	Updated  int `json:"updated"`
	Replaced int `json:"replaced"`
	Added    int `json:"added"`
	Removed  int `json:"removed"`
}

// Changed reports whether the pass touched any node.
func (s ReconcileStats) Changed() bool {
	return s.Updated+s.Replaced+s.Added+s.Removed > 0
}

// Add accumulates another pass into s.
func (s *ReconcileStats) Add(o ReconcileStats) {
	s.Updated += o.Updated
	s.Replaced += o.Replaced
	s.Added += o.Added
	s.Removed += o.Removed
}

// ReconcileEvent reports a completed reconciliation.
type ReconcileEvent struct {
	SessionID string         `json:"session_id"`
	SeqID     int            `json:"seq_id"`
	Stats     ReconcileStats `json:"stats"`
	Duration  time.Duration  `json:"duration"`
}

// Event is the envelope delivered to session subscribers.
type Event struct {
	Type      EventType       `json:"type"`
	Answer    *AnswerEvent    `json:"answer,omitempty"`
	Change    *ChangeEvent    `json:"change,omitempty"`
	Reconcile *ReconcileEvent `json:"reconcile,omitempty"`
}

// Hooks defines typed callbacks for form activity. Any field may be nil.
// Answer hooks run on the throttle timer goroutine.
type Hooks struct {
	OnAnswer    func(AnswerEvent)
	OnChange    func(ChangeEvent)
	OnReconcile func(ReconcileEvent)
}

// Merge returns hooks that call h first and then o.
func (h Hooks) Merge(o Hooks) Hooks {
	return Hooks{
		OnAnswer:    chain(h.OnAnswer, o.OnAnswer),
		OnChange:    chain(h.OnChange, o.OnChange),
		OnReconcile: chain(h.OnReconcile, o.OnReconcile),
	}
}

func chain[T any](a, b func(T)) func(T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(v T) {
		a(v)
		b(v)
	}
}
