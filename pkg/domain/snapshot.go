package domain

import "time"

// Snapshot is the persisted form of a live session, enough to resume it.
type Snapshot struct {
	Payload   Payload         `json:"payload"`
	Context   *SessionContext `json:"context,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Sealed holds the encrypted form of a whole snapshot. When set, Payload only carries
	// the session id and sequence id and Context is empty.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSnapshot captures a payload and context at the current time.
func NewSnapshot(p Payload, ctx *SessionContext) *Snapshot {
	return &Snapshot{
		Payload:   p,
		Context:   ctx.Clone(),
		UpdatedAt: time.Now().UTC(),
	}
}
