package formui

import (
	"sync"

	"github.com/aretw0/fullform/pkg/domain"
)

// Question is a leaf node holding an answer.
//
// Its answer state is guarded by its own mutex because the throttled notification fires
// on a timer goroutine.
type Question struct {
	form *Form

	mu              sync.Mutex
	ix              string
	caption         string
	captionMarkdown string
	help            string
	datatype        domain.Datatype
	choices         []string
	required        bool
	answer          any
	serverError     string

	// pending is the debounce timer for the next answer notification.
	pending Timer
	// gen invalidates timers that already fired while a newer answer was being set.
	gen      uint64
	disposed bool
}

func newQuestion(f *Form, d domain.Descriptor) *Question {
	q := &Question{form: f}
	q.update(d)
	return q
}

func (q *Question) Type() domain.NodeType { return domain.NodeTypeQuestion }

// Children implements Node; questions never have children.
func (q *Question) Children() []Node { return nil }

func (q *Question) Ix() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ix
}

func (q *Question) Caption() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.caption
}

func (q *Question) Help() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.help
}

func (q *Question) Datatype() domain.Datatype {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.datatype
}

func (q *Question) Required() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.required
}

// Choices returns a copy of the select choices.
func (q *Question) Choices() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.choices...)
}

// Answer returns the current answer (nil when unanswered).
func (q *Question) Answer() any {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.answer
}

// SetAnswer records a user answer and schedules the throttled notification.
// A new answer within the throttle interval supersedes the pending one.
func (q *Question) SetAnswer(v any) error {
	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return domain.ErrSessionClosed
	}
	q.answer = v
	q.schedule()
	q.mu.Unlock()
	return nil
}

// schedule resets the debounce timer. Caller holds q.mu.
func (q *Question) schedule() {
	if q.pending != nil {
		q.pending.Stop()
	}
	q.gen++
	gen := q.gen
	q.pending = q.form.scheduler.AfterFunc(q.form.throttle, func() {
		q.fire(gen)
	})
}

func (q *Question) fire(gen uint64) {
	q.mu.Lock()
	if q.disposed || gen != q.gen {
		q.mu.Unlock()
		return
	}
	q.pending = nil
	ix, answer := q.ix, q.answer
	q.mu.Unlock()

	q.form.emitAnswer(ix, answer)
}

// Pending reports whether an answer notification is waiting for its timer.
func (q *Question) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending != nil
}

// ServerError returns the error last reported by the server, or "".
func (q *Question) ServerError() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.serverError
}

// SetServerError stores a server-reported error. An empty message clears it.
func (q *Question) SetServerError(msg string) {
	q.mu.Lock()
	changed := q.serverError != msg
	q.serverError = msg
	ix := q.ix
	q.mu.Unlock()

	if changed {
		q.form.emitChange(domain.ChangeEvent{Ix: ix, Kind: domain.ChangeUpdated, NodeType: domain.NodeTypeQuestion})
	}
}

// Validate runs the local validation rules for the current answer.
func (q *Question) Validate() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return validateAnswer(q.datatype, q.required, q.choices, q.answer)
}

// IsValid is false while a server error is present, whatever the local rules say.
func (q *Question) IsValid() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.serverError != "" {
		return false
	}
	return validateAnswer(q.datatype, q.required, q.choices, q.answer) == nil
}

// Descriptor implements Node.
func (q *Question) Descriptor() domain.Descriptor {
	return q.descriptor()
}

func (q *Question) descriptor() domain.Descriptor {
	q.mu.Lock()
	defer q.mu.Unlock()
	return domain.Descriptor{
		Type:            domain.NodeTypeQuestion,
		Ix:              q.ix,
		Caption:         q.caption,
		CaptionMarkdown: q.captionMarkdown,
		Help:            q.help,
		Datatype:        q.datatype,
		Answer:          q.answer,
		Choices:         append([]string(nil), q.choices...),
		Required:        q.required,
	}
}

// update applies server fields in place and reports whether anything changed.
// While a user answer is waiting to be sent, the local answer is kept.
func (q *Question) update(d domain.Descriptor) bool {
	caption := q.form.sanitize(d.Caption)
	help := q.form.sanitize(d.Help)

	q.mu.Lock()
	defer q.mu.Unlock()

	changed := false
	set := func(cond bool) {
		if cond {
			changed = true
		}
	}
	set(q.ix != d.Ix)
	q.ix = d.Ix
	set(q.caption != caption)
	q.caption = caption
	set(q.captionMarkdown != d.CaptionMarkdown)
	q.captionMarkdown = d.CaptionMarkdown
	set(q.help != help)
	q.help = help
	set(q.datatype != d.Datatype)
	q.datatype = d.Datatype
	set(q.required != d.Required)
	q.required = d.Required
	if !equalStrings(q.choices, d.Choices) {
		q.choices = append([]string(nil), d.Choices...)
		changed = true
	}
	if q.pending == nil && !sameAnswer(q.answer, d.Answer) {
		q.answer = d.Answer
		changed = true
	}
	return changed
}

func (q *Question) dispose() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.disposed = true
	if q.pending != nil {
		q.pending.Stop()
		q.pending = nil
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
