package formui

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/fullform/internal/logging"
	"github.com/aretw0/fullform/pkg/domain"
	"github.com/google/uuid"
)

// Form is the live tree of one form session.
type Form struct {
	mu        sync.RWMutex
	sessionID string
	title     string
	langs     []string
	seqID     int
	children  []Node
	closed    bool

	hooks     domain.Hooks
	throttle  time.Duration
	scheduler Scheduler
	logger    *slog.Logger
	sanitize  func(string) string
}

// Option configures a Form.
type Option func(*Form)

// WithHooks registers callbacks for answer, change and reconcile events.
func WithHooks(h domain.Hooks) Option {
	return func(f *Form) {
		f.hooks = h
	}
}

// WithThrottle overrides the answer debounce interval.
func WithThrottle(d time.Duration) Option {
	return func(f *Form) {
		if d > 0 {
			f.throttle = d
		}
	}
}

// WithScheduler replaces the timer source used for debouncing.
func WithScheduler(s Scheduler) Option {
	return func(f *Form) {
		if s != nil {
			f.scheduler = s
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithRawCaptions disables HTML sanitization of captions and help text.
func WithRawCaptions() Option {
	return func(f *Form) {
		f.sanitize = func(s string) string { return s }
	}
}

// New builds a form from a server payload.
func New(p domain.Payload, opts ...Option) (*Form, error) {
	f := &Form{
		sessionID: p.SessionID,
		title:     p.Title,
		langs:     append([]string(nil), p.Langs...),
		seqID:     p.SeqID,
		throttle:  DefaultThrottle,
		scheduler: RealScheduler(),
		logger:    logging.NewNop(),
		sanitize:  sanitizeMarkup,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("session_id", f.sessionID)

	if err := validateTree(p.Tree, false); err != nil {
		return nil, err
	}
	f.children = make([]Node, 0, len(p.Tree))
	for _, d := range p.Tree {
		f.children = append(f.children, f.build(d, false))
	}
	return f, nil
}

func (f *Form) SessionID() string { return f.sessionID }

func (f *Form) Title() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.title
}

func (f *Form) Langs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.langs...)
}

// SeqID is the sequence id of the last applied server payload.
func (f *Form) SeqID() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.seqID
}

// Children returns a copy of the root node list.
func (f *Form) Children() []Node {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Node, len(f.children))
	copy(out, f.children)
	return out
}

// Find returns the node with the given index, searching depth first.
func (f *Form) Find(ix string) Node {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return find(f.children, ix)
}

func find(nodes []Node, ix string) Node {
	for _, n := range nodes {
		if nodeIx(n) == ix {
			return n
		}
		if kids := childList(n); kids != nil {
			if found := find(*kids, ix); found != nil {
				return found
			}
		}
	}
	return nil
}

// Question returns the question with the given index.
func (f *Form) Question(ix string) (*Question, error) {
	q, ok := f.Find(ix).(*Question)
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	return q, nil
}

// Questions returns every question in tree order.
func (f *Form) Questions() []*Question {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []*Question
	var walk func([]Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			if q, ok := n.(*Question); ok {
				out = append(out, q)
				continue
			}
			if kids := childList(n); kids != nil {
				walk(*kids)
			}
		}
	}
	walk(f.children)
	return out
}

// Answer sets a user answer on a question. Text answers are checked for size and encoding.
func (f *Form) Answer(ix string, v any) error {
	if f.Closed() {
		return domain.ErrSessionClosed
	}
	if s, ok := v.(string); ok {
		clean, err := SanitizeText(s)
		if err != nil {
			return err
		}
		v = clean
	}
	q, err := f.Question(ix)
	if err != nil {
		return err
	}
	return q.SetAnswer(v)
}

// Descriptors renders the current tree back into descriptors.
func (f *Form) Descriptors() []domain.Descriptor {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]domain.Descriptor, len(f.children))
	for i, n := range f.children {
		out[i] = n.descriptor()
	}
	return out
}

// Payload renders the whole form, including session metadata.
func (f *Form) Payload() domain.Payload {
	tree := f.Descriptors()
	f.mu.RLock()
	defer f.mu.RUnlock()
	return domain.Payload{
		Tree:      tree,
		SeqID:     f.seqID,
		SessionID: f.sessionID,
		Title:     f.title,
		Langs:     append([]string(nil), f.langs...),
	}
}

// Close stops every pending answer timer. Later mutations fail with ErrSessionClosed.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for _, n := range f.children {
		n.dispose()
	}
}

func (f *Form) Closed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}

func (f *Form) emitAnswer(ix string, answer any) {
	f.mu.RLock()
	closed, seq := f.closed, f.seqID
	f.mu.RUnlock()
	if closed || f.hooks.OnAnswer == nil {
		return
	}
	f.hooks.OnAnswer(domain.AnswerEvent{
		ID:        uuid.NewString(),
		SessionID: f.sessionID,
		Ix:        ix,
		Answer:    answer,
		SeqID:     seq,
		Timestamp: time.Now(),
	})
}

func (f *Form) emitChange(evt domain.ChangeEvent) {
	evt.SessionID = f.sessionID
	if f.hooks.OnChange != nil {
		f.hooks.OnChange(evt)
	}
}

// build constructs a fresh node. Caller holds f.mu or owns f exclusively.
func (f *Form) build(d domain.Descriptor, repetition bool) Node {
	switch d.Type {
	case domain.NodeTypeGroup:
		g := &Group{container: container{form: f}, IsRepetition: repetition}
		g.update(d)
		g.children = f.buildAll(d.Children, false)
		return g
	case domain.NodeTypeRepeat:
		r := &Repeat{container: container{form: f}}
		r.update(d)
		r.children = f.buildAll(d.Children, true)
		return r
	default:
		return newQuestion(f, d)
	}
}

func (f *Form) buildAll(ds []domain.Descriptor, repetition bool) []Node {
	if len(ds) == 0 {
		return nil
	}
	out := make([]Node, len(ds))
	for i, d := range ds {
		out[i] = f.build(d, repetition)
	}
	return out
}

// nodeIx reads the index without taking f.mu, for use while it is held.
func nodeIx(n Node) string {
	switch v := n.(type) {
	case *Question:
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.ix
	case *Group:
		return v.ix
	case *Repeat:
		return v.ix
	}
	return ""
}
