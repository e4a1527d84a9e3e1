package formui_test

import (
	"sync"
	"time"

	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/formui"
)

// fakeClock is a manual Scheduler: timers only fire from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) formui.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

// recorder collects hook events.
type recorder struct {
	mu      sync.Mutex
	answers []domain.AnswerEvent
	changes []domain.ChangeEvent
}

func (r *recorder) hooks() domain.Hooks {
	return domain.Hooks{
		OnAnswer: func(e domain.AnswerEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.answers = append(r.answers, e)
		},
		OnChange: func(e domain.ChangeEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.changes = append(r.changes, e)
		},
	}
}

func (r *recorder) answerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.answers)
}

func (r *recorder) changeEvents() []domain.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ChangeEvent(nil), r.changes...)
}

func selectQuestion() domain.Descriptor {
	return domain.Descriptor{
		Type:     domain.NodeTypeQuestion,
		Ix:       "1",
		Caption:  "Do you like cats",
		Datatype: domain.DatatypeSelect,
		Choices:  []string{"yes", "no"},
	}
}

func textQuestion(ix string) domain.Descriptor {
	return domain.Descriptor{
		Type:     domain.NodeTypeQuestion,
		Ix:       ix,
		Caption:  "Name",
		Datatype: domain.DatatypeString,
	}
}

func emptyRepeat() domain.Descriptor {
	return domain.Descriptor{Type: domain.NodeTypeRepeat, Ix: "2", Caption: "Children"}
}

func repetition(ix string) domain.Descriptor {
	return domain.Descriptor{
		Type:     domain.NodeTypeGroup,
		Ix:       ix,
		Caption:  "Child",
		Children: []domain.Descriptor{textQuestion(ix + ",0")},
	}
}

func repeatWith(n int) domain.Descriptor {
	r := emptyRepeat()
	for i := 0; i < n; i++ {
		r.Children = append(r.Children, repetition("2_"+string(rune('0'+i))))
	}
	return r
}

func basePayload(tree ...domain.Descriptor) domain.Payload {
	return domain.Payload{
		Tree:      tree,
		SeqID:     1,
		SessionID: "123",
		Title:     "My title",
		Langs:     []string{"en"},
	}
}
