package session_test

import (
	"testing"

	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_PublishOnlyToSession(t *testing.T) {
	b := session.NewBroker(4, nil)
	a, cancelA := b.Subscribe("a")
	defer cancelA()
	other, cancelOther := b.Subscribe("b")
	defer cancelOther()

	b.Publish("a", domain.Event{Type: domain.EventChange, Change: &domain.ChangeEvent{Ix: "0"}})

	require.Len(t, a, 1)
	assert.Len(t, other, 0)
	evt := <-a
	assert.Equal(t, "0", evt.Change.Ix)
}

func TestBroker_SlowSubscriberDrops(t *testing.T) {
	b := session.NewBroker(1, nil)
	ch, cancel := b.Subscribe("a")
	defer cancel()

	b.Publish("a", domain.Event{Type: domain.EventAnswer})
	b.Publish("a", domain.Event{Type: domain.EventChange})

	assert.Len(t, ch, 1)
	assert.Equal(t, domain.EventAnswer, (<-ch).Type)
}

func TestBroker_CancelIsIdempotent(t *testing.T) {
	b := session.NewBroker(0, nil)
	ch, cancel := b.Subscribe("a")
	assert.Equal(t, 1, b.Subscribers("a"))

	cancel()
	cancel()
	assert.Equal(t, 0, b.Subscribers("a"))

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic on the closed channel.
	b.Publish("a", domain.Event{Type: domain.EventAnswer})
}

func TestBroker_CloseSessionThenCancel(t *testing.T) {
	b := session.NewBroker(0, nil)
	ch, cancel := b.Subscribe("a")
	b.CloseSession("a")

	_, open := <-ch
	assert.False(t, open)
	cancel()
}
