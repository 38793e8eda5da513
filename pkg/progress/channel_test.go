package progress

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendrika-alma/formfill/pkg/schema"
)

func event(field string, pct float64) schema.ProgressEvent {
	return schema.ProgressEvent{Field: field, Status: schema.StatusFilling, Progress: pct}
}

func drain(t *testing.T, sub *Subscription, n int) []schema.ProgressEvent {
	t.Helper()
	out := make([]schema.ProgressEvent, 0, n)
	for i := 0; i < n; i++ {
		select {
		case ev := <-sub.Events():
			out = append(out, ev)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
	return out
}

func TestChannelFanOut(t *testing.T) {
	c := NewChannel()
	a := c.Subscribe()
	b := c.Subscribe()

	c.Publish(event("representative.family_name", 33))
	c.Publish(event("representative.given_name", 67))

	for _, sub := range []*Subscription{a, b} {
		events := drain(t, sub, 2)
		assert.Equal(t, "representative.family_name", events[0].Field)
		assert.Equal(t, "representative.given_name", events[1].Field)
	}
}

func TestChannelLateSubscriberSeesOnlyTail(t *testing.T) {
	c := NewChannel()
	c.Publish(event("early", 10))

	sub := c.Subscribe()
	c.Publish(event("late", 50))

	events := drain(t, sub, 1)
	assert.Equal(t, "late", events[0].Field)

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected replayed event %q", ev.Field)
	default:
	}
}

func TestChannelSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	c := NewChannel()
	_ = c.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriptionBuffer*3; i++ {
			c.Publish(event(fmt.Sprintf("field-%d", i), 0))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on an undrained subscriber")
	}
}

func TestChannelUnsubscribeClosesStream(t *testing.T) {
	c := NewChannel()
	sub := c.Subscribe()
	c.Unsubscribe(sub)

	_, open := <-sub.Events()
	assert.False(t, open)

	// Idempotent.
	c.Unsubscribe(sub)

	// Detached observers receive nothing further and publishing still works.
	c.Publish(event("after", 100))
}

func TestChannelCloseDetachesAll(t *testing.T) {
	c := NewChannel()
	a := c.Subscribe()
	b := c.Subscribe()

	c.Close()

	_, open := <-a.Events()
	assert.False(t, open)
	_, open = <-b.Events()
	assert.False(t, open)

	// Publish and Subscribe after Close are inert.
	c.Publish(event("late", 100))
	s := c.Subscribe()
	_, open = <-s.Events()
	assert.False(t, open)
}

func TestChannelSubscriberCallbacks(t *testing.T) {
	c := NewChannel()
	var counts []int
	c.OnSubscribe = func(total int) { counts = append(counts, total) }
	c.OnUnsubscribe = func(total int) { counts = append(counts, total) }

	a := c.Subscribe()
	b := c.Subscribe()
	c.Unsubscribe(a)
	c.Unsubscribe(b)

	require.Equal(t, []int{1, 2, 1, 0}, counts)
}

func TestMultiForwardsToAll(t *testing.T) {
	a := NewChannel()
	b := NewChannel()
	subA := a.Subscribe()
	subB := b.Subscribe()

	Multi(a, b).Publish(event("x", 50))

	assert.Equal(t, "x", drain(t, subA, 1)[0].Field)
	assert.Equal(t, "x", drain(t, subB, 1)[0].Field)
}
