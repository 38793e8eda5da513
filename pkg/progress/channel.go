// Package progress fans run progress events out to any number of
// observers. Publishing is best-effort and never blocks: a slow or absent
// observer must not stall the automation engine.
package progress

import (
	"sync"

	"github.com/mendrika-alma/formfill/pkg/schema"
)

// Publisher is the engine-facing side of the channel. The engine knows
// nothing about transport; anything implementing Publisher can observe a
// run.
type Publisher interface {
	Publish(ev schema.ProgressEvent)
}

// subscriptionBuffer bounds how many undelivered events a subscriber may
// lag behind before new events are dropped for it.
const subscriptionBuffer = 64

// Subscription is one observer's view of the event stream. Events
// published before Subscribe are not replayed.
type Subscription struct {
	ch chan schema.ProgressEvent
}

// Events returns the stream to range over. The channel is closed on
// Unsubscribe or when the owning Channel closes.
func (s *Subscription) Events() <-chan schema.ProgressEvent {
	return s.ch
}

// Channel is an in-process fan-out broadcast of progress events.
type Channel struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool

	// OnSubscribe / OnUnsubscribe, when set, observe subscriber-count
	// changes (used for the subscriber gauge).
	OnSubscribe   func(total int)
	OnUnsubscribe func(total int)
}

// NewChannel creates an empty broadcast channel.
func NewChannel() *Channel {
	return &Channel{subs: make(map[*Subscription]struct{})}
}

// Subscribe attaches a new observer. Observers attached mid-run only see
// the tail of the run.
func (c *Channel) Subscribe() *Subscription {
	s := &Subscription{ch: make(chan schema.ProgressEvent, subscriptionBuffer)}

	c.mu.Lock()
	if c.closed {
		close(s.ch)
		c.mu.Unlock()
		return s
	}
	c.subs[s] = struct{}{}
	n := len(c.subs)
	cb := c.OnSubscribe
	c.mu.Unlock()

	if cb != nil {
		cb(n)
	}
	return s
}

// Unsubscribe detaches an observer and closes its event stream. Safe to
// call with an already-detached subscription.
func (c *Channel) Unsubscribe(s *Subscription) {
	c.mu.Lock()
	if _, ok := c.subs[s]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.subs, s)
	close(s.ch)
	n := len(c.subs)
	cb := c.OnUnsubscribe
	c.mu.Unlock()

	if cb != nil {
		cb(n)
	}
}

// Publish delivers ev to every current subscriber. Subscribers whose
// buffer is full miss the event; delivery is fire-and-forget.
func (c *Channel) Publish(ev schema.ProgressEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for s := range c.subs {
		select {
		case s.ch <- ev:
		default:
		}
	}
}

// Close detaches every subscriber and rejects further publishes.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for s := range c.subs {
		delete(c.subs, s)
		close(s.ch)
	}
}

// Multi composes publishers; each Publish is forwarded to all of them.
func Multi(pubs ...Publisher) Publisher {
	return multi(pubs)
}

type multi []Publisher

func (m multi) Publish(ev schema.ProgressEvent) {
	for _, p := range m {
		p.Publish(ev)
	}
}
