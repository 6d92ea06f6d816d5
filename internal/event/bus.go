// Package event delivers chart change notifications to subscribers.
//
// Events use hierarchical topics with dot notation:
//
//	chart.waypoint.created    - A waypoint was added
//	chart.waypoint.moved      - A waypoint changed position
//	chart.history.undone      - An action was reversed
//
// Subscriptions may use wildcard patterns:
//
//	chart.waypoint.*  - matches every waypoint event (single segment)
//	chart.**          - matches every chart event (multi-segment)
//
// Delivery is synchronous: Publish returns once every matching handler has
// run, in subscription order.
package event

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/waymark/internal/event/topic"
)

// Subscription identifies a registered handler.
type Subscription struct {
	ID      string
	Pattern topic.Topic

	handler Handler
}

// Stats contains bus counters.
type Stats struct {
	Published   uint64
	Delivered   uint64
	Failed      uint64
	Subscribers int
}

// Bus is a synchronous publish/subscribe hub. It is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   []*Subscription
	closed bool

	published atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler for every event whose type matches pattern.
func (b *Bus) Subscribe(pattern topic.Topic, handler Handler) (*Subscription, error) {
	if !pattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}

	sub := &Subscription{ID: uuid.NewString(), Pattern: pattern, handler: handler}
	b.subs = append(b.subs, sub)
	return sub, nil
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Publish delivers ev to every matching subscriber. Handler failures and
// panics do not stop delivery; they are returned as *HandlerError values
// joined together.
func (b *Bus) Publish(ev Event) error {
	if !ev.Type.IsValid() || ev.Type.IsWildcard() {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, ev.Type)
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	var targets []*Subscription
	for _, s := range b.subs {
		if ev.Type.Matches(s.Pattern) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	b.published.Add(1)

	var errs []error
	for _, s := range targets {
		if err := deliver(s, ev); err != nil {
			b.failed.Add(1)
			errs = append(errs, &HandlerError{SubscriptionID: s.ID, Topic: s.Pattern.String(), Err: err})
			continue
		}
		b.delivered.Add(1)
	}
	return errors.Join(errs...)
}

func deliver(s *Subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return s.handler(ev)
}

// Stats returns the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		Published:   b.published.Load(),
		Delivered:   b.delivered.Load(),
		Failed:      b.failed.Load(),
		Subscribers: n,
	}
}

// Close drops every subscription. Later calls return ErrBusClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	b.closed = true
	b.subs = nil
	return nil
}
