// Package eventbus provides an in-process broadcaster for transport-request
// lifecycle events. It is best-effort and single-process: there is no
// queuing, persistence, or redelivery. A subscriber that is not registered
// at publish time simply misses the event; streaming clients are expected to
// re-fetch current state on (re)connect and rely on the bus only for
// incremental updates thereafter.
package eventbus

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Kind identifies a lifecycle event.
type Kind string

const (
	Created       Kind = "Created"
	Updated       Kind = "Updated"
	StatusChanged Kind = "StatusChanged"
	Deleted       Kind = "Deleted"
)

// Kinds lists every lifecycle event kind, in the order sessions register.
var Kinds = []Kind{Created, Updated, StatusChanged, Deleted}

// Handler receives the full enriched record of a published event. Handlers
// run synchronously on the publisher's goroutine and must not block.
type Handler func(record any)

// Subscription is the handle returned by Subscribe, used for removal.
type Subscription struct {
	kind Kind
	id   uint64
}

type subscriber struct {
	id uint64
	fn Handler
}

// Bus fans lifecycle events out to registered subscribers. A Bus is
// constructed per service instance and passed by reference; it is never a
// package-level singleton, so tests and multiple deployments do not share
// state.
type Bus struct {
	logger zerolog.Logger

	mu   sync.RWMutex
	next uint64
	subs map[Kind][]subscriber
}

// New creates an empty Bus that logs subscriber failures to logger.
func New(logger zerolog.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[Kind][]subscriber),
	}
}

// Subscribe registers fn for events of the given kind and returns a handle
// for Unsubscribe. Subscribers for a kind are invoked in registration order.
func (b *Bus) Subscribe(kind Kind, fn Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	b.subs[kind] = append(b.subs[kind], subscriber{id: b.next, fn: fn})
	return &Subscription{kind: kind, id: b.next}
}

// Unsubscribe removes a subscription. It is idempotent: removing an already
// removed (or never registered) handle is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[sub.kind]
	for i, s := range list {
		if s.id == sub.id {
			b.subs[sub.kind] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Publish synchronously invokes every subscriber registered for kind, in
// registration order, with the given record. The subscriber list is
// snapshotted before iteration, so a subscriber unsubscribing mid-publish
// cannot skip or double-invoke others. A panicking subscriber is logged and
// does not prevent delivery to subsequent subscribers.
func (b *Bus) Publish(kind Kind, record any) {
	b.mu.RLock()
	snapshot := make([]subscriber, len(b.subs[kind]))
	copy(snapshot, b.subs[kind])
	b.mu.RUnlock()

	for _, s := range snapshot {
		b.invoke(kind, s, record)
	}
}

func (b *Bus) invoke(kind Kind, s subscriber, record any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("kind", string(kind)).
				Uint64("subscriber_id", s.id).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("event subscriber panicked")
		}
	}()
	s.fn(record)
}

// SubscriberCount returns the number of subscribers registered for kind.
func (b *Bus) SubscriberCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
