package eventbus

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func newTestBus() *Bus {
	return New(zerolog.Nop())
}

func TestBus_PublishInRegistrationOrder(t *testing.T) {
	bus := newTestBus()

	var order []int
	bus.Subscribe(Created, func(any) { order = append(order, 1) })
	bus.Subscribe(Created, func(any) { order = append(order, 2) })
	bus.Subscribe(Created, func(any) { order = append(order, 3) })

	bus.Publish(Created, "record")

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected delivery in registration order, got %v", order)
	}
}

func TestBus_KindsAreIndependent(t *testing.T) {
	bus := newTestBus()

	created := 0
	deleted := 0
	bus.Subscribe(Created, func(any) { created++ })
	bus.Subscribe(Deleted, func(any) { deleted++ })

	bus.Publish(Created, nil)
	bus.Publish(Created, nil)
	bus.Publish(Deleted, nil)

	if created != 2 {
		t.Fatalf("expected 2 Created deliveries, got %d", created)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 Deleted delivery, got %d", deleted)
	}
}

func TestBus_PanickingSubscriberDoesNotBreakBroadcast(t *testing.T) {
	bus := newTestBus()

	delivered := false
	bus.Subscribe(StatusChanged, func(any) { panic("bad consumer") })
	bus.Subscribe(StatusChanged, func(any) { delivered = true })

	bus.Publish(StatusChanged, "record")

	if !delivered {
		t.Fatal("subscriber after panicking one did not receive event")
	}
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	bus := newTestBus()

	calls := 0
	sub := bus.Subscribe(Updated, func(any) { calls++ })

	bus.Unsubscribe(sub)
	bus.Unsubscribe(sub)
	bus.Unsubscribe(nil)

	bus.Publish(Updated, nil)
	if calls != 0 {
		t.Fatalf("expected 0 deliveries after unsubscribe, got %d", calls)
	}
}

func TestBus_UnsubscribeDoesNotAffectOthers(t *testing.T) {
	bus := newTestBus()

	var got []string
	subA := bus.Subscribe(Created, func(any) { got = append(got, "a") })
	bus.Subscribe(Created, func(any) { got = append(got, "b") })

	bus.Unsubscribe(subA)
	bus.Publish(Created, nil)

	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected only b delivered, got %v", got)
	}
}

func TestBus_UnsubscribeDuringPublish(t *testing.T) {
	bus := newTestBus()

	var sub2 *Subscription
	second := 0
	bus.Subscribe(Created, func(any) { bus.Unsubscribe(sub2) })
	sub2 = bus.Subscribe(Created, func(any) { second++ })

	// The snapshot taken at publish time still includes sub2, so it is
	// delivered once; subsequent publishes skip it.
	bus.Publish(Created, nil)
	bus.Publish(Created, nil)

	if second != 1 {
		t.Fatalf("expected exactly 1 delivery to unsubscribed-mid-publish subscriber, got %d", second)
	}
}

func TestBus_LateSubscriberMissesEvent(t *testing.T) {
	bus := newTestBus()

	bus.Publish(Created, "early")

	calls := 0
	bus.Subscribe(Created, func(any) { calls++ })
	if calls != 0 {
		t.Fatalf("late subscriber must not see earlier events, got %d", calls)
	}
}

func TestBus_ConcurrentSubscribePublish(t *testing.T) {
	bus := newTestBus()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			var mu sync.Mutex
			sub := bus.Subscribe(Updated, func(any) {
				mu.Lock()
				mu.Unlock()
			})
			bus.Unsubscribe(sub)
		}()
		go func() {
			defer wg.Done()
			bus.Publish(Updated, "record")
		}()
	}
	wg.Wait()
}

func TestBus_SubscriberCount(t *testing.T) {
	bus := newTestBus()

	sub := bus.Subscribe(Deleted, func(any) {})
	bus.Subscribe(Deleted, func(any) {})
	if bus.SubscriberCount(Deleted) != 2 {
		t.Fatalf("expected 2 subscribers, got %d", bus.SubscriberCount(Deleted))
	}

	bus.Unsubscribe(sub)
	if bus.SubscriberCount(Deleted) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", bus.SubscriberCount(Deleted))
	}
}
