// Package stream tracks live dispatch-board clients. Each open websocket
// gets one Session holding the client's filter; the session subscribes to
// every lifecycle event kind on the event bus and forwards matching events
// to the client's outbound channel.
package stream

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/careops/transport-portal/internal/platform/eventbus"
)

// Message is the tagged wire shape delivered to streaming clients.
type Message struct {
	Type   eventbus.Kind `json:"type"`
	Record any           `json:"record"`
}

// Filter reports whether a record matches the session's status/category
// constraints. A nil Filter matches everything.
type Filter func(record any) bool

// sendBuffer is the per-client outbound queue depth. When the buffer is
// full the event is dropped for that client rather than stalling the
// publishing mutation.
const sendBuffer = 256

// Session is the server-side state for one streaming client. Events are
// filtered for Created and Updated; StatusChanged and Deleted are always
// forwarded so boards can drop records that left their filter window.
type Session struct {
	logger zerolog.Logger
	filter Filter
	send   chan []byte

	bus  *eventbus.Bus
	subs []*eventbus.Subscription

	closeOnce sync.Once
}

// NewSession registers a session on all four lifecycle event kinds of bus.
// The caller owns teardown: Close must be called when the client's
// transport disconnects, cancels, or ends.
func NewSession(bus *eventbus.Bus, filter Filter, logger zerolog.Logger) *Session {
	s := &Session{
		logger: logger,
		filter: filter,
		send:   make(chan []byte, sendBuffer),
		bus:    bus,
	}

	for _, kind := range eventbus.Kinds {
		k := kind
		s.subs = append(s.subs, bus.Subscribe(k, func(record any) {
			s.deliver(k, record)
		}))
	}
	return s
}

// Send exposes the outbound channel. It is closed by Close.
func (s *Session) Send() <-chan []byte {
	return s.send
}

func (s *Session) deliver(kind eventbus.Kind, record any) {
	if kind == eventbus.Created || kind == eventbus.Updated {
		if s.filter != nil && !s.filter(record) {
			return
		}
	}

	data, err := json.Marshal(Message{Type: kind, Record: record})
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(kind)).Msg("stream: marshal event")
		return
	}

	select {
	case s.send <- data:
	default:
		// Buffer full; drop rather than stall the publisher. The gap is
		// silent for the client but observable here.
		s.logger.Warn().Str("kind", string(kind)).Msg("stream: client buffer full, event dropped")
	}
}

// Close unsubscribes the session from the bus and closes the outbound
// channel. It is safe to call multiple times; teardown runs exactly once
// even when both "cancelled" and "end" fire on the transport.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, sub := range s.subs {
			s.bus.Unsubscribe(sub)
		}
		close(s.send)
	})
}
