// Package bus is the process-wide event bus between runs and the UI.
// A Hub is a stream.Sink: runs publish to it, subscribers receive the
// events whose request id matches their glob pattern.
package bus

import (
	"path"
	"sync"

	"github.com/deixis/cellar/internal/stream"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBuffer is the per-subscriber event buffer.
const DefaultBuffer = 256

// Subscription receives events for the request ids matching its pattern.
type Subscription struct {
	id      string
	pattern string
	events  chan stream.Event
	hub     *Hub

	mu      sync.Mutex
	closed  bool
	dropped int
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() string { return s.id }

// Pattern returns the request id glob this subscription matches.
func (s *Subscription) Pattern() string { return s.pattern }

// Events returns the channel events are delivered on. It is closed when
// the subscription is cancelled or the hub is closed.
func (s *Subscription) Events() <-chan stream.Event { return s.events }

// Dropped returns how many events were discarded because the buffer was full.
func (s *Subscription) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Cancel removes the subscription from its hub and closes its channel.
func (s *Subscription) Cancel() {
	s.hub.remove(s)
}

// send delivers e without blocking. Returns false if the buffer was full.
func (s *Subscription) send(e stream.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.events <- e:
		return true
	default:
		s.dropped++
		return false
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// Hub fans events out to subscribers. Publish never blocks on a slow
// subscriber; events for a subscriber whose buffer is full are dropped.
// Events published from one goroutine reach each subscriber in order.
type Hub struct {
	Log zerolog.Logger

	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{Log: log, subs: make(map[string]*Subscription)}
}

// Subscribe registers a subscriber for request ids matching pattern
// (path.Match syntax, "*" for everything). buffer <= 0 selects
// DefaultBuffer. Subscribing to a closed hub returns a closed subscription.
func (h *Hub) Subscribe(pattern string, buffer int) *Subscription {
	if pattern == "" {
		pattern = "*"
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription{
		id:      uuid.New().String(),
		pattern: pattern,
		events:  make(chan stream.Event, buffer),
		hub:     h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.close()
		return s
	}
	h.subs[s.id] = s
	h.Log.Debug().Str("subscription", s.id).Str("pattern", pattern).Int("total", len(h.subs)).Msg("subscriber registered")
	return s
}

// Publish implements stream.Sink.
func (h *Hub) Publish(e stream.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs {
		matched, err := path.Match(s.pattern, e.RequestID)
		if err != nil {
			h.Log.Error().Err(err).Str("pattern", s.pattern).Msg("bad subscription pattern")
			continue
		}
		if matched && !s.send(e) {
			h.Log.Warn().Str("subscription", s.id).Str("request_id", e.RequestID).Msg("subscriber buffer full, dropping event")
		}
	}
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscription. Later publishes are dropped. Safe to
// call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, s := range h.subs {
		s.close()
		delete(h.subs, id)
	}
	h.Log.Debug().Msg("all subscribers closed")
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s.id)
	h.mu.Unlock()
	s.close()
}
