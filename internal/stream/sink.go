package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"
)

// Sink receives the events of one or more runs in emission order.
// Delivery is best effort: a sink that cannot deliver drops the event,
// it never fails the run.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Tee publishes each event to every sink, in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Publish(e)
			}
		}
	})
}

// jsonSink writes events as newline-delimited JSON.
type jsonSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONSink returns a sink writing one JSON object per line to w.
// Write errors are ignored.
func NewJSONSink(w io.Writer) Sink {
	return &jsonSink{enc: json.NewEncoder(w)}
}

func (s *jsonSink) Publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(e)
}

// textSink renders events for a terminal: stdout lines on out, stderr
// lines on errOut, and nothing for start/end.
type textSink struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// NewTextSink returns a sink printing line events as plain text.
func NewTextSink(out, errOut io.Writer) Sink {
	return &textSink{out: out, errOut: errOut}
}

func (s *textSink) Publish(e Event) {
	if e.Stage != StageLine {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.out
	if e.Stream == Stderr {
		w = s.errOut
	}
	_, _ = fmt.Fprintln(w, e.Line)
}

// Recorder is a Sink that keeps every event it receives. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// For returns the recorded events with the given request id.
func (r *Recorder) For(id string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.RequestID == id {
			out = append(out, e)
		}
	}
	return out
}

// Lines returns the text of the recorded line events from src.
func (r *Recorder) Lines(src Source) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Stage == StageLine && e.Stream == src {
			out = append(out, e.Line)
		}
	}
	return out
}
