// Package stream runs a process and publishes its output as an ordered
// start, line..., end event sequence to a Sink.
package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/deixis/cellar/internal/logging"
	"github.com/deixis/cellar/internal/runner"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultBuffer is the capacity of the channel merging the two streams.
const DefaultBuffer = 64

// Spawner starts processes. Implemented by runner.Runner.
type Spawner interface {
	Spawn(ctx context.Context, spec runner.CommandSpec) (*runner.Handle, error)
}

// Executor runs commands and streams their output.
type Executor struct {
	Spawner Spawner
	Buffer  int            // fan-in channel capacity; DefaultBuffer if <= 0
	Timeout time.Duration  // zero means the run is bounded only by ctx
	Log     zerolog.Logger // zero value logs nowhere
}

// Outcome is the terminal result of a streamed run.
type Outcome struct {
	RequestID  string
	Status     runner.ExitStatus
	Lines      int  // line events relayed from the process
	Diagnostic bool // a synthetic stderr line was added for a silent failure
	Duration   time.Duration
}

// Success reports whether the process exited successfully.
func (o *Outcome) Success() bool { return o.Status.Success() }

type sourcedLine struct {
	src  Source
	text string
}

// Run spawns spec and publishes its events to sink under id.
//
// A spawn failure is returned before anything is published. Otherwise the
// sink sees exactly one start, the output lines in the order they reached
// the merge channel (per-stream order is preserved), and exactly one end
// whose success flag reflects the exit status alone. A failing process
// that printed nothing gets one diagnostic stderr line naming its exit code.
func (e *Executor) Run(ctx context.Context, id string, spec runner.CommandSpec, sink Sink) (*Outcome, error) {
	if sink == nil {
		sink = Discard
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	log := e.Log.With().Str(logging.FieldRequestID, id).Str(logging.FieldCommand, spec.String()).Logger()

	h, err := e.Spawner.Spawn(ctx, spec)
	if err != nil {
		log.Warn().Err(err).Msg("spawn failed")
		return nil, err
	}
	log.Debug().Int("pid", h.Pid()).Msg("process started")
	sink.Publish(StartEvent(id))

	buffer := e.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	lines := make(chan sourcedLine, buffer)

	var g errgroup.Group
	g.Go(func() error { return drain(h.Stdout(), Stdout, lines) })
	g.Go(func() error { return drain(h.Stderr(), Stderr, lines) })

	drained := make(chan error, 1)
	go func() {
		drained <- g.Wait()
		close(lines)
	}()

	var n int
	for l := range lines {
		n++
		sink.Publish(LineEvent(id, l.src, l.text))
	}
	if err := <-drained; err != nil {
		log.Warn().Err(err).Msg("output stream ended with a read error")
	}

	status, err := h.Wait()
	if err != nil {
		log.Error().Err(err).Msg("wait failed")
		sink.Publish(EndEvent(id, false))
		return nil, err
	}

	out := &Outcome{
		RequestID: id,
		Status:    status,
		Lines:     n,
		Duration:  time.Since(h.Started()),
	}
	if !status.Success() && n == 0 {
		out.Diagnostic = true
		sink.Publish(LineEvent(id, Stderr, fmt.Sprintf("command exited without output (exit code: %s)", status)))
	}
	sink.Publish(EndEvent(id, status.Success()))

	log.Debug().
		Int("exit_code", status.Code).
		Int("lines", n).
		Int64(logging.FieldDuration, out.Duration.Milliseconds()).
		Msg("process finished")
	return out, nil
}

// drain forwards every line of r to out and returns at EOF.
func drain(r *runner.LineReader, src Source, out chan<- sourcedLine) error {
	return r.Each(func(text string) error {
		out <- sourcedLine{src: src, text: text}
		return nil
	})
}
