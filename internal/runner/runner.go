// Package runner spawns external processes and captures their output,
// either as two line-oriented streams or collected in full.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Default values for runner configuration.
const (
	DefaultGracePeriod = 5 * time.Second
	DefaultMaxOutput   = 1 << 20 // 1 MB
)

// Runner launches processes described by a CommandSpec.
type Runner struct {
	Timeout     time.Duration // applies to Run only; zero means no limit
	MaxOutput   int           // bytes kept per stream by Run
	MaxLine     int           // bytes per line returned by the line readers
	GracePeriod time.Duration // SIGTERM to SIGKILL delay on cancellation
}

// Handle is one spawned process. Its output streams must be read to EOF
// before Wait is called.
type Handle struct {
	spec    CommandSpec
	cmd     *exec.Cmd
	release func()
	stdout  *LineReader
	stderr  *LineReader
	started time.Time
}

// Spawn starts the process with stdout and stderr captured. On error no
// process is left running and no pipe is left open.
//
// Cancelling ctx sends SIGTERM to the process group, then SIGKILL after
// the grace period.
func (r *Runner) Spawn(ctx context.Context, spec CommandSpec) (*Handle, error) {
	h, stdout, stderr, err := r.start(ctx, spec)
	if err != nil {
		return nil, err
	}
	h.stdout = NewLineReader(stdout, r.MaxLine)
	h.stderr = NewLineReader(stderr, r.MaxLine)
	return h, nil
}

// Run executes the command to completion and returns its full output.
// Both streams are drained concurrently before waiting for exit. A
// non-zero exit is reported in Result.Status, not as an error.
func (r *Runner) Run(ctx context.Context, spec CommandSpec) (*Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	runID := uuid.New().String()

	h, stdoutPipe, stderrPipe, err := r.start(ctx, spec)
	if err != nil {
		return nil, err
	}

	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := &limitWriter{buf: &stdoutBuf, limit: maxOutput}
	stderr := &limitWriter{buf: &stderrBuf, limit: maxOutput}
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(stdout, stdoutPipe)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(stderr, stderrPipe)
		return err
	})
	copyErr := g.Wait()

	status, err := h.Wait()
	if err != nil {
		return nil, err
	}
	if copyErr != nil {
		return nil, fmt.Errorf("reading output of %s: %w", spec.path, copyErr)
	}

	return &Result{
		RunID:     runID,
		Status:    status,
		Stdout:    decodeLossy(stdoutBuf.Bytes()),
		Stderr:    decodeLossy(stderrBuf.Bytes()),
		Truncated: stdout.dropped || stderr.dropped,
		Duration:  time.Since(h.started),
	}, nil
}

// start launches spec and returns a Handle without line readers together
// with the raw output pipes.
func (r *Runner) start(ctx context.Context, spec CommandSpec) (*Handle, io.ReadCloser, io.ReadCloser, error) {
	if spec.path == "" {
		return nil, nil, nil, fmt.Errorf("%w: empty executable path", ErrExecutableNotFound)
	}

	cmd := exec.CommandContext(ctx, spec.path, spec.args...) //nolint:gosec // running arbitrary commands is the point
	cmd.Dir = spec.dir
	if len(spec.env) > 0 {
		cmd.Env = append(os.Environ(), spec.env...)
	}

	grace := r.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	release := configureProcess(cmd, grace)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: stdout of %s: %w", ErrPipeUnavailable, spec.path, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		return nil, nil, nil, fmt.Errorf("%w: stderr of %s: %w", ErrPipeUnavailable, spec.path, err)
	}

	// Start closes both pipes itself when it fails.
	if err := cmd.Start(); err != nil {
		release()
		return nil, nil, nil, fmt.Errorf("%w: %s: %w", classifyStartErr(spec, err), spec.path, err)
	}
	h := &Handle{spec: spec, cmd: cmd, release: release, started: time.Now()}
	return h, stdout, stderr, nil
}

// Stdout returns the standard output line reader.
func (h *Handle) Stdout() *LineReader { return h.stdout }

// Stderr returns the standard error line reader.
func (h *Handle) Stderr() *LineReader { return h.stderr }

// Pid returns the process id.
func (h *Handle) Pid() int { return h.cmd.Process.Pid }

// Spec returns the spec the process was started from.
func (h *Handle) Spec() CommandSpec { return h.spec }

// Started returns the time the process was spawned.
func (h *Handle) Started() time.Time { return h.started }

// Wait blocks until the process exits and returns its status. It closes
// the output pipes, so call it only once both streams have reached EOF.
func (h *Handle) Wait() (ExitStatus, error) {
	err := h.cmd.Wait()
	h.release()
	ps := h.cmd.ProcessState
	if ps == nil {
		return ExitStatus{Code: -1}, fmt.Errorf("%w: %s: %w", ErrWaitFailed, h.spec.path, err)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return ExitStatus{Code: -1}, fmt.Errorf("%w: %s: %w", ErrWaitFailed, h.spec.path, err)
		}
	}
	return ExitStatus{Code: ps.ExitCode(), Signal: signalName(ps)}, nil
}

// limitWriter writes up to limit bytes to buf, then silently discards the
// rest. dropped is set once a byte has been discarded.
type limitWriter struct {
	buf     *bytes.Buffer
	limit   int
	dropped bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if len(p) > remaining {
		w.dropped = true
		if remaining > 0 {
			w.buf.Write(p[:remaining])
		}
		// Report all bytes as consumed so io.Copy keeps draining the pipe.
		return len(p), nil
	}
	return w.buf.Write(p)
}
