package runner

import (
	"strconv"
	"time"
)

// ExitStatus is the terminal status of a process.
type ExitStatus struct {
	Code   int    // exit code, -1 if the process was terminated by a signal
	Signal string // signal name when terminated by a signal
}

// Success reports whether the process exited with code 0.
func (s ExitStatus) Success() bool { return s.Code == 0 }

// String returns the exit code, or "unknown" when there is none.
func (s ExitStatus) String() string {
	if s.Code < 0 {
		return "unknown"
	}
	return strconv.Itoa(s.Code)
}

// Result holds the output of a one-shot command execution.
type Result struct {
	RunID     string        // unique identifier for this run
	Status    ExitStatus    // process exit status
	Stdout    string        // captured stdout, lossy UTF-8 (may be truncated)
	Stderr    string        // captured stderr, lossy UTF-8 (may be truncated)
	Truncated bool          // true if output exceeded the size cap
	Duration  time.Duration // wall time from spawn to exit
}

// Success reports whether the process exited successfully.
func (r *Result) Success() bool { return r.Status.Success() }
