//go:build unix

package runner

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// configureProcess puts the child in its own process group so that
// cancellation reaches everything it spawned. On cancel the group gets
// SIGTERM, then SIGKILL once grace has passed if anything still holds on.
// The returned release must be called after the process has been waited
// for.
func configureProcess(cmd *exec.Cmd, grace time.Duration) (release func()) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var (
		mu       sync.Mutex
		kill     *time.Timer
		released bool
	)
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		pgid := cmd.Process.Pid
		err := unix.Kill(-pgid, unix.SIGTERM)
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		mu.Lock()
		if !released {
			kill = time.AfterFunc(grace, func() { _ = unix.Kill(-pgid, unix.SIGKILL) })
		}
		mu.Unlock()
		return err
	}
	cmd.WaitDelay = grace

	return func() {
		mu.Lock()
		defer mu.Unlock()
		released = true
		if kill != nil && kill.Stop() {
			// Cancelled and the leader is gone: sweep what is left of the group.
			_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		}
	}
}

func signalName(ps *os.ProcessState) string {
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return ""
	}
	return unix.SignalName(ws.Signal())
}
