//go:build !unix

package runner

import (
	"os"
	"os/exec"
	"time"
)

func configureProcess(cmd *exec.Cmd, grace time.Duration) (release func()) {
	cmd.WaitDelay = grace
	return func() {}
}

func signalName(*os.ProcessState) string { return "" }
