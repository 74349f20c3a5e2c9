package runner

import (
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
)

// Errors returned by Spawn, Handle.Wait and Run. They are wrapped with the
// command path and the underlying OS error; test with errors.Is.
var (
	ErrExecutableNotFound = errors.New("executable not found")
	ErrSpawnFailed        = errors.New("spawn failed")
	ErrPipeUnavailable    = errors.New("output pipe unavailable")
	ErrWaitFailed         = errors.New("wait failed")
)

// classifyStartErr maps an exec.Cmd.Start error to one of the sentinels.
// execve reports ENOENT both for a missing file and for a missing script
// interpreter; only the first is "not found".
func classifyStartErr(spec CommandSpec, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return ErrExecutableNotFound
	}
	if errors.Is(err, fs.ErrNotExist) {
		path := spec.path
		if spec.dir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(spec.dir, path)
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			return ErrExecutableNotFound
		}
	}
	return ErrSpawnFailed
}
