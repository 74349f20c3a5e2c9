package runner

import (
	"slices"
	"strings"
)

// CommandSpec describes a process to launch. It is immutable once built;
// use NewCommandSpec and the With* methods, which return copies.
type CommandSpec struct {
	path string
	args []string
	dir  string
	env  []string
}

// NewCommandSpec returns a spec for path invoked with args. path is either
// absolute or resolved via PATH when the process is spawned.
func NewCommandSpec(path string, args ...string) CommandSpec {
	return CommandSpec{path: path, args: slices.Clone(args)}
}

// WithDir returns a copy of s that runs in dir.
func (s CommandSpec) WithDir(dir string) CommandSpec {
	s.args = slices.Clone(s.args)
	s.env = slices.Clone(s.env)
	s.dir = dir
	return s
}

// WithEnv returns a copy of s with extra key=value pairs appended to the
// inherited environment.
func (s CommandSpec) WithEnv(kv ...string) CommandSpec {
	s.args = slices.Clone(s.args)
	s.env = append(slices.Clone(s.env), kv...)
	return s
}

// Path returns the executable path.
func (s CommandSpec) Path() string { return s.path }

// Args returns a copy of the arguments.
func (s CommandSpec) Args() []string { return slices.Clone(s.args) }

// Dir returns the working directory, empty for the current one.
func (s CommandSpec) Dir() string { return s.dir }

// Env returns a copy of the extra environment.
func (s CommandSpec) Env() []string { return slices.Clone(s.env) }

// String renders the spec as a shell-like command line for logs.
func (s CommandSpec) String() string {
	if len(s.args) == 0 {
		return s.path
	}
	return s.path + " " + strings.Join(s.args, " ")
}
