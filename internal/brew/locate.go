package brew

import (
	"context"
	"errors"
	"sync"

	"github.com/deixis/cellar/internal/runner"
	"github.com/rs/zerolog"
)

// DefaultCandidates are probed in order when no brew path is configured.
// The bare name is resolved on PATH.
var DefaultCandidates = []string{
	"/home/linuxbrew/.linuxbrew/bin/brew",
	"/linuxbrew/.linuxbrew/bin/brew",
	"/usr/local/bin/brew",
	"/opt/homebrew/bin/brew",
	"brew",
}

// ErrBrewNotFound is returned when no candidate answers `--version`.
var ErrBrewNotFound = errors.New("brew not found")

// CommandRunner executes one-shot commands.
// Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, spec runner.CommandSpec) (*runner.Result, error)
}

// Locator finds the brew executable. The first candidate whose
// `--version` exits zero wins and is remembered.
type Locator struct {
	Runner     CommandRunner
	Path       string   // fixed path; skips probing when set
	Candidates []string // DefaultCandidates when empty
	Log        zerolog.Logger

	mu    sync.Mutex
	found string
}

// Locate returns the brew path. A failed search is not cached, so a brew
// installed later is picked up on the next call.
func (l *Locator) Locate(ctx context.Context) (string, error) {
	if l.Path != "" {
		return l.Path, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.found != "" {
		return l.found, nil
	}

	candidates := l.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		res, err := l.Runner.Run(ctx, runner.NewCommandSpec(c, "--version"))
		if err != nil {
			l.Log.Debug().Str("candidate", c).Err(err).Msg("brew candidate unusable")
			continue
		}
		if !res.Success() {
			l.Log.Debug().Str("candidate", c).Int("exit_code", res.Status.Code).Msg("brew candidate failed --version")
			continue
		}
		l.found = c
		l.Log.Info().Str("path", c).Msg("brew located")
		return c, nil
	}
	return "", newError(CodeBrewNotFound, "brew not found, check the Homebrew install path", ErrBrewNotFound)
}

// Reset forgets the located path.
func (l *Locator) Reset() {
	l.mu.Lock()
	l.found = ""
	l.mu.Unlock()
}
