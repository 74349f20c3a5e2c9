// Package logging builds the zerolog loggers used across cellar.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Field keys shared by every component.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldCommand   = "command"
	FieldDuration  = "duration_ms"
)

// Options selects the logger's verbosity and encoding.
type Options struct {
	Level   string // trace, debug, info, warn, error; invalid falls back to info
	Format  string // "console" or "json"
	NoColor bool
}

// New returns a logger writing to w. Console output is colored only when
// w is a terminal.
func New(opts Options, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	if strings.ToLower(opts.Format) == "json" {
		zl = zerolog.New(w)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
			NoColor:    opts.NoColor || !isTerminal(w),
		})
	}
	return zl.Level(level).With().Timestamp().Logger()
}

// Component tags l with a component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str(FieldComponent, name).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
