// Package cli implements the cellar command tree.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/deixis/cellar"
	"github.com/deixis/cellar/internal/brew"
	"github.com/deixis/cellar/internal/bus"
	"github.com/deixis/cellar/internal/cache"
	"github.com/deixis/cellar/internal/config"
	"github.com/deixis/cellar/internal/logging"
	"github.com/deixis/cellar/internal/metrics"
	"github.com/deixis/cellar/internal/runner"
	"github.com/deixis/cellar/internal/stream"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
	ExitNoBrew  = 3
)

// app holds the flags and dependencies shared by every command.
type app struct {
	configPath string
	logLevel   string
	jsonOut    bool

	cfg    *config.Config
	log    zerolog.Logger
	hub    *bus.Hub
	client *brew.Client

	shutdownMetrics func(context.Context) error
}

// NewRootCmd builds the cellar command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cellar",
		Short: "cellar - Homebrew control surface",
		Long: `cellar locates brew, runs its subcommands and reports their results.
Long-running actions stream their output line by line, to the terminal
or to MCP clients when running as a server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.close(cmd.Context())
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config file (default $CELLAR_CONFIG or <user config dir>/cellar/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print results as the JSON response envelope")

	root.AddCommand(
		a.statusCmd(),
		a.listCmd(),
		a.outdatedCmd(),
		a.searchCmd(),
		a.infoCmd(),
		a.tapsCmd(),
		a.doctorCmd(),
		a.mutateCmd("install", "Install a formula or cask", (*brew.Client).Install),
		a.mutateCmd("uninstall", "Uninstall a formula or cask", (*brew.Client).Uninstall),
		a.upgradeCmd(),
		a.runCmd(),
		a.mcpCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "cellar v%s\n", cellar.Version)
			},
		},
	)
	return root
}

// ExecuteContext runs the command tree with os.Args. Metrics are flushed
// even when the command fails.
func ExecuteContext(ctx context.Context) error {
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close(ctx)
	return err
}

// ExitCode maps an Execute error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var r *reportedError
	if errors.As(err, &r) {
		err = r.err
	}
	switch brew.CodeOf(err) {
	case brew.CodeBrewNotFound:
		return ExitNoBrew
	case brew.CodeInvalidName, brew.CodeInvalidKind, brew.CodeInvalidAction, brew.CodeEmptyQuery:
		return ExitUsage
	}
	return ExitFailure
}

// Reported reports whether err was already printed as a JSON envelope.
func Reported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// init loads config and wires the brew client. Logs go to errOut so
// stdout carries only results.
func (a *app) init(ctx context.Context, errOut io.Writer) error {
	loaded, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = loaded.Config

	level := a.cfg.LogLevel()
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.log = logging.New(logging.Options{Level: level, Format: a.cfg.LogFormat()}, errOut)
	if loaded.Path != "" {
		a.log.Debug().Str("path", loaded.Path).Msg("config loaded")
	}

	if ep := a.cfg.Metrics.Endpoint; ep != "" {
		shutdown, err := metrics.Init(ctx, metrics.Config{
			ServiceVersion: cellar.Version,
			Endpoint:       ep,
			Insecure:       a.cfg.Metrics.Insecure,
			Interval:       a.cfg.Metrics.Interval(),
		})
		if err != nil {
			a.log.Warn().Err(err).Str("endpoint", ep).Msg("metrics export disabled")
		} else {
			a.shutdownMetrics = shutdown
		}
	}
	rec, err := metrics.New(nil)
	if err != nil {
		a.log.Warn().Err(err).Msg("metrics instruments unavailable")
	}

	r := &runner.Runner{
		Timeout:     a.cfg.Timeout(),
		MaxOutput:   a.cfg.MaxOutputBytes(),
		MaxLine:     a.cfg.MaxLineBytes(),
		GracePeriod: a.cfg.GracePeriod(),
	}
	a.hub = bus.NewHub(logging.Component(a.log, "bus"))
	a.client = &brew.Client{
		Locator: &brew.Locator{
			Runner:     r,
			Path:       a.cfg.Brew.Path,
			Candidates: a.cfg.Brew.Candidates,
			Log:        logging.Component(a.log, "locator"),
		},
		Runner: r,
		Executor: &stream.Executor{
			Spawner: r,
			Buffer:  a.cfg.StreamBuffer(),
			Timeout: a.cfg.StreamTimeout(),
			Log:     logging.Component(a.log, "stream"),
		},
		Cache:   cache.New[any](a.cfg.CacheSize(), a.cfg.CacheTTL()),
		Metrics: rec,
		Log:     logging.Component(a.log, "brew"),
	}
	return nil
}

// close releases the hub and flushes pending metrics.
func (a *app) close(ctx context.Context) {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.shutdownMetrics != nil {
		if err := a.shutdownMetrics(context.WithoutCancel(ctx)); err != nil {
			a.log.Debug().Err(err).Msg("metrics shutdown")
		}
		a.shutdownMetrics = nil
	}
}

// emit prints a result: the JSON envelope with --json, otherwise the text
// rendering of data. Errors are returned for the exit status.
func emit[T any](a *app, w io.Writer, data T, err error, msg string, text func(io.Writer, T)) error {
	if a.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(brew.Respond(data, err, msg)); encErr != nil {
			return encErr
		}
		if err != nil {
			return &reportedError{err: err}
		}
		return nil
	}
	if err != nil {
		return err
	}
	text(w, data)
	return nil
}
