// Package brew drives the Homebrew CLI: it locates the executable, shapes
// validated requests into command specs, parses one-shot output, and runs
// long-lived actions through the streaming executor.
package brew

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deixis/cellar/internal/cache"
	"github.com/deixis/cellar/internal/logging"
	"github.com/deixis/cellar/internal/metrics"
	"github.com/deixis/cellar/internal/runner"
	"github.com/deixis/cellar/internal/stream"
	"github.com/rs/zerolog"
)

// Client holds shared dependencies for every brew operation. It is
// consumed by both the MCP server and the CLI commands.
type Client struct {
	Locator  *Locator
	Runner   CommandRunner
	Executor *stream.Executor
	Cache    *cache.LRU[any] // read-only query results; nil disables caching
	Metrics  *metrics.Recorder
	Log      zerolog.Logger
}

// Status reports where brew lives and its version line.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	return cached(c, "status", func() (*Status, error) {
		path, err := c.Locator.Locate(ctx)
		if err != nil {
			return nil, err
		}
		out, err := c.output(ctx, CodeVersionFailed, "--version")
		if err != nil {
			return nil, err
		}
		return &Status{BrewPath: path, Version: firstLine(out)}, nil
	})
}

// ListInstalled returns installed formulae and casks sorted by name.
func (c *Client) ListInstalled(ctx context.Context) ([]Package, error) {
	return cached(c, "list", func() ([]Package, error) {
		formulae, err := c.output(ctx, CodeListFormulaFailed, "list", "--formula", "--versions")
		if err != nil {
			return nil, err
		}
		casks, err := c.output(ctx, CodeListCaskFailed, "list", "--cask", "--versions")
		if err != nil {
			return nil, err
		}
		pkgs := append(parseVersioned(formulae, Formula), parseVersioned(casks, Cask)...)
		sortByName(pkgs)
		return nonNil(pkgs), nil
	})
}

// Outdated returns packages with a newer version available, sorted by name.
func (c *Client) Outdated(ctx context.Context) ([]Package, error) {
	return cached(c, "outdated", func() ([]Package, error) {
		formulae, err := c.output(ctx, CodeOutdatedFormula, "outdated", "--formula", "--verbose")
		if err != nil {
			return nil, err
		}
		casks, err := c.output(ctx, CodeOutdatedCask, "outdated", "--cask", "--verbose")
		if err != nil {
			return nil, err
		}
		pkgs := append(parseNames(formulae, Formula), parseNames(casks, Cask)...)
		sortByName(pkgs)
		return nonNil(pkgs), nil
	})
}

// Search looks query up among formulae and casks. brew exits non-zero when
// one side has no match, so a failing sub-search counts as empty; only when
// both come back empty is the result NO_RESULTS.
func (c *Client) Search(ctx context.Context, query string) ([]Package, error) {
	if strings.TrimSpace(query) == "" {
		return nil, newError(CodeEmptyQuery, "search query is empty", nil)
	}
	if _, err := c.Locator.Locate(ctx); err != nil {
		return nil, err
	}
	return cached(c, "search:"+query, func() ([]Package, error) {
		var pkgs []Package
		for _, k := range []Kind{Formula, Cask} {
			out, err := c.output(ctx, CodeCommandFailed, "search", k.flag(), query)
			if err != nil {
				c.Log.Debug().Err(err).Str("kind", string(k)).Str("query", query).Msg("search returned nothing")
				continue
			}
			pkgs = append(pkgs, parseSearch(out, k)...)
		}
		if len(pkgs) == 0 {
			return nil, newError(CodeNoResults, fmt.Sprintf("no packages match %q", query), nil)
		}
		return pkgs, nil
	})
}

// Info returns brew's description of a package.
func (c *Client) Info(ctx context.Context, name string, kind Kind) (string, error) {
	args, err := packageArgs("info", name, string(kind))
	if err != nil {
		return "", err
	}
	return cached(c, "info:"+strings.Join(args, " "), func() (string, error) {
		return c.output(ctx, CodeInfoFailed, args...)
	})
}

// Doctor runs `brew doctor`. Never cached.
func (c *Client) Doctor(ctx context.Context) (string, error) {
	return c.output(ctx, CodeDoctorFailed, "doctor")
}

// Taps lists the configured taps.
func (c *Client) Taps(ctx context.Context) ([]string, error) {
	return cached(c, "taps", func() ([]string, error) {
		out, err := c.output(ctx, CodeTapListFailed, "tap")
		if err != nil {
			return nil, err
		}
		return parseLines(out), nil
	})
}

// Install installs a package and returns brew's stdout.
func (c *Client) Install(ctx context.Context, name string, kind Kind) (string, error) {
	return c.mutate(ctx, CodeInstallFailed, "install", name, kind)
}

// Uninstall removes a package and returns brew's stdout.
func (c *Client) Uninstall(ctx context.Context, name string, kind Kind) (string, error) {
	return c.mutate(ctx, CodeUninstallFailed, "uninstall", name, kind)
}

// Upgrade upgrades one package and returns brew's stdout.
func (c *Client) Upgrade(ctx context.Context, name string, kind Kind) (string, error) {
	return c.mutate(ctx, CodeUpgradeFailed, "upgrade", name, kind)
}

// UpgradeAll upgrades every outdated package.
func (c *Client) UpgradeAll(ctx context.Context) (string, error) {
	defer c.Invalidate()
	return c.output(ctx, CodeUpgradeAllFailed, "upgrade")
}

// RunStream validates a streaming action, then runs it with every output
// line published to sink under id. Validation and lookup failures publish
// nothing. A run that exits non-zero returns its Outcome together with a
// COMMAND_FAILED error.
func (c *Client) RunStream(ctx context.Context, id string, action Action, name, kind string, sink stream.Sink) (*stream.Outcome, error) {
	args, err := BuildArgs(action, name, kind)
	if err != nil {
		return nil, err
	}
	path, err := c.Locator.Locate(ctx)
	if err != nil {
		return nil, err
	}

	log := c.Log.With().Str(logging.FieldRequestID, id).Str("action", string(action)).Logger()
	log.Info().Strs("args", args).Msg("streaming brew action")

	out, err := c.Executor.Run(ctx, id, runner.NewCommandSpec(path, args...), sink)
	if out != nil {
		c.Metrics.RecordRun(ctx, string(action), metrics.Status(out.Success()), out.Lines, out.Duration)
		if action.Mutates() {
			c.Invalidate()
		}
	}
	if err != nil {
		return nil, streamError(err)
	}
	if !out.Success() {
		log.Info().Int("exit_code", out.Status.Code).Msg("brew action failed")
		return out, newError(CodeCommandFailed, "command failed, see its output", nil)
	}
	return out, nil
}

// Invalidate drops all cached query results.
func (c *Client) Invalidate() {
	if c.Cache != nil {
		c.Cache.Purge()
	}
}

func (c *Client) mutate(ctx context.Context, code Code, sub, name string, kind Kind) (string, error) {
	args, err := packageArgs(sub, name, string(kind))
	if err != nil {
		return "", err
	}
	defer c.Invalidate()
	return c.output(ctx, code, args...)
}

// output runs brew with args and returns its stdout. A non-zero exit
// becomes an *Error with code and brew's stderr as the message.
func (c *Client) output(ctx context.Context, code Code, args ...string) (string, error) {
	path, err := c.Locator.Locate(ctx)
	if err != nil {
		return "", err
	}
	spec := runner.NewCommandSpec(path, args...)
	started := time.Now()
	res, err := c.Runner.Run(ctx, spec)
	if err != nil {
		c.Metrics.RecordOperation(ctx, args[0], "error", time.Since(started))
		return "", newError(code, "failed to execute brew", err)
	}
	c.Metrics.RecordOperation(ctx, args[0], metrics.Status(res.Success()), res.Duration)
	if !res.Success() {
		c.Log.Debug().Str(logging.FieldCommand, spec.String()).Str("status", res.Status.String()).Msg("brew exited non-zero")
		return "", newError(code, failureMessage(res, args), nil)
	}
	return res.Stdout, nil
}

func failureMessage(res *runner.Result, args []string) string {
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("brew %s exited with code %s", strings.Join(args, " "), res.Status)
}

// cached serves key from the client cache, loading and storing it on a miss.
func cached[T any](c *Client, key string, load func() (T, error)) (T, error) {
	if c.Cache == nil {
		return load()
	}
	v, err := c.Cache.GetOrLoad(key, func() (any, error) { return load() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func nonNil(pkgs []Package) []Package {
	if pkgs == nil {
		return []Package{}
	}
	return pkgs
}
