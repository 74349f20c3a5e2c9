package cli

import (
	"strings"

	"github.com/deixis/cellar/internal/brew"
	"github.com/deixis/cellar/internal/stream"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (a *app) runCmd() *cobra.Command {
	var (
		kind string
		id   string
	)
	actions := make([]string, len(brew.Actions))
	for i, act := range brew.Actions {
		actions[i] = string(act)
	}

	cmd := &cobra.Command{
		Use:   "run <action> [name]",
		Short: "Run a brew action and stream its output",
		Long: `Runs a brew action and prints every output line as it arrives.

Actions: ` + strings.Join(actions, ", ") + `

With --json each event is printed as one JSON object per line:
{"requestId", "stage", "stream", "line", "success"}.

Example:
  cellar run install wget
  cellar run upgrade firefox --kind cask
  cellar run upgrade_all --json`,
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: actions,
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 1 {
				name = args[1]
			}
			if id == "" {
				id = uuid.New().String()
			}

			var sink stream.Sink
			if a.jsonOut {
				sink = stream.NewJSONSink(cmd.OutOrStdout())
			} else {
				sink = stream.NewTextSink(cmd.OutOrStdout(), cmd.ErrOrStderr())
			}

			out, err := a.client.RunStream(cmd.Context(), id, brew.Action(args[0]), name, kind, stream.Tee(sink, a.hub))
			switch {
			case err == nil:
				a.log.Debug().Str("request_id", id).Int("lines", out.Lines).Dur("duration", out.Duration).Msg("run finished")
				return nil
			case !a.jsonOut:
				return err
			case out != nil:
				// The end event already carries the failure.
				return &reportedError{err: err}
			default:
				return emit(a, cmd.OutOrStdout(), false, err, "", nil)
			}
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "formula", "formula or cask, for package actions")
	cmd.Flags().StringVar(&id, "id", "", "request id stamped on every event (default: random uuid)")
	return cmd
}

