package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/deixis/cellar/internal/brew"
	"github.com/spf13/cobra"
)

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the brew path and version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.client.Status(cmd.Context())
			return emit(a, cmd.OutOrStdout(), st, err, "brew is available", func(w io.Writer, st *brew.Status) {
				fmt.Fprintf(w, "brew:    %s\nversion: %s\n", st.BrewPath, st.Version)
			})
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed formulae and casks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pkgs, err := a.client.ListInstalled(cmd.Context())
			return emit(a, cmd.OutOrStdout(), pkgs, err, "installed packages listed", writePackages)
		},
	}
}

func (a *app) outdatedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outdated",
		Short: "List packages with a newer version available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pkgs, err := a.client.Outdated(cmd.Context())
			return emit(a, cmd.OutOrStdout(), pkgs, err, "outdated packages listed", writePackages)
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search formulae and casks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkgs, err := a.client.Search(cmd.Context(), args[0])
			return emit(a, cmd.OutOrStdout(), pkgs, err, "search complete", writePackages)
		},
	}
}

func (a *app) infoCmd() *cobra.Command {
	var cask bool
	cmd := &cobra.Command{
		Use:   "info <name>",
		Short: "Show details of a formula or cask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.client.Info(cmd.Context(), args[0], kindFlag(cask))
			return emit(a, cmd.OutOrStdout(), out, err, "package details loaded", writeRaw)
		},
	}
	cmd.Flags().BoolVar(&cask, "cask", false, "treat name as a cask")
	return cmd
}

func (a *app) tapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "taps",
		Short: "List configured taps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			taps, err := a.client.Taps(cmd.Context())
			return emit(a, cmd.OutOrStdout(), taps, err, "taps listed", func(w io.Writer, taps []string) {
				for _, t := range taps {
					fmt.Fprintln(w, t)
				}
			})
		},
	}
}

func (a *app) doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run brew doctor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.client.Doctor(cmd.Context())
			return emit(a, cmd.OutOrStdout(), out, err, "doctor finished", writeRaw)
		},
	}
}

type mutation func(c *brew.Client, ctx context.Context, name string, kind brew.Kind) (string, error)

func (a *app) mutateCmd(use, short string, op mutation) *cobra.Command {
	var cask bool
	cmd := &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Long: short + `.

brew's output is printed once it finishes. Use "cellar run ` + use + `" to
follow it live.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := op(a.client, cmd.Context(), args[0], kindFlag(cask))
			return emit(a, cmd.OutOrStdout(), out, err, use+" complete", writeRaw)
		},
	}
	cmd.Flags().BoolVar(&cask, "cask", false, "treat name as a cask")
	return cmd
}

func (a *app) upgradeCmd() *cobra.Command {
	var cask bool
	cmd := &cobra.Command{
		Use:   "upgrade [name]",
		Short: "Upgrade one package, or everything outdated",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out, err := a.client.UpgradeAll(cmd.Context())
				return emit(a, cmd.OutOrStdout(), out, err, "all packages upgraded", writeRaw)
			}
			out, err := a.client.Upgrade(cmd.Context(), args[0], kindFlag(cask))
			return emit(a, cmd.OutOrStdout(), out, err, "upgrade complete", writeRaw)
		},
	}
	cmd.Flags().BoolVar(&cask, "cask", false, "treat name as a cask")
	return cmd
}

func kindFlag(cask bool) brew.Kind {
	if cask {
		return brew.Cask
	}
	return brew.Formula
}

func writePackages(w io.Writer, pkgs []brew.Package) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range pkgs {
		v := "-"
		if p.Version != nil {
			v = *p.Version
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, v, p.Kind)
	}
	_ = tw.Flush()
}

func writeRaw(w io.Writer, s string) {
	fmt.Fprint(w, s)
}
