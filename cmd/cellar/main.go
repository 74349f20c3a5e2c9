// Command cellar manages a Homebrew installation from the terminal or as
// an MCP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/deixis/cellar/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.ExecuteContext(ctx)
	if err != nil && !cli.Reported(err) {
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "cellar: interrupted")
		} else {
			fmt.Fprintf(os.Stderr, "cellar: %v\n", err)
		}
	}
	stop()
	os.Exit(cli.ExitCode(err))
}
