package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/deixis/cellar/internal/logging"
	cellarmcp "github.com/deixis/cellar/internal/mcp"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func (a *app) mcpCmd() *cobra.Command {
	var (
		instructions bool
		httpAddr     string
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Long: `Serves the brew tools over MCP on stdio, or over streamable HTTP with --http.

In HTTP mode /events additionally streams every run event as server-sent
events; ?id=<pattern> filters by request id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if instructions {
				fmt.Fprint(cmd.OutOrStdout(), cellarmcp.Instructions)
				return nil
			}
			return a.serve(cmd.Context(), httpAddr)
		},
	}
	cmd.Flags().BoolVar(&instructions, "instructions", false, "print model instructions and exit")
	cmd.Flags().StringVar(&httpAddr, "http", "", "start HTTP server on address (e.g. :9090)")
	return cmd
}

func (a *app) serve(ctx context.Context, httpAddr string) error {
	server := cellarmcp.NewServer(a.client,
		cellarmcp.WithEvents(a.hub),
		cellarmcp.WithLogger(logging.Component(a.log, "mcp")),
	)
	if httpAddr != "" {
		return a.serveHTTP(ctx, server, httpAddr)
	}
	a.log.Info().Msg("serving MCP on stdio")
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func (a *app) serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/events", a.hub)
	mux.Handle("/", mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		a.hub.Close()
		_ = httpServer.Close()
	}()

	a.log.Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
