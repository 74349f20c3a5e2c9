// Package mcp provides the cellar MCP server, registering the brew tools
// and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/deixis/cellar"
	"github.com/deixis/cellar/internal/brew"
	"github.com/deixis/cellar/internal/stream"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	client *brew.Client
	events stream.Sink // process-wide bus; may be nil
	log    zerolog.Logger
}

// NewServer creates an MCP server with all cellar tools registered.
func NewServer(client *brew.Client, opts ...ServerOption) *mcp.Server {
	var so serverOptions
	for _, o := range opts {
		o(&so)
	}
	h := &handler{client: client, events: so.events, log: so.log}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools:   &mcp.ToolCapabilities{ListChanged: false},
			Logging: &mcp.LoggingCapabilities{},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "cellar", Version: cellar.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "brew_status",
		Description: "Locate the brew executable and report its path and version.",
	}, h.statusHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "brew_list_installed",
		Description: "List installed formulae and casks with their versions, sorted by name.",
	}, h.listHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "brew_outdated",
		Description: "List installed formulae and casks that have a newer version available.",
	}, h.outdatedHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "brew_search",
		Description: `Search formulae and casks by name.

Returns NO_RESULTS when neither search matches.`,
	}, h.searchHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "brew_info",
		Description: "Show brew's description of one formula or cask.",
	}, h.infoHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "brew_doctor",
		Description: "Run brew doctor and return its report.",
	}, h.doctorHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "brew_taps",
		Description: "List the configured taps.",
	}, h.tapsHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "brew_run_stream",
		Description: `Run a brew action and stream its output while it runs.

action is one of info, doctor, install, uninstall, upgrade, upgrade_all, tap, untap.
Every output line is sent as a logging notification tagged with request_id,
bracketed by a start and an end event. The call returns once brew exits.`,
	}, h.runStreamHandler)

	return s
}

// ServerOption configures the cellar MCP server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	events stream.Sink
	log    zerolog.Logger
}

// WithEvents also publishes streamed runs to sink, typically a bus.Hub.
func WithEvents(sink stream.Sink) ServerOption {
	return func(o *serverOptions) {
		o.events = sink
	}
}

// WithLogger sets the server's logger.
func WithLogger(l zerolog.Logger) ServerOption {
	return func(o *serverOptions) {
		o.log = l
	}
}

// envelope renders resp as the tool result text.
func envelope[T any](resp brew.Response[T]) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encoding response: %w", err)
	}
	if !resp.OK {
		return errorResult(string(data))
	}
	return textResult(string(data))
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}

// sessionSink forwards events to the MCP client as logging notifications.
type sessionSink struct {
	ctx     context.Context
	session *mcp.ServerSession
	log     zerolog.Logger
}

func (s sessionSink) Publish(e stream.Event) {
	err := s.session.Log(s.ctx, &mcp.LoggingMessageParams{
		Level:  "info",
		Logger: "brew",
		Data:   e,
	})
	if err != nil {
		s.log.Debug().Err(err).Str("request_id", e.RequestID).Msg("dropping event for session")
	}
}
