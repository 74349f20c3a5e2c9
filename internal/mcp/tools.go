package mcp

import (
	"context"

	"github.com/deixis/cellar/internal/brew"
	"github.com/deixis/cellar/internal/stream"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type noParams struct{}

type searchParams struct {
	Query string `json:"query" jsonschema:"name or fragment to search for"`
}

type packageParams struct {
	Name string `json:"name" jsonschema:"formula or cask name (e.g. wget, homebrew/cask/firefox)"`
	Kind string `json:"kind,omitempty" jsonschema:"formula or cask. Default: formula."`
}

type runStreamParams struct {
	RequestID string `json:"request_id,omitempty" jsonschema:"correlation id stamped on every event. Generated when empty."`
	Action    string `json:"action" jsonschema:"one of info, doctor, install, uninstall, upgrade, upgrade_all, tap, untap"`
	Name      string `json:"name,omitempty" jsonschema:"package or tap name. Required except for doctor and upgrade_all."`
	Kind      string `json:"kind,omitempty" jsonschema:"formula or cask, for package actions. Default: formula."`
}

// runResult is the data of a successful brew_run_stream call.
type runResult struct {
	RequestID string `json:"requestId"`
	Lines     int    `json:"lines"`
	ExitCode  int    `json:"exitCode"`
}

func (h *handler) statusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ noParams) (*mcp.CallToolResult, any, error) {
	st, err := h.client.Status(ctx)
	return envelope(brew.Respond(st, err, "brew is available"))
}

func (h *handler) listHandler(ctx context.Context, _ *mcp.CallToolRequest, _ noParams) (*mcp.CallToolResult, any, error) {
	pkgs, err := h.client.ListInstalled(ctx)
	return envelope(brew.Respond(pkgs, err, "installed packages listed"))
}

func (h *handler) outdatedHandler(ctx context.Context, _ *mcp.CallToolRequest, _ noParams) (*mcp.CallToolResult, any, error) {
	pkgs, err := h.client.Outdated(ctx)
	return envelope(brew.Respond(pkgs, err, "outdated packages listed"))
}

func (h *handler) searchHandler(ctx context.Context, _ *mcp.CallToolRequest, params searchParams) (*mcp.CallToolResult, any, error) {
	pkgs, err := h.client.Search(ctx, params.Query)
	return envelope(brew.Respond(pkgs, err, "search complete"))
}

func (h *handler) infoHandler(ctx context.Context, _ *mcp.CallToolRequest, params packageParams) (*mcp.CallToolResult, any, error) {
	kind, err := brew.ParseKind(params.Kind)
	if err != nil {
		return envelope(brew.Fail[string](err))
	}
	out, err := h.client.Info(ctx, params.Name, kind)
	return envelope(brew.Respond(out, err, "package details loaded"))
}

func (h *handler) doctorHandler(ctx context.Context, _ *mcp.CallToolRequest, _ noParams) (*mcp.CallToolResult, any, error) {
	out, err := h.client.Doctor(ctx)
	return envelope(brew.Respond(out, err, "doctor finished"))
}

func (h *handler) tapsHandler(ctx context.Context, _ *mcp.CallToolRequest, _ noParams) (*mcp.CallToolResult, any, error) {
	taps, err := h.client.Taps(ctx)
	return envelope(brew.Respond(taps, err, "taps listed"))
}

func (h *handler) runStreamHandler(ctx context.Context, req *mcp.CallToolRequest, params runStreamParams) (*mcp.CallToolResult, any, error) {
	id := params.RequestID
	if id == "" {
		id = uuid.New().String()
	}

	var sinks []stream.Sink
	if req != nil && req.Session != nil {
		sinks = append(sinks, sessionSink{ctx: ctx, session: req.Session, log: h.log})
	}
	sinks = append(sinks, h.events)

	out, err := h.client.RunStream(ctx, id, brew.Action(params.Action), params.Name, params.Kind, stream.Tee(sinks...))
	if err != nil {
		h.log.Info().Err(err).Str("request_id", id).Msg("streamed action failed")
		return envelope(brew.Fail[runResult](err))
	}
	return envelope(brew.OK(runResult{
		RequestID: id,
		Lines:     out.Lines,
		ExitCode:  out.Status.Code,
	}, "command finished"))
}
