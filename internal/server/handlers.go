package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/desktop-uia/internal/engine"
	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/output"
	"go.uber.org/zap"
)

// render serializes v in the server's output format.
func (s *Server) render(v interface{}) string {
	text, err := output.Marshal(s.format, v)
	if err != nil {
		return fmt.Sprintf("ok: false\nerror: %v", err)
	}
	return text
}

// outcomeResult converts an action outcome to a tool result; failures are
// tool-level errors, not protocol errors.
func (s *Server) outcomeResult(out model.ActionOutcome) *mcp.CallToolResult {
	if !out.OK {
		return mcp.NewToolResultError(s.render(out))
	}
	return mcp.NewToolResultText(s.render(out))
}

func (s *Server) failure(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(s.render(engine.FailureOutcome(action, err)))
}

// refresh drops identities of closed windows before a tool runs.
func (s *Server) refresh(ctx context.Context) {
	if err := s.windows.Refresh(ctx); err != nil {
		s.log.Debug("window refresh failed", zap.Error(err))
	}
}

func (s *Server) handleWindowList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	windows, err := s.windows.Windows(ctx)
	if err != nil {
		return s.failure("window_list", err), nil
	}
	return mcp.NewToolResultText(s.render(output.WindowList{Windows: windows})), nil
}

func (s *Server) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.refresh(ctx)
	res, err := s.engine.Find(ctx, queryFromParams(request.GetArguments()))
	if err != nil {
		return s.failure("find", err), nil
	}
	return mcp.NewToolResultText(s.render(res)), nil
}

// target reads either an element id or a query from the arguments.
func target(params map[string]interface{}) (engine.Target, error) {
	id := StringParam(params, "id", "")
	switch {
	case id != "" && hasQuery(params):
		return engine.Target{}, fmt.Errorf("pass either id or query filters, not both")
	case id != "":
		return engine.Target{ID: id}, nil
	case hasQuery(params):
		q := queryFromParams(params)
		return engine.Target{Query: &q}, nil
	default:
		return engine.Target{}, fmt.Errorf("id or at least one query filter is required")
	}
}

func (s *Server) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	t, err := target(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	button, mods, err := clickParams(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	action := engine.ActionClick
	if BoolParam(params, "double", false) {
		action = engine.ActionDoubleClick
	}

	s.refresh(ctx)
	out := s.engine.Execute(ctx, t, action, engine.ActionParams{Button: button, Modifiers: mods})
	return s.outcomeResult(out), nil
}

func (s *Server) handleType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	t, err := target(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !hasParam(params, "text") {
		return mcp.NewToolResultError("text is required"), nil
	}

	s.refresh(ctx)
	out := s.engine.Execute(ctx, t, engine.ActionType, engine.ActionParams{
		Text:       StringParam(params, "text", ""),
		ClearFirst: BoolParam(params, "clear_first", false),
	})
	return s.outcomeResult(out), nil
}

func (s *Server) handleFocus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(request.GetArguments(), "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.refresh(ctx)
	return s.outcomeResult(s.engine.Focus(ctx, id)), nil
}

func (s *Server) handleGetText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(request.GetArguments(), "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.refresh(ctx)
	return s.outcomeResult(s.engine.GetText(ctx, id)), nil
}

func (s *Server) handleAncestors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	id, err := requireString(params, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.refresh(ctx)
	res, err := s.engine.GetAncestors(ctx, id, engine.AncestorOptions{
		MaxLevels:   IntParam(params, "max_levels", 0),
		IncludeSelf: BoolParam(params, "include_self", false),
	})
	if err != nil {
		return s.failure("get_ancestors", err), nil
	}
	return mcp.NewToolResultText(s.render(res)), nil
}

func (s *Server) handleFocused(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.refresh(ctx)
	res, err := s.engine.GetFocusedElement(ctx)
	if err != nil {
		return s.failure("get_focused", err), nil
	}
	return mcp.NewToolResultText(s.render(res)), nil
}

func (s *Server) handleTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	req := engine.TreeRequest{
		WindowHandle: Int64Param(params, "window", 0),
		RootID:       StringParam(params, "root_id", ""),
		MaxDepth:     IntParam(params, "max_depth", 0),
	}
	if hasQuery(params) {
		filter := queryFromParams(params)
		req.Filter = &filter
	}

	s.refresh(ctx)
	res, err := s.engine.GetTree(ctx, req)
	if err != nil {
		return s.failure("get_tree", err), nil
	}
	return mcp.NewToolResultText(s.render(output.NewTreeResult(req.WindowHandle, res))), nil
}
