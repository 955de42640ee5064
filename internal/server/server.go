// Package server exposes the engine as Model Context Protocol tools.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/desktop-uia/internal/config"
	"github.com/mj1618/desktop-uia/internal/engine"
	"github.com/mj1618/desktop-uia/internal/output"
	"github.com/mj1618/desktop-uia/internal/version"
	"go.uber.org/zap"
)

// Server wraps the MCP server with the engine it exposes.
type Server struct {
	engine  *engine.Engine
	mcp     *mcpserver.MCPServer
	windows *windowTracker
	format  output.Format
	log     *zap.Logger
}

// New creates an MCP server with all element tools registered. Tool results
// are rendered in format.
func New(e *engine.Engine, cfg config.ServerConfig, format output.Format, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		engine: e,
		format: format,
		log:    log,
	}
	s.windows = newWindowTracker(cfg.WindowRefresh, e.Windows, e.Registry().InvalidateWindow)
	s.mcp = mcpserver.NewMCPServer(
		"desktop-uia",
		version.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	s.registerTools()
	return s
}

// Serve runs the configured transport until ctx is cancelled or the
// transport fails.
func (s *Server) Serve(ctx context.Context, cfg config.ServerConfig) error {
	switch cfg.Transport {
	case "stdio":
		s.log.Info("serving MCP over stdio")
		err := mcpserver.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case "streamable-http":
		addr := fmt.Sprintf(":%d", cfg.Port)
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		errCh := make(chan error, 1)
		go func() {
			s.log.Info("serving MCP over streamable HTTP", zap.String("addr", addr))
			errCh <- httpServer.Start(addr)
		}()
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

// queryOptions are the element query arguments shared by several tools.
func queryOptions(windowRequired bool) []mcp.ToolOption {
	window := []mcp.PropertyOption{mcp.Description("Native window handle (see window_list)")}
	if windowRequired {
		window = append(window, mcp.Required())
	}
	return []mcp.ToolOption{
		mcp.WithNumber("window", window...),
		mcp.WithString("automation_id", mcp.Description("Exact automation id")),
		mcp.WithString("name", mcp.Description("Exact accessible name")),
		mcp.WithString("name_contains", mcp.Description("Case-insensitive substring of the name")),
		mcp.WithString("name_pattern", mcp.Description("Case-insensitive regular expression on the name")),
		mcp.WithString("control_type", mcp.Description("Control type, e.g. Button, Edit (aliases like btn, input accepted)")),
		mcp.WithString("class_name", mcp.Description("Exact native class name")),
		mcp.WithNumber("exact_depth", mcp.Description("Only match nodes this many levels below the window root")),
		mcp.WithNumber("found_index", mcp.Description("1-based index of the first match to return")),
		mcp.WithNumber("max_elements", mcp.Description("Max elements to return")),
	}
}

func tool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)...)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		tool("window_list", "List top-level windows with their handles, titles and owning apps"),
		s.handleWindowList,
	)

	s.mcp.AddTool(
		tool("ui_find", "Find UI elements in a window. All filters are combined with AND; matches are returned in tab order with ids usable by the other tools.",
			queryOptions(true)...),
		s.handleFind,
	)

	s.mcp.AddTool(
		tool("ui_click", "Click an element by id, or the first element matching a query",
			append(queryOptions(false),
				mcp.WithString("id", mcp.Description("Element id from a previous call")),
				mcp.WithString("button", mcp.Description("Mouse button: left, right, middle")),
				mcp.WithString("modifiers", mcp.Description("Modifier keys held during the click, e.g. ctrl+shift")),
				mcp.WithBoolean("double", mcp.Description("Double-click")),
			)...),
		s.handleClick,
	)

	s.mcp.AddTool(
		tool("ui_type", "Type text into an element by id, or into the first element matching a query",
			append(queryOptions(false),
				mcp.WithString("id", mcp.Description("Element id from a previous call")),
				mcp.WithString("text", mcp.Required(), mcp.Description("Text to type")),
				mcp.WithBoolean("clear_first", mcp.Description("Select the existing content first so the text replaces it")),
			)...),
		s.handleType,
	)

	s.mcp.AddTool(
		tool("ui_focus", "Give keyboard focus to an element",
			mcp.WithString("id", mcp.Required(), mcp.Description("Element id from a previous call")),
		),
		s.handleFocus,
	)

	s.mcp.AddTool(
		tool("ui_get_text", "Read an element's value, or its name when it has no value",
			mcp.WithString("id", mcp.Required(), mcp.Description("Element id from a previous call")),
		),
		s.handleGetText,
	)

	s.mcp.AddTool(
		tool("ui_ancestors", "List an element's ancestors, nearest first, ending at the window root",
			mcp.WithString("id", mcp.Required(), mcp.Description("Element id from a previous call")),
			mcp.WithNumber("max_levels", mcp.Description("Stop after this many ancestors (0 = up to the root)")),
			mcp.WithBoolean("include_self", mcp.Description("Include the element itself first")),
		),
		s.handleAncestors,
	)

	s.mcp.AddTool(
		tool("ui_focused", "Return the element that has keyboard focus in the foreground window"),
		s.handleFocused,
	)

	s.mcp.AddTool(
		tool("ui_tree", "Dump the element tree of a window or of a subtree, nested by depth",
			append(queryOptions(false),
				mcp.WithString("root_id", mcp.Description("Start at this element instead of the window root")),
				mcp.WithNumber("max_depth", mcp.Description("Levels below the start to include (default 5)")),
			)...),
		s.handleTree,
	)
}
