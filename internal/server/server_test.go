package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/desktop-uia/internal/config"
	"github.com/mj1618/desktop-uia/internal/engine"
	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/output"
	"github.com/mj1618/desktop-uia/internal/platform/memtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const loginWindow = 4097

func newTestServer(t *testing.T) (*Server, *memtree.Tree) {
	t.Helper()
	tree, err := memtree.LoadFile(filepath.Join("..", "platform", "memtree", "testdata", "login.yaml"))
	require.NoError(t, err)
	p, _ := tree.Provider()

	cfg := config.NewDefaultConfig()
	cfg.Input.RatePerSecond = 0
	cfg.Server.WindowRefresh = 0
	e, err := engine.New(p, cfg)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return New(e, cfg.Server, output.FormatYAML, nil), tree
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

func decode(t *testing.T, res *mcp.CallToolResult, v interface{}) {
	t.Helper()
	require.NoError(t, yaml.Unmarshal([]byte(resultText(t, res)), v))
}

func TestHandleFind(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleFind(context.Background(), call(map[string]interface{}{
		"window":       float64(loginWindow),
		"control_type": "btn",
		"max_elements": float64(5),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var qr model.QueryResult
	decode(t, res, &qr)
	require.Len(t, qr.Elements, 3)
	assert.Equal(t, "Submit", qr.Elements[0].Name)
	assert.Equal(t, "winforms", qr.Diagnostics.DetectedFramework)
}

func TestHandleFind_ErrorsAreToolResults(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleFind(context.Background(), call(map[string]interface{}{
		"window": float64(loginWindow),
		"name":   "Nope",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	var out model.ActionOutcome
	decode(t, res, &out)
	assert.Equal(t, "element_not_found", out.Kind)
	require.NotNil(t, out.Diagnostics)
	assert.Equal(t, 6, out.Diagnostics.ElementsScanned)
}

func TestHandleClickAndType(t *testing.T) {
	s, tree := newTestServer(t)

	res, err := s.handleType(context.Background(), call(map[string]interface{}{
		"window":        float64(loginWindow),
		"automation_id": "UsernameInput",
		"text":          "Hello",
		"clear_first":   true,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Equal(t, "Hello", tree.Value(tree.ByAutomationID("UsernameInput")))

	res, err = s.handleClick(context.Background(), call(map[string]interface{}{
		"window": float64(loginWindow),
		"name":   "Disabled",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	var out model.ActionOutcome
	decode(t, res, &out)
	assert.Equal(t, "element_not_actionable", out.Kind)
}

func TestHandleClick_ArgumentErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"no target", map[string]interface{}{}},
		{"id and query", map[string]interface{}{"id": "1001|r|1", "name": "Submit"}},
		{"bad button", map[string]interface{}{"id": "1001|r|1", "button": "thumb"}},
		{"bad modifier", map[string]interface{}{"id": "1001|r|1", "modifiers": "hyper"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleClick(context.Background(), call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}

func TestHandleIDTools(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleFind(ctx, call(map[string]interface{}{"window": float64(loginWindow), "name": "Submit"}))
	require.NoError(t, err)
	var qr model.QueryResult
	decode(t, res, &qr)
	id := qr.Elements[0].ID

	res, err = s.handleGetText(ctx, call(map[string]interface{}{"id": id}))
	require.NoError(t, err)
	var out model.ActionOutcome
	decode(t, res, &out)
	assert.Equal(t, "Submit", out.Text)

	res, err = s.handleAncestors(ctx, call(map[string]interface{}{"id": id, "include_self": true}))
	require.NoError(t, err)
	var anc model.QueryResult
	decode(t, res, &anc)
	assert.Len(t, anc.Elements, 3)

	res, err = s.handleFocus(ctx, call(map[string]interface{}{"id": id}))
	require.NoError(t, err)
	assert.False(t, res.IsError, resultText(t, res))

	res, err = s.handleFocused(ctx, call(nil))
	require.NoError(t, err)
	var focused model.QueryResult
	decode(t, res, &focused)
	assert.Equal(t, id, focused.Elements[0].ID)

	res, err = s.handleFocus(ctx, call(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleTree(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleTree(context.Background(), call(map[string]interface{}{"window": float64(loginWindow)}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var tr output.TreeResult
	decode(t, res, &tr)
	require.Len(t, tr.Tree, 1)
	assert.Equal(t, "Sign in", tr.Tree[0].Name)
	assert.Len(t, tr.Tree[0].Children, 2)
	assert.Equal(t, 6, tr.Diagnostics.Matched)
}

func TestHandleWindowList_InvalidatesClosedWindows(t *testing.T) {
	s, tree := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleWindowList(ctx, call(nil))
	require.NoError(t, err)
	var list output.WindowList
	decode(t, res, &list)
	require.Len(t, list.Windows, 2)

	_, err = s.handleFind(ctx, call(map[string]interface{}{"window": float64(loginWindow), "name": "Submit"}))
	require.NoError(t, err)
	require.Equal(t, 1, s.engine.Registry().Len())

	tree.CloseWindow(loginWindow)
	res, err = s.handleWindowList(ctx, call(nil))
	require.NoError(t, err)
	var after output.WindowList
	decode(t, res, &after)
	assert.Len(t, after.Windows, 1)
	assert.Zero(t, s.engine.Registry().Len())
}

func TestQueryFromParams_Server(t *testing.T) {
	q := queryFromParams(map[string]interface{}{
		"window":        float64(0x1001),
		"name_contains": "mit",
		"exact_depth":   float64(0),
		"found_index":   float64(2),
	})
	assert.Equal(t, int64(0x1001), q.WindowHandle)
	assert.Equal(t, "mit", q.NameContains)
	require.NotNil(t, q.ExactDepth)
	assert.Equal(t, 0, *q.ExactDepth)
	assert.Equal(t, 2, q.FoundIndex)

	assert.Nil(t, queryFromParams(map[string]interface{}{}).ExactDepth)
}

