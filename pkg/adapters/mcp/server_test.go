package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	papyrus "github.com/PapyGame/PapyrusWebBackend-sub011"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/structure"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/uml"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	kind := structure.New()
	eng, err := papyrus.New(kind)
	require.NoError(t, err)
	return NewServer(eng, uml.Metamodel(), kind.Description)
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func modelJSON(t *testing.T) string {
	t.Helper()
	m, err := model.New(uml.Metamodel(), "m", uml.Model, map[string]any{uml.FeatureName: "m"})
	require.NoError(t, err)
	data, err := m.MarshalJSON()
	require.NoError(t, err)
	return string(data)
}

func TestServer_Tools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleOpen(ctx, call("open_session", map[string]any{"session_id": "s1", "model": modelJSON(t)}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	var d domain.Diagram
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &d))
	assert.Equal(t, "s1", d.ID)
	assert.Empty(t, d.Nodes)

	res, err = s.handleCreateNode(ctx, call("create_node", map[string]any{"session_id": "s1", "tool": structure.ToolClass}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	var st domain.Status
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &st))
	assert.True(t, st.Success)

	res, err = s.handleDiagram(ctx, call("get_diagram", map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &d))
	require.Len(t, d.Nodes, 1)

	res, err = s.handleDirectEdit(ctx, call("direct_edit", map[string]any{
		"session_id": "s1", "view_id": d.Nodes[0].ID, "label": "Renamed",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError, text(t, res))

	res, err = s.handleClose(ctx, call("close_session", map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handleDiagram(ctx, call("get_diagram", map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServer_ToolErrors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		handle func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args   map[string]any
	}{
		{"missing session", s.handleCreateNode, map[string]any{"tool": structure.ToolClass}},
		{"unknown session", s.handleCreateNode, map[string]any{"session_id": "ghost", "tool": structure.ToolClass}},
		{"bad model", s.handleOpen, map[string]any{"session_id": "s1", "model": "{"}},
		{"bad params", s.handleDirectEdit, map[string]any{"session_id": "s1", "view_id": "v", "label": "x", "params": "[]"}},
		{"missing end", s.handleReconnect, map[string]any{"session_id": "s1", "edge_view_id": "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.handle(ctx, call("tool", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}
