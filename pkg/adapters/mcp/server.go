// Package mcp exposes an engine as Model Context Protocol tools, so that agents can
// open sessions and edit diagrams.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	papyrus "github.com/PapyGame/PapyrusWebBackend-sub011"
	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/logging"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
)

// DescriptionURI is the resource serving the diagram description.
const DescriptionURI = "papyrus://description"

// Server wraps an editor and exposes it as an MCP server.
type Server struct {
	editor    ports.Editor
	mm        *model.Metamodel
	desc      *description.Description
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates an MCP server over editor. Models sent to open_session are restored
// against mm; desc is published as a resource.
func NewServer(editor ports.Editor, mm *model.Metamodel, desc *description.Description, opts ...Option) *Server {
	s := &Server{
		editor:    editor,
		mm:        mm,
		desc:      desc,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("papyrus-mcp", strings.TrimSpace(papyrus.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to work on"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("open_session",
		mcp.WithDescription("Open (or restart) a session on a model and return its first diagram."),
		sessionArg(),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model snapshot as JSON: {metamodel, root, elements}")),
	), s.handleOpen)

	s.mcpServer.AddTool(mcp.NewTool("get_diagram",
		mcp.WithDescription("Return the current diagram of a session."),
		sessionArg(),
	), s.handleDiagram)

	s.mcpServer.AddTool(mcp.NewTool("close_session",
		mcp.WithDescription("Close a session and forget its state."),
		sessionArg(),
	), s.handleClose)

	s.mcpServer.AddTool(mcp.NewTool("create_node",
		mcp.WithDescription("Run a node creation tool on a container view (or the diagram background)."),
		sessionArg(),
		mcp.WithString("tool", mcp.Required(), mcp.Description("Palette tool name")),
		mcp.WithString("parent_view_id", mcp.Description("Container view id; empty for the background")),
	), s.handleCreateNode)

	s.mcpServer.AddTool(mcp.NewTool("create_edge",
		mcp.WithDescription("Run an edge creation tool between two node views."),
		sessionArg(),
		mcp.WithString("tool", mcp.Required(), mcp.Description("Palette tool name")),
		mcp.WithString("source_view_id", mcp.Required()),
		mcp.WithString("target_view_id", mcp.Required()),
	), s.handleCreateEdge)

	s.mcpServer.AddTool(mcp.NewTool("delete_view",
		mcp.WithDescription("Run the delete tool of a node or edge view."),
		sessionArg(),
		mcp.WithString("view_id", mcp.Required()),
	), s.handleDelete)

	s.mcpServer.AddTool(mcp.NewTool("reconnect_edge",
		mcp.WithDescription("Move one end of an edge onto another node view."),
		sessionArg(),
		mcp.WithString("edge_view_id", mcp.Required()),
		mcp.WithString("end", mcp.Required(), mcp.Enum(string(domain.EndSource), string(domain.EndTarget))),
		mcp.WithString("new_end_view_id", mcp.Required()),
	), s.handleReconnect)

	s.mcpServer.AddTool(mcp.NewTool("direct_edit",
		mcp.WithDescription("Edit the label of a view."),
		sessionArg(),
		mcp.WithString("view_id", mcp.Required()),
		mcp.WithString("label", mcp.Required()),
		mcp.WithString("params", mcp.Description("JSON object of extra tool parameters (optional)")),
	), s.handleDirectEdit)

	s.mcpServer.AddTool(mcp.NewTool("drop_element",
		mcp.WithDescription("Drop a model element on a view or on the diagram background."),
		sessionArg(),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Id of the dropped element")),
		mcp.WithString("target_view_id", mcp.Description("Target view id; empty for the background")),
	), s.handleDrop)
}

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := request.RequireString("model")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := model.Restore(s.mm, []byte(raw))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid model: %v", err)), nil
	}
	d, err := s.editor.Open(ctx, id, m)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("open failed: %v", err)), nil
	}
	return jsonResult(d)
}

func (s *Server) handleDiagram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.editor.Diagram(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(d)
}

func (s *Server) handleClose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.editor.Close(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("closed"), nil
}

func (s *Server) handleCreateNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.edit(request, func(id string) (domain.Status, error) {
		tool, err := request.RequireString("tool")
		if err != nil {
			return domain.Status{}, err
		}
		return s.editor.CreateNode(ctx, id, domain.CreateNodeRequest{
			ParentViewID: request.GetString("parent_view_id", ""),
			Tool:         tool,
		}), nil
	})
}

func (s *Server) handleCreateEdge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.edit(request, func(id string) (domain.Status, error) {
		var req domain.CreateEdgeRequest
		var err error
		if req.Tool, err = request.RequireString("tool"); err != nil {
			return domain.Status{}, err
		}
		if req.SourceViewID, err = request.RequireString("source_view_id"); err != nil {
			return domain.Status{}, err
		}
		if req.TargetViewID, err = request.RequireString("target_view_id"); err != nil {
			return domain.Status{}, err
		}
		return s.editor.CreateEdge(ctx, id, req), nil
	})
}

func (s *Server) handleDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.edit(request, func(id string) (domain.Status, error) {
		viewID, err := request.RequireString("view_id")
		if err != nil {
			return domain.Status{}, err
		}
		return s.editor.Delete(ctx, id, domain.DeleteRequest{ViewID: viewID}), nil
	})
}

func (s *Server) handleReconnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.edit(request, func(id string) (domain.Status, error) {
		var req domain.ReconnectRequest
		var err error
		if req.EdgeViewID, err = request.RequireString("edge_view_id"); err != nil {
			return domain.Status{}, err
		}
		end, err := request.RequireString("end")
		if err != nil {
			return domain.Status{}, err
		}
		req.End = domain.EdgeEnd(end)
		if req.NewEndViewID, err = request.RequireString("new_end_view_id"); err != nil {
			return domain.Status{}, err
		}
		return s.editor.Reconnect(ctx, id, req), nil
	})
}

func (s *Server) handleDirectEdit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.edit(request, func(id string) (domain.Status, error) {
		viewID, err := request.RequireString("view_id")
		if err != nil {
			return domain.Status{}, err
		}
		label, err := request.RequireString("label")
		if err != nil {
			return domain.Status{}, err
		}
		req := domain.DirectEditRequest{ViewID: viewID, Label: label}
		if raw := request.GetString("params", ""); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Params); err != nil {
				return domain.Status{}, fmt.Errorf("params must be a JSON object: %w", err)
			}
		}
		return s.editor.DirectEdit(ctx, id, req), nil
	})
}

func (s *Server) handleDrop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.edit(request, func(id string) (domain.Status, error) {
		source, err := request.RequireString("source_id")
		if err != nil {
			return domain.Status{}, err
		}
		return s.editor.HandleDrop(ctx, id, domain.DropRequest{
			SourceID:     source,
			TargetViewID: request.GetString("target_view_id", ""),
		}), nil
	})
}

// edit runs an editor call and returns its status as JSON. Failed statuses are tool errors.
func (s *Server) edit(request mcp.CallToolRequest, call func(sessionID string) (domain.Status, error)) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st, err := call(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := jsonResult(st)
	if err != nil {
		return nil, err
	}
	if !st.Success {
		s.logger.Debug("MCP tool failed", "tool", request.Params.Name, "code", st.Code)
		res.IsError = true
	}
	return res, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DescriptionURI, "Diagram Description",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.desc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode description: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      DescriptionURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
