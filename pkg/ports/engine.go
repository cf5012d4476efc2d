package ports

import (
	"context"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
)

// Editor is the session-scoped surface of the engine used by transports (HTTP, MCP, CLI).
// Edit operations never return Go errors: every outcome is a domain.Status.
type Editor interface {
	// Open starts a session on m and returns its first render.
	Open(ctx context.Context, sessionID string, m *model.Model) (*domain.Diagram, error)
	// Diagram returns the current diagram of a session.
	Diagram(ctx context.Context, sessionID string) (*domain.Diagram, error)
	// Close ends a session and forgets its state.
	Close(ctx context.Context, sessionID string) error

	CreateNode(ctx context.Context, sessionID string, req domain.CreateNodeRequest) domain.Status
	CreateEdge(ctx context.Context, sessionID string, req domain.CreateEdgeRequest) domain.Status
	Delete(ctx context.Context, sessionID string, req domain.DeleteRequest) domain.Status
	Reconnect(ctx context.Context, sessionID string, req domain.ReconnectRequest) domain.Status
	DirectEdit(ctx context.Context, sessionID string, req domain.DirectEditRequest) domain.Status
	HandleDrop(ctx context.Context, sessionID string, req domain.DropRequest) domain.Status
}
