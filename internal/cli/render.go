package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	papyrus "github.com/PapyGame/PapyrusWebBackend-sub011"
	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/presentation/graph"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
)

// Output formats of RenderModel.
const (
	FormatMermaid = "mermaid"
	FormatJSON    = "json"
)

// RenderModel opens a throwaway session on m and writes its diagram in format.
func RenderModel(ctx context.Context, engine *papyrus.Engine, m *model.Model, format string, w io.Writer) error {
	const sessionID = "render"
	d, err := engine.Open(ctx, sessionID, m)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close(ctx, sessionID) }()

	switch format {
	case FormatMermaid:
		_, err = io.WriteString(w, graph.GenerateMermaid(d, NameLabeler(m), nil))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	default:
		return fmt.Errorf("unknown format %q (use %s or %s)", format, FormatMermaid, FormatJSON)
	}
}

// NameLabeler labels views with the name of their element, or their mapping type.
func NameLabeler(m *model.Model) graph.Labeler {
	return func(n *domain.Node) string {
		if e, ok := m.Get(model.ID(n.SemanticID)); ok && e.Name() != "" {
			return e.Name()
		}
		return n.MappingType
	}
}
