package graph

import (
	"fmt"
	"strings"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
)

// GraphOverlay contains session data to highlight on the diagram.
type GraphOverlay struct {
	// Changed views are styled as touched by the latest edit.
	Changed []string
	// Selected is the view the user is working on.
	Selected string
}

// Labeler returns the text displayed for a node view.
type Labeler func(*domain.Node) string

// GenerateMermaid produces a Mermaid flowchart of a diagram.
// Containers become subgraphs. Shapes follow the view kind:
// - Border node: ((Circle))
// - Manual (unsynchronized) node: [[Subroutine]]
// - Default: [Rectangle]
// Domain edges are solid arrows, annotation links are dotted.
func GenerateMermaid(d *domain.Diagram, label Labeler, overlay *GraphOverlay) string {
	if label == nil {
		label = func(n *domain.Node) string { return n.MappingType }
	}
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, n := range d.Nodes {
		writeNode(&sb, n, label, false, 1)
	}

	for _, e := range d.Edges {
		arrow := fmt.Sprintf("-- \"%s\" -->", escape(e.MappingType))
		if e.SemanticID == "" {
			arrow = "-.->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(e.SourceID), arrow, sanitizeMermaidID(e.TargetID)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef changed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Changed {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s changed;\n", safeID))
			}
		}
		if overlay.Selected != "" {
			sb.WriteString(fmt.Sprintf("    class %s selected;\n", sanitizeMermaidID(overlay.Selected)))
		}
	}

	return sb.String()
}

func writeNode(sb *strings.Builder, n *domain.Node, label Labeler, border bool, depth int) {
	indent := strings.Repeat("    ", depth)
	safeID := sanitizeMermaidID(n.ID)
	text := escape(label(n))

	if len(n.Children) > 0 || len(n.BorderNodes) > 0 {
		sb.WriteString(fmt.Sprintf("%ssubgraph %s[\"%s\"]\n", indent, safeID, text))
		for _, b := range n.BorderNodes {
			writeNode(sb, b, label, true, depth+1)
		}
		for _, c := range n.Children {
			writeNode(sb, c, label, false, depth+1)
		}
		sb.WriteString(indent + "end\n")
		return
	}

	opener, closer := "[", "]"
	switch {
	case border:
		opener, closer = "((", "))"
	case n.Manual:
		opener, closer = "[[", "]]"
	}
	sb.WriteString(fmt.Sprintf("%s%s%s\"%s\"%s\n", indent, safeID, opener, text, closer))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
