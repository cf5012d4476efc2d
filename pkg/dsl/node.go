package dsl

import (
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
)

// NodeBuilder configures one node description.
type NodeBuilder struct {
	node *description.NodeDescription
}

// Description returns the node description being built.
func (n *NodeBuilder) Description() *description.NodeDescription { return n.node }

// Feature selects candidates through a feature path of the container's target.
func (n *NodeBuilder) Feature(path string) *NodeBuilder {
	n.node.Candidates.Feature = path
	return n
}

// Filter narrows the candidates with a CEL expression.
func (n *NodeBuilder) Filter(expr string) *NodeBuilder {
	n.node.Candidates.Filter = expr
	return n
}

// Self shows the container's target itself.
func (n *NodeBuilder) Self() *NodeBuilder {
	n.node.Candidates.Self = true
	return n
}

// Manual makes views appear only on explicit request (creation tool or drop).
func (n *NodeBuilder) Manual() *NodeBuilder {
	n.node.Sync = domain.Unsynchronized
	return n
}

// LabelAttribute sets the attribute shown as label.
func (n *NodeBuilder) LabelAttribute(attr string) *NodeBuilder {
	n.node.LabelAttribute = attr
	return n
}

// Child adds a private child description.
func (n *NodeBuilder) Child(name, domainType string) *NodeBuilder {
	c := &description.NodeDescription{Name: name, DomainType: domainType}
	n.node.Children = append(n.node.Children, c)
	return &NodeBuilder{node: c}
}

// Border adds a private border node description.
func (n *NodeBuilder) Border(name, domainType string) *NodeBuilder {
	c := &description.NodeDescription{Name: name, DomainType: domainType}
	n.node.BorderNodes = append(n.node.BorderNodes, c)
	return &NodeBuilder{node: c}
}

// Compartment adds a non-semantic region showing the same target as n.
func (n *NodeBuilder) Compartment(name string) *NodeBuilder {
	c := &description.NodeDescription{
		Name:       name,
		DomainType: n.node.DomainType,
		Kind:       description.KindCompartment,
		Candidates: description.Candidates{Self: true},
	}
	n.node.Children = append(n.node.Children, c)
	return &NodeBuilder{node: c}
}

// FakeChild adds a non-semantic body node showing the same target as n.
func (n *NodeBuilder) FakeChild(name string) *NodeBuilder {
	c := &description.NodeDescription{
		Name:       name,
		DomainType: n.node.DomainType,
		Kind:       description.KindFakeChild,
		Candidates: description.Candidates{Self: true},
	}
	n.node.Children = append(n.node.Children, c)
	return &NodeBuilder{node: c}
}

// Reuse references children declared in the shared group.
func (n *NodeBuilder) Reuse(names ...string) *NodeBuilder {
	n.node.ReusedChildren = append(n.node.ReusedChildren, names...)
	return n
}

// ReuseBorder references border nodes declared in the shared group.
func (n *NodeBuilder) ReuseBorder(names ...string) *NodeBuilder {
	n.node.ReusedBorderNodes = append(n.node.ReusedBorderNodes, names...)
	return n
}

// Deletable adds a semantic delete tool. Cascade paths name references whose targets
// are destroyed with the element.
func (n *NodeBuilder) Deletable(tool string, cascade ...string) *NodeBuilder {
	n.node.Palette.Delete = &description.DeleteTool{Name: tool, Cascade: cascade}
	return n
}

// Hideable adds a graphical delete tool hiding manual views.
func (n *NodeBuilder) Hideable(tool string) *NodeBuilder {
	n.node.Palette.Delete = &description.DeleteTool{Name: tool, Graphical: true}
	return n
}

// Editable adds a direct-edit tool on the label attribute.
func (n *NodeBuilder) Editable(tool string) *NodeBuilder {
	n.node.Palette.DirectEdit = &description.DirectEditTool{Name: tool}
	return n
}

// CreateTool adds a creation tool storing new elements in feature of this node's target.
func (n *NodeBuilder) CreateTool(name, domainType, feature string, opts ...NodeToolOption) *NodeBuilder {
	n.node.Palette.NodeTools = append(n.node.Palette.NodeTools, newNodeTool(name, domainType, feature, opts))
	return n
}

// EdgeTool adds an edge creation tool whose source is this node.
func (n *NodeBuilder) EdgeTool(t *description.EdgeTool) *NodeBuilder {
	n.node.Palette.EdgeTools = append(n.node.Palette.EdgeTools, t)
	return n
}

// EdgeBuilder configures one edge description.
type EdgeBuilder struct {
	edge *description.EdgeDescription
}

// Description returns the edge description being built.
func (e *EdgeBuilder) Description() *description.EdgeDescription { return e.edge }

// From sets the node descriptions accepted as source.
func (e *EdgeBuilder) From(names ...string) *EdgeBuilder {
	e.edge.SourceDescriptions = append(e.edge.SourceDescriptions, names...)
	return e
}

// To sets the node descriptions accepted as target.
func (e *EdgeBuilder) To(names ...string) *EdgeBuilder {
	e.edge.TargetDescriptions = append(e.edge.TargetDescriptions, names...)
	return e
}

// Paths sets the reference paths resolving the ends.
func (e *EdgeBuilder) Paths(source, target string) *EdgeBuilder {
	e.edge.SourcePath = source
	e.edge.TargetPath = target
	return e
}

// Filter narrows the edge elements (or link sources) with a CEL expression.
func (e *EdgeBuilder) Filter(expr string) *EdgeBuilder {
	e.edge.Filter = expr
	return e
}

// Deletable adds a semantic delete tool.
func (e *EdgeBuilder) Deletable(tool string, cascade ...string) *EdgeBuilder {
	e.edge.Palette.Delete = &description.DeleteTool{Name: tool, Cascade: cascade}
	return e
}

// Editable adds a direct-edit tool on the label attribute.
func (e *EdgeBuilder) Editable(tool string) *EdgeBuilder {
	e.edge.Palette.DirectEdit = &description.DirectEditTool{Name: tool}
	return e
}

// Reconnect adds a reconnect tool for one end.
func (e *EdgeBuilder) Reconnect(tool string, end domain.EdgeEnd, path string, targets ...string) *EdgeBuilder {
	e.edge.Palette.Reconnect = append(e.edge.Palette.Reconnect, &description.ReconnectTool{
		Name: tool, End: end, Path: path, Targets: targets,
	})
	return e
}
