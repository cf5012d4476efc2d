package dsl

import (
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
)

// Builder assembles a diagram description.
type Builder struct {
	desc *description.Description
}

// New starts a description of a diagram whose target is of domainType.
func New(id, domainType string) *Builder {
	return &Builder{desc: &description.Description{ID: id, DomainType: domainType}}
}

// Version sets the description version.
func (b *Builder) Version(v string) *Builder {
	b.desc.Version = v
	return b
}

// Label sets the human readable name.
func (b *Builder) Label(l string) *Builder {
	b.desc.Label = l
	return b
}

// Node adds a root-level node description.
func (b *Builder) Node(name, domainType string) *NodeBuilder {
	n := &description.NodeDescription{Name: name, DomainType: domainType}
	b.desc.Nodes = append(b.desc.Nodes, n)
	return &NodeBuilder{node: n}
}

// SharedGroup adds the shared group pseudo-node. Its children are the reusable descriptions.
func (b *Builder) SharedGroup(name, rootType string) *NodeBuilder {
	n := &description.NodeDescription{
		Name:       name,
		DomainType: rootType,
		Kind:       description.KindSharedGroup,
		Candidates: description.Candidates{None: true},
	}
	b.desc.Nodes = append(b.desc.Nodes, n)
	return &NodeBuilder{node: n}
}

// DomainEdge adds an edge description representing elements of domainType.
func (b *Builder) DomainEdge(name, domainType string) *EdgeBuilder {
	e := &description.EdgeDescription{Name: name, DomainType: domainType, DomainBased: true}
	b.desc.Edges = append(b.desc.Edges, e)
	return &EdgeBuilder{edge: e}
}

// Link adds a visual edge from source node elements to the targets of a reference path.
func (b *Builder) Link(name string) *EdgeBuilder {
	e := &description.EdgeDescription{Name: name}
	b.desc.Edges = append(b.desc.Edges, e)
	return &EdgeBuilder{edge: e}
}

// CreateTool adds a creation tool to the diagram background palette.
func (b *Builder) CreateTool(name, domainType, feature string, opts ...NodeToolOption) *Builder {
	b.desc.Palette.NodeTools = append(b.desc.Palette.NodeTools, newNodeTool(name, domainType, feature, opts))
	return b
}

// Build returns the description.
func (b *Builder) Build() *description.Description {
	return b.desc
}

// Compile builds and compiles the description against mm.
func (b *Builder) Compile(mm *model.Metamodel) (*description.Registry, error) {
	return description.Compile(b.desc, mm)
}

// NodeToolOption customizes a creation tool.
type NodeToolOption func(*description.NodeTool)

// Prepend inserts created elements first in their feature.
func Prepend() NodeToolOption {
	return func(t *description.NodeTool) { t.Position = description.Prepend }
}

// WithAttributes sets the initial attributes of created elements.
func WithAttributes(attrs map[string]any) NodeToolOption {
	return func(t *description.NodeTool) { t.Attributes = attrs }
}

// Reveal names the (unsynchronized) node description showing the created element.
func Reveal(nodeDescription string) NodeToolOption {
	return func(t *description.NodeTool) { t.Description = nodeDescription }
}

func newNodeTool(name, domainType, feature string, opts []NodeToolOption) *description.NodeTool {
	t := &description.NodeTool{Name: name, DomainType: domainType, Feature: feature, Position: description.Append}
	for _, opt := range opts {
		opt(t)
	}
	return t
}
