package description

import "github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"

// NodeKind tells the renderer how a node description relates to its semantic target.
type NodeKind string

const (
	// KindDefault nodes show one element per candidate.
	KindDefault NodeKind = "default"
	// KindCompartment nodes are non-semantic regions repeating their container's target.
	KindCompartment NodeKind = "compartment"
	// KindFakeChild nodes fill a container's body without representing a new element.
	KindFakeChild NodeKind = "fake-child"
	// KindSharedGroup is the pseudo-node holding descriptions reused by several parents.
	KindSharedGroup NodeKind = "shared-group"
)

// Candidates selects the semantic elements a node description shows under its container.
// Exactly one of Feature, Self and None is meaningful; Filter narrows Feature results.
type Candidates struct {
	// Feature is a dot-separated path of features from the container's target.
	Feature string `json:"feature,omitempty" yaml:"feature,omitempty" mapstructure:"feature"`
	// Filter is a CEL expression over `self` and `container` that must evaluate to true.
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty" mapstructure:"filter"`
	// Self selects the container's target itself (compartments, fake children).
	Self bool `json:"self,omitempty" yaml:"self,omitempty" mapstructure:"self"`
	// None selects nothing; the shared group declares no candidates.
	None bool `json:"none,omitempty" yaml:"none,omitempty" mapstructure:"none"`
}

// IsEmpty reports whether the candidates select nothing.
func (c Candidates) IsEmpty() bool {
	return c.None || (c.Feature == "" && !c.Self)
}

// NodeDescription is a declarative rule turning domain elements into node views.
type NodeDescription struct {
	// Name is unique within a description and becomes the MappingType of rendered nodes.
	Name       string            `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	DomainType string            `json:"domain_type" yaml:"domain_type" mapstructure:"domain_type" validate:"required"`
	Kind       NodeKind          `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind" validate:"omitempty,oneof=default compartment fake-child shared-group"`
	Candidates Candidates        `json:"candidates" yaml:"candidates" mapstructure:"candidates"`
	Sync       domain.SyncPolicy `json:"sync,omitempty" yaml:"sync,omitempty" mapstructure:"sync" validate:"omitempty,oneof=synchronized unsynchronized"`
	// LabelAttribute is the attribute shown and edited as the node label. Defaults to "name".
	LabelAttribute string `json:"label_attribute,omitempty" yaml:"label_attribute,omitempty" mapstructure:"label_attribute"`

	Children    []*NodeDescription `json:"children,omitempty" yaml:"children,omitempty" mapstructure:"children" validate:"dive"`
	BorderNodes []*NodeDescription `json:"border_nodes,omitempty" yaml:"border_nodes,omitempty" mapstructure:"border_nodes" validate:"dive"`
	// ReusedChildren and ReusedBorderNodes name descriptions declared in the shared group.
	ReusedChildren    []string `json:"reused_children,omitempty" yaml:"reused_children,omitempty" mapstructure:"reused_children"`
	ReusedBorderNodes []string `json:"reused_border_nodes,omitempty" yaml:"reused_border_nodes,omitempty" mapstructure:"reused_border_nodes"`

	Palette Palette `json:"palette" yaml:"palette" mapstructure:"palette"`
}

// IsSynchronized reports whether views follow their candidates automatically.
func (n *NodeDescription) IsSynchronized() bool {
	return n.Sync != domain.Unsynchronized
}

// EffectiveKind returns Kind, defaulting to KindDefault.
func (n *NodeDescription) EffectiveKind() NodeKind {
	if n.Kind == "" {
		return KindDefault
	}
	return n.Kind
}

// Label returns the label attribute name.
func (n *NodeDescription) Label() string {
	if n.LabelAttribute == "" {
		return "name"
	}
	return n.LabelAttribute
}

// EdgeDescription is a declarative rule turning elements (or pairs of rendered nodes)
// into edge views.
type EdgeDescription struct {
	Name       string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	DomainType string `json:"domain_type,omitempty" yaml:"domain_type,omitempty" mapstructure:"domain_type" validate:"required_if=DomainBased true"`
	// DomainBased edges represent an element; the others are purely visual and carry no semantic id.
	DomainBased bool `json:"domain_based" yaml:"domain_based" mapstructure:"domain_based"`

	SourceDescriptions []string `json:"source_descriptions" yaml:"source_descriptions" mapstructure:"source_descriptions" validate:"min=1"`
	TargetDescriptions []string `json:"target_descriptions" yaml:"target_descriptions" mapstructure:"target_descriptions" validate:"min=1"`
	// SourcePath and TargetPath resolve the end elements. For domain based edges both start
	// at the edge element; otherwise SourcePath is unused and TargetPath starts at the
	// source node's element.
	SourcePath string `json:"source_path,omitempty" yaml:"source_path,omitempty" mapstructure:"source_path"`
	TargetPath string `json:"target_path" yaml:"target_path" mapstructure:"target_path" validate:"required"`
	// Filter is a CEL expression over `self` (the edge element, or the source element).
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty" mapstructure:"filter"`
	// LabelAttribute is the attribute edited as the edge label. Defaults to "name".
	LabelAttribute string `json:"label_attribute,omitempty" yaml:"label_attribute,omitempty" mapstructure:"label_attribute"`

	Palette Palette `json:"palette" yaml:"palette" mapstructure:"palette"`
}

// Label returns the label attribute name.
func (e *EdgeDescription) Label() string {
	if e.LabelAttribute == "" {
		return "name"
	}
	return e.LabelAttribute
}

// Description is a versioned diagram description. The shared group, when present,
// is a root-level node description of KindSharedGroup.
type Description struct {
	ID         string             `json:"id" yaml:"id" mapstructure:"id" validate:"required"`
	Version    string             `json:"version,omitempty" yaml:"version,omitempty" mapstructure:"version"`
	Label      string             `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	DomainType string             `json:"domain_type" yaml:"domain_type" mapstructure:"domain_type" validate:"required"`
	Nodes      []*NodeDescription `json:"nodes" yaml:"nodes" mapstructure:"nodes" validate:"dive"`
	Edges      []*EdgeDescription `json:"edges,omitempty" yaml:"edges,omitempty" mapstructure:"edges" validate:"dive"`
	// Palette holds the tools available on the diagram background.
	Palette Palette `json:"palette" yaml:"palette" mapstructure:"palette"`
}

// SharedGroups returns every shared-group node description, wherever it is declared.
func (d *Description) SharedGroups() []*NodeDescription {
	var out []*NodeDescription
	d.WalkNodes(func(n *NodeDescription, _ *NodeDescription) {
		if n.EffectiveKind() == KindSharedGroup {
			out = append(out, n)
		}
	})
	return out
}

// WalkNodes visits every declared node description depth-first with its declaring parent
// (nil at the root). Reused names are not followed.
func (d *Description) WalkNodes(fn func(n, parent *NodeDescription)) {
	var walk func(nodes []*NodeDescription, parent *NodeDescription)
	walk = func(nodes []*NodeDescription, parent *NodeDescription) {
		for _, n := range nodes {
			fn(n, parent)
			walk(n.BorderNodes, n)
			walk(n.Children, n)
		}
	}
	walk(d.Nodes, nil)
}
