package description

import (
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/schema"
)

// Position is where a created or dropped element is inserted in its feature.
type Position string

const (
	Append  Position = "append"
	Prepend Position = "prepend"
)

// Index converts the position to a feature index (-1 appends).
func (p Position) Index() int {
	if p == Prepend {
		return 0
	}
	return -1
}

// Palette groups the tools of a node, an edge or the diagram background.
type Palette struct {
	NodeTools  []*NodeTool      `json:"node_tools,omitempty" yaml:"node_tools,omitempty" mapstructure:"node_tools" validate:"dive"`
	EdgeTools  []*EdgeTool      `json:"edge_tools,omitempty" yaml:"edge_tools,omitempty" mapstructure:"edge_tools" validate:"dive"`
	Delete     *DeleteTool      `json:"delete,omitempty" yaml:"delete,omitempty" mapstructure:"delete"`
	DirectEdit *DirectEditTool  `json:"direct_edit,omitempty" yaml:"direct_edit,omitempty" mapstructure:"direct_edit"`
	Reconnect  []*ReconnectTool `json:"reconnect,omitempty" yaml:"reconnect,omitempty" mapstructure:"reconnect" validate:"dive"`
}

// IsEmpty reports whether the palette declares no tool at all.
func (p Palette) IsEmpty() bool {
	return len(p.NodeTools) == 0 && len(p.EdgeTools) == 0 && p.Delete == nil &&
		p.DirectEdit == nil && len(p.Reconnect) == 0
}

// NodeTool creates an element in a containment feature of the container's target.
type NodeTool struct {
	Name       string         `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	DomainType string         `json:"domain_type" yaml:"domain_type" mapstructure:"domain_type" validate:"required"`
	Feature    string         `json:"feature" yaml:"feature" mapstructure:"feature" validate:"required"`
	Position   Position       `json:"position,omitempty" yaml:"position,omitempty" mapstructure:"position" validate:"omitempty,oneof=append prepend"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty" mapstructure:"attributes"`
	// Description names the node description of the created view. It is required to
	// reveal views of unsynchronized descriptions.
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// PairedOccurrence describes a relationship materialized by two linked occurrence
// elements (send and receive) stored in a container feature.
type PairedOccurrence struct {
	// Type is the occurrence type, e.g. MessageOccurrenceSpecification.
	Type string `json:"type" yaml:"type" mapstructure:"type" validate:"required"`
	// Feature is the containment feature of the edge container receiving both occurrences.
	Feature string `json:"feature" yaml:"feature" mapstructure:"feature" validate:"required"`
	// Covered is the occurrence reference pointing at the end element.
	Covered string `json:"covered" yaml:"covered" mapstructure:"covered" validate:"required"`
	// SourceRole and TargetRole are the edge element references to the two occurrences.
	SourceRole string `json:"source_role" yaml:"source_role" mapstructure:"source_role" validate:"required"`
	TargetRole string `json:"target_role" yaml:"target_role" mapstructure:"target_role" validate:"required"`
	// BackReference, when set, is the occurrence reference pointing back at the edge element.
	BackReference string `json:"back_reference,omitempty" yaml:"back_reference,omitempty" mapstructure:"back_reference"`
}

// EdgeTool creates a connection from a source node view to a target node view.
// With a DomainType the tool creates an edge element in the nearest common container of
// the ends holding Feature; without one it adds the target to LinkFeature of the source.
type EdgeTool struct {
	Name       string         `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	DomainType string         `json:"domain_type,omitempty" yaml:"domain_type,omitempty" mapstructure:"domain_type"`
	Feature    string         `json:"feature,omitempty" yaml:"feature,omitempty" mapstructure:"feature" validate:"required_with=DomainType"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty" mapstructure:"attributes"`
	// SourceFeature and TargetFeature are edge element references set to the end elements.
	SourceFeature string `json:"source_feature,omitempty" yaml:"source_feature,omitempty" mapstructure:"source_feature"`
	TargetFeature string `json:"target_feature,omitempty" yaml:"target_feature,omitempty" mapstructure:"target_feature"`
	LinkFeature   string `json:"link_feature,omitempty" yaml:"link_feature,omitempty" mapstructure:"link_feature" validate:"required_without=DomainType"`

	Paired *PairedOccurrence `json:"paired,omitempty" yaml:"paired,omitempty" mapstructure:"paired"`
	// Targets restricts the node descriptions accepted as target.
	Targets []string `json:"targets" yaml:"targets" mapstructure:"targets" validate:"min=1"`
	// Edge names the edge description expected to show the result.
	Edge string `json:"edge" yaml:"edge" mapstructure:"edge" validate:"required"`
}

// DeleteTool removes a view. Semantic deletion destroys the element and its subtree;
// graphical deletion only hides an unsynchronized view.
type DeleteTool struct {
	Name      string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Graphical bool   `json:"graphical,omitempty" yaml:"graphical,omitempty" mapstructure:"graphical"`
	// Cascade lists reference paths whose targets are destroyed with the element. Segments
	// prefixed with "~" follow a reference backwards.
	Cascade []string `json:"cascade,omitempty" yaml:"cascade,omitempty" mapstructure:"cascade"`
}

// DirectEditTool changes a label attribute in place.
type DirectEditTool struct {
	Name string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	// Attribute overrides the description label attribute.
	Attribute string `json:"attribute,omitempty" yaml:"attribute,omitempty" mapstructure:"attribute"`
	// Params is checked against the tool parameters. Defaults to schema.LabelParams.
	Params schema.Schema `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
}

// ParamSchema returns the parameter schema of the tool.
func (t *DirectEditTool) ParamSchema() schema.Schema {
	if len(t.Params) == 0 {
		return schema.LabelParams()
	}
	return t.Params
}

// ReconnectTool moves one end of an edge to another node view.
type ReconnectTool struct {
	Name string         `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	End  domain.EdgeEnd `json:"end" yaml:"end" mapstructure:"end" validate:"oneof=source target"`
	// Path is the reference path (from the edge element, or the link feature of the
	// source for visual edges) whose last segment receives the new end.
	Path string `json:"path" yaml:"path" mapstructure:"path" validate:"required"`
	// Targets restricts the node descriptions accepted as the new end.
	Targets []string `json:"targets" yaml:"targets" mapstructure:"targets" validate:"min=1"`
}
