// Package structure declares the structure diagram kind: the classes of a package
// with their properties and ports, dependencies between classes and comments.
package structure

import (
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/drop"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/dsl"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/mapping"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/uml"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/validator"
)

// ID is the description id of the kind.
const ID = "structure"

// Resolver names the descriptions of the kind.
var Resolver = mapping.NewResolver("CSD_",
	mapping.WithEdgeTypes(uml.Dependency),
	mapping.WithSharedExemptions(uml.Comment),
)

// Description names.
var (
	ClassNode       = Resolver.MappingType(uml.Class)
	StructureNode   = Resolver.Compartment(uml.Class, "Structure")
	PropertyNode    = Resolver.For(uml.Property, mapping.SubNode)
	PortNode        = Resolver.For(uml.Port, mapping.Shared)
	CommentNode     = Resolver.For(uml.Comment, mapping.Shared)
	SharedGroup     = Resolver.Specialized("Shared", "Group")
	DependencyEdge  = Resolver.MappingType(uml.Dependency)
	AnnotationEdge  = Resolver.Specialized(uml.Comment, "AnnotatedElement")
	annotatedByLink = []string{ClassNode, PropertyNode, PortNode}
)

// Tool names.
const (
	ToolClass      = "Class"
	ToolProperty   = "Property"
	ToolPort       = "Port"
	ToolComment    = "Comment"
	ToolDependency = "Dependency"
	ToolLink       = "Link"
)

// New returns a fresh instance of the kind.
func New() *kinds.Kind {
	return &kinds.Kind{
		Name:        ID,
		Resolver:    Resolver,
		Metamodel:   uml.Metamodel(),
		Description: Description(),
		Exemptions: validator.Exemptions{
			NoDelete:     validator.NonSemantic,
			NoDirectEdit: validator.NonSemantic,
			SharedSuffix: func(name string) bool { return name == CommentNode },
		},
		Drops: Drops(),
	}
}

// Description builds the structure diagram description.
func Description() *description.Description {
	b := dsl.New(ID, uml.Package).Version("1").Label("Structure Diagram").
		CreateTool(ToolClass, uml.Class, uml.FeaturePackagedElement)

	shared := b.SharedGroup(SharedGroup, uml.Element)
	shared.Child(CommentNode, uml.Comment).
		Feature(uml.FeatureOwnedComment).
		LabelAttribute(uml.FeatureBody).
		Deletable("Delete Comment").
		Editable("Edit Comment").
		EdgeTool(&description.EdgeTool{
			Name:        ToolLink,
			LinkFeature: uml.FeatureAnnotatedElement,
			Targets:     annotatedByLink,
			Edge:        AnnotationEdge,
		})
	// Properties typed by a class show no ports: only the class owning them does.
	shared.Border(PortNode, uml.Port).
		Feature(uml.FeatureOwnedAttribute).
		Deletable("Delete Port").
		Editable("Edit Port")

	class := b.Node(ClassNode, uml.Class).
		Feature(uml.FeaturePackagedElement).
		Filter(`self.type == "Class"`).
		Deletable("Delete Class").
		Editable("Edit Class").
		CreateTool(ToolPort, uml.Port, uml.FeatureOwnedAttribute).
		EdgeTool(&description.EdgeTool{
			Name:          ToolDependency,
			DomainType:    uml.Dependency,
			Feature:       uml.FeaturePackagedElement,
			SourceFeature: uml.FeatureClient,
			TargetFeature: uml.FeatureSupplier,
			Targets:       []string{ClassNode},
			Edge:          DependencyEdge,
		}).
		ReuseBorder(PortNode)

	compartment := class.Compartment(StructureNode).
		CreateTool(ToolProperty, uml.Property, uml.FeatureOwnedAttribute).
		CreateTool(ToolComment, uml.Comment, uml.FeatureOwnedComment).
		Reuse(CommentNode)

	compartment.Child(PropertyNode, uml.Property).
		Feature(uml.FeatureOwnedAttribute).
		Filter(`self.type == "Property"`).
		Deletable("Delete Property").
		Editable("Edit Property").
		CreateTool(ToolComment, uml.Comment, uml.FeatureOwnedComment).
		Reuse(CommentNode).
		ReuseBorder(PortNode)

	b.DomainEdge(DependencyEdge, uml.Dependency).
		From(ClassNode).
		To(ClassNode).
		Paths(uml.FeatureClient, uml.FeatureSupplier).
		Deletable("Delete Dependency").
		Editable("Edit Dependency").
		Reconnect("Reconnect Client", domain.EndSource, uml.FeatureClient, ClassNode).
		Reconnect("Reconnect Supplier", domain.EndTarget, uml.FeatureSupplier, ClassNode)

	b.Link(AnnotationEdge).
		From(CommentNode).
		To(annotatedByLink...).
		Paths("", uml.FeatureAnnotatedElement).
		Deletable("Delete Link").
		Reconnect("Reconnect Link", domain.EndTarget, uml.FeatureAnnotatedElement, annotatedByLink...)

	return b.Build()
}

// Drops returns the drop table of the kind.
func Drops() *drop.Table {
	return drop.NewTable(ID).
		Allow(uml.Class, drop.Background, uml.FeaturePackagedElement).
		Allow(uml.Property, uml.Class, uml.FeatureOwnedAttribute).
		Allow(uml.Port, uml.Class, uml.FeatureOwnedAttribute).
		Allow(uml.Comment, uml.Element, uml.FeatureOwnedComment).
		Deny(uml.Element, uml.Element).
		Deny(uml.Element, drop.Background)
}
