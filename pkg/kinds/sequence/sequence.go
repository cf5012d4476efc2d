// Package sequence declares the sequence diagram kind: lifelines of an interaction
// exchanging messages, each message stored as a pair of occurrence specifications.
package sequence

import (
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/drop"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/dsl"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/mapping"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/uml"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/validator"
)

// ID is the description id of the kind.
const ID = "sequence"

// Resolver names the descriptions of the kind.
var Resolver = mapping.NewResolver("SD_",
	mapping.WithEdgeTypes(uml.Message),
	mapping.WithSharedExemptions(uml.Comment),
)

// Description names.
var (
	InteractionNode = Resolver.MappingType(uml.Interaction)
	LifelineNode    = Resolver.For(uml.Lifeline, mapping.SubNode)
	CommentNode     = Resolver.For(uml.Comment, mapping.Shared)
	SharedGroup     = Resolver.Specialized("Shared", "Group")
	MessageEdge     = Resolver.MappingType(uml.Message)
	AnnotationEdge  = Resolver.Specialized(uml.Comment, "AnnotatedElement")
)

// Tool names.
const (
	ToolLifeline     = "Lifeline"
	ToolComment      = "Comment"
	ToolMessage      = "Message"
	ToolSynchMessage = "Synchronous Message"
	ToolLink         = "Link"
)

// New returns a fresh instance of the kind.
func New() *kinds.Kind {
	return &kinds.Kind{
		Name:        ID,
		Resolver:    Resolver,
		Metamodel:   uml.Metamodel(),
		Description: Description(),
		Exemptions: validator.Exemptions{
			NoDelete:     validator.Named(InteractionNode),
			SharedSuffix: func(name string) bool { return name == CommentNode },
		},
		Drops: Drops(),
	}
}

// lifelineCascade reaches the occurrences covering a lifeline, their messages and the
// opposite occurrences of those messages.
var lifelineCascade = []string{
	model.Inverse(uml.FeatureCovered),
	model.Inverse(uml.FeatureCovered) + "." + uml.FeatureMessage,
	model.Inverse(uml.FeatureCovered) + "." + uml.FeatureMessage + "." + uml.FeatureSendEvent,
	model.Inverse(uml.FeatureCovered) + "." + uml.FeatureMessage + "." + uml.FeatureReceiveEvent,
}

func messageTool(name, sort string) *description.EdgeTool {
	return &description.EdgeTool{
		Name:       name,
		DomainType: uml.Message,
		Feature:    uml.FeatureMessage,
		Attributes: map[string]any{uml.FeatureMessageSort: sort},
		Paired: &description.PairedOccurrence{
			Type:          uml.MessageOccurrenceSpecification,
			Feature:       uml.FeatureFragment,
			Covered:       uml.FeatureCovered,
			SourceRole:    uml.FeatureSendEvent,
			TargetRole:    uml.FeatureReceiveEvent,
			BackReference: uml.FeatureMessage,
		},
		Targets: []string{LifelineNode},
		Edge:    MessageEdge,
	}
}

// Description builds the sequence diagram description.
func Description() *description.Description {
	b := dsl.New(ID, uml.Interaction).Version("1").Label("Sequence Diagram")

	b.SharedGroup(SharedGroup, uml.Element).
		Child(CommentNode, uml.Comment).
		Feature(uml.FeatureOwnedComment).
		LabelAttribute(uml.FeatureBody).
		Deletable("Delete Comment").
		Editable("Edit Comment").
		EdgeTool(&description.EdgeTool{
			Name:        ToolLink,
			LinkFeature: uml.FeatureAnnotatedElement,
			Targets:     []string{InteractionNode, LifelineNode},
			Edge:        AnnotationEdge,
		})

	interaction := b.Node(InteractionNode, uml.Interaction).
		Self().
		Editable("Edit Interaction").
		CreateTool(ToolLifeline, uml.Lifeline, uml.FeatureLifeline).
		CreateTool(ToolComment, uml.Comment, uml.FeatureOwnedComment).
		Reuse(CommentNode)

	interaction.Child(LifelineNode, uml.Lifeline).
		Feature(uml.FeatureLifeline).
		Deletable("Delete Lifeline", lifelineCascade...).
		Editable("Edit Lifeline").
		CreateTool(ToolComment, uml.Comment, uml.FeatureOwnedComment).
		EdgeTool(messageTool(ToolMessage, uml.AsynchCall)).
		EdgeTool(messageTool(ToolSynchMessage, uml.SynchCall)).
		Reuse(CommentNode)

	b.DomainEdge(MessageEdge, uml.Message).
		From(LifelineNode).
		To(LifelineNode).
		Paths(uml.FeatureSendEvent+"."+uml.FeatureCovered, uml.FeatureReceiveEvent+"."+uml.FeatureCovered).
		Deletable("Delete Message", uml.FeatureSendEvent, uml.FeatureReceiveEvent).
		Editable("Edit Message").
		Reconnect("Reconnect Sender", domain.EndSource, uml.FeatureSendEvent+"."+uml.FeatureCovered, LifelineNode).
		Reconnect("Reconnect Receiver", domain.EndTarget, uml.FeatureReceiveEvent+"."+uml.FeatureCovered, LifelineNode)

	b.Link(AnnotationEdge).
		From(CommentNode).
		To(InteractionNode, LifelineNode).
		Paths("", uml.FeatureAnnotatedElement).
		Deletable("Delete Link").
		Reconnect("Reconnect Link", domain.EndTarget, uml.FeatureAnnotatedElement, InteractionNode, LifelineNode)

	return b.Build()
}

// Drops returns the drop table of the kind. Lifelines move between interactions and
// comments move to their new owner; everything else is refused.
func Drops() *drop.Table {
	return drop.NewTable(ID).
		Allow(uml.Lifeline, uml.Interaction, uml.FeatureLifeline).
		Allow(uml.Comment, uml.Element, uml.FeatureOwnedComment).
		Deny(uml.Element, uml.Element).
		Deny(uml.Element, drop.Background)
}
