// Package uml declares the subset of the UML metamodel used by the built-in diagram kinds.
package uml

import (
	"sync"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
)

// Type names.
const (
	Element                        = "Element"
	NamedElement                   = "NamedElement"
	Comment                        = "Comment"
	PackageableElement             = "PackageableElement"
	Package                        = "Package"
	Model                          = "Model"
	Classifier                     = "Classifier"
	Class                          = "Class"
	Property                       = "Property"
	Port                           = "Port"
	Operation                      = "Operation"
	Dependency                     = "Dependency"
	Behavior                       = "Behavior"
	Interaction                    = "Interaction"
	Lifeline                       = "Lifeline"
	InteractionFragment            = "InteractionFragment"
	OccurrenceSpecification        = "OccurrenceSpecification"
	MessageOccurrenceSpecification = "MessageOccurrenceSpecification"
	Message                        = "Message"
)

// Feature names.
const (
	FeatureName             = "name"
	FeatureQualifiedName    = "qualifiedName"
	FeatureOwnedComment     = "ownedComment"
	FeatureBody             = "body"
	FeatureAnnotatedElement = "annotatedElement"
	FeaturePackagedElement  = "packagedElement"
	FeatureOwnedAttribute   = "ownedAttribute"
	FeatureOwnedOperation   = "ownedOperation"
	FeatureOwnedBehavior    = "ownedBehavior"
	FeatureType             = "type"
	FeatureClient           = "client"
	FeatureSupplier         = "supplier"
	FeatureLifeline         = "lifeline"
	FeatureFragment         = "fragment"
	FeatureMessage          = "message"
	FeatureRepresents       = "represents"
	FeatureCovered          = "covered"
	FeatureMessageSort      = "messageSort"
	FeatureSendEvent        = "sendEvent"
	FeatureReceiveEvent     = "receiveEvent"
	FeatureIsAbstract       = "isAbstract"
)

// Message sorts.
const (
	SynchCall  = "synchCall"
	AsynchCall = "asynchCall"
	Reply      = "reply"
)

var (
	once sync.Once
	mm   *model.Metamodel
)

// Metamodel returns the shared UML subset. It panics if the static declaration is broken.
func Metamodel() *model.Metamodel {
	once.Do(func() {
		var err error
		mm, err = model.NewMetamodel("uml", Element, types()...)
		if err != nil {
			panic(err)
		}
	})
	return mm
}

func many(name string, kind model.FeatureKind, typ string) model.Feature {
	return model.Feature{Name: name, Kind: kind, Type: typ, Many: true, Ordered: true}
}

func attr(name string) model.Feature {
	return model.Feature{Name: name, Kind: model.Attribute}
}

func types() []model.Type {
	return []model.Type{
		{Name: Element, Abstract: true, Features: []model.Feature{
			many(FeatureOwnedComment, model.Containment, Comment),
		}},
		{Name: NamedElement, Abstract: true, Super: []string{Element}, Features: []model.Feature{
			attr(FeatureName),
			{Name: FeatureQualifiedName, Kind: model.Attribute, Derived: true, ReadOnly: true},
		}},
		{Name: Comment, Super: []string{Element}, Features: []model.Feature{
			attr(FeatureBody),
			{Name: FeatureAnnotatedElement, Kind: model.Reference, Type: Element, Many: true},
		}},
		{Name: PackageableElement, Abstract: true, Super: []string{NamedElement}},
		{Name: Package, Super: []string{PackageableElement}, Features: []model.Feature{
			many(FeaturePackagedElement, model.Containment, PackageableElement),
		}},
		{Name: Model, Super: []string{Package}},
		{Name: Classifier, Abstract: true, Super: []string{PackageableElement}, Features: []model.Feature{
			attr(FeatureIsAbstract),
		}},
		{Name: Class, Super: []string{Classifier}, Features: []model.Feature{
			many(FeatureOwnedAttribute, model.Containment, Property),
			many(FeatureOwnedOperation, model.Containment, Operation),
			many(FeatureOwnedBehavior, model.Containment, Behavior),
		}},
		{Name: Property, Super: []string{NamedElement}, Features: []model.Feature{
			{Name: FeatureType, Kind: model.Reference, Type: Classifier},
		}},
		{Name: Port, Super: []string{Property}},
		{Name: Operation, Super: []string{NamedElement}},
		{Name: Dependency, Super: []string{PackageableElement}, Features: []model.Feature{
			{Name: FeatureClient, Kind: model.Reference, Type: NamedElement, Many: true},
			{Name: FeatureSupplier, Kind: model.Reference, Type: NamedElement, Many: true},
		}},
		{Name: Behavior, Abstract: true, Super: []string{Class}},
		{Name: Interaction, Super: []string{Behavior}, Features: []model.Feature{
			many(FeatureLifeline, model.Containment, Lifeline),
			many(FeatureFragment, model.Containment, InteractionFragment),
			many(FeatureMessage, model.Containment, Message),
		}},
		{Name: Lifeline, Super: []string{NamedElement}, Features: []model.Feature{
			{Name: FeatureRepresents, Kind: model.Reference, Type: Property},
		}},
		{Name: InteractionFragment, Abstract: true, Super: []string{NamedElement}, Features: []model.Feature{
			{Name: FeatureCovered, Kind: model.Reference, Type: Lifeline, Many: true},
		}},
		{Name: OccurrenceSpecification, Super: []string{InteractionFragment}},
		{Name: MessageOccurrenceSpecification, Super: []string{OccurrenceSpecification}, Features: []model.Feature{
			{Name: FeatureMessage, Kind: model.Reference, Type: Message},
		}},
		{Name: Message, Super: []string{NamedElement}, Features: []model.Feature{
			attr(FeatureMessageSort),
			{Name: FeatureSendEvent, Kind: model.Reference, Type: MessageOccurrenceSpecification},
			{Name: FeatureReceiveEvent, Kind: model.Reference, Type: MessageOccurrenceSpecification},
		}},
	}
}
