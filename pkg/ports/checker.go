package ports

import (
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
)

// EditableChecker decides whether an edit may touch the model.
// Denials wrap domain.ErrPermissionDenied.
type EditableChecker interface {
	CanEditFeature(m *model.Model, owner model.ID, feature string) error
	CanDelete(m *model.Model, id model.ID) error
}

// DropTarget is where an element is dropped: a semantic element, or the diagram
// background whose element is the diagram target.
type DropTarget struct {
	Element    model.ID
	Background bool
}

// DropChecker decides whether source may be dropped on target.
// Refusals wrap domain.ErrIllegalDrop.
type DropChecker interface {
	CanDrop(m *model.Model, source model.ID, target DropTarget) error
}

// DropBehavior is what a legal drop does to the model.
type DropBehavior struct {
	// Feature is the containment feature of the target receiving source.
	// Empty leaves containment untouched (graphical drop).
	Feature  string
	Position description.Position
	// Reveal lists satellite elements whose views must be shown with the source.
	Reveal []model.ID
}

// DropBehaviorProvider decides how a legal drop relocates its source.
type DropBehaviorProvider interface {
	Behavior(m *model.Model, source model.ID, target DropTarget) (DropBehavior, error)
}
