package model

import (
	"fmt"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
)

// MetamodelChecker answers editability questions from the metamodel alone:
// derived and read-only features are not editable, the model root is not deletable.
type MetamodelChecker struct {
	// Locked lists element ids that can be neither edited nor deleted.
	Locked map[ID]bool
}

// CanEditFeature returns nil when feature of owner may be written.
func (c MetamodelChecker) CanEditFeature(m *Model, owner ID, feature string) error {
	e, err := m.Lookup(owner)
	if err != nil {
		return err
	}
	if c.Locked[owner] {
		return fmt.Errorf("%s is locked: %w", owner, domain.ErrPermissionDenied)
	}
	f, ok := m.Metamodel().Feature(e.Type(), feature)
	if !ok {
		return fmt.Errorf("%s has no feature %q: %w", e.Type(), feature, domain.ErrInvalidFeature)
	}
	if f.Derived || f.ReadOnly {
		return fmt.Errorf("%s.%s is not editable: %w", e.Type(), feature, domain.ErrPermissionDenied)
	}
	return nil
}

// CanDelete returns nil when the element may be deleted.
func (c MetamodelChecker) CanDelete(m *Model, id ID) error {
	e, err := m.Lookup(id)
	if err != nil {
		return err
	}
	if e.Parent() == "" {
		return fmt.Errorf("the model root cannot be deleted: %w", domain.ErrPermissionDenied)
	}
	if c.Locked[id] {
		return fmt.Errorf("%s is locked: %w", id, domain.ErrPermissionDenied)
	}
	if f, ok := m.Metamodel().Feature(m.TypeOf(e.Parent()), e.ContainingFeature()); ok && f.ReadOnly {
		return fmt.Errorf("%s.%s is read-only: %w", m.TypeOf(e.Parent()), f.Name, domain.ErrPermissionDenied)
	}
	return nil
}
