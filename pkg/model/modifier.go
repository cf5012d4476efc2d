package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
)

// CleanupPolicy decides what a deletion does with cross-references pointing into the deleted subtree.
type CleanupPolicy int

const (
	// CleanupUnset removes the dangling values from the referencing features.
	CleanupUnset CleanupPolicy = iota
	// CleanupRefuse aborts the deletion with domain.ErrDanglingReference.
	CleanupRefuse
)

// DeleteReport lists what a deletion destroyed and which settings it unset.
type DeleteReport struct {
	Deleted []ID
	Unset   []Setting
}

// Modifier is the only writer of a Model. It adds, removes and moves values in ordered
// or unordered features and keeps cross-references consistent on deletion.
type Modifier struct {
	m      *Model
	policy CleanupPolicy
	newID  func() ID
}

// ModifierOption configures a Modifier.
type ModifierOption func(*Modifier)

// WithCleanupPolicy sets the dangling-reference policy of deletions.
func WithCleanupPolicy(p CleanupPolicy) ModifierOption {
	return func(mod *Modifier) {
		mod.policy = p
	}
}

// WithIDGenerator replaces the uuid generator used for created elements.
func WithIDGenerator(fn func() ID) ModifierOption {
	return func(mod *Modifier) {
		mod.newID = fn
	}
}

// NewModifier creates a modifier bound to m.
func NewModifier(m *Model, opts ...ModifierOption) *Modifier {
	mod := &Modifier{
		m:      m,
		policy: CleanupUnset,
		newID:  func() ID { return ID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(mod)
	}
	return mod
}

// Model returns the modified model.
func (mod *Modifier) Model() *Model { return mod.m }

// Transaction runs fn and restores the model to its prior state if fn fails.
// Either every mutation of fn is kept, or none is.
func (mod *Modifier) Transaction(fn func(*Modifier) error) error {
	snapshot := mod.m.Clone()
	if err := fn(mod); err != nil {
		mod.m.restore(snapshot)
		return err
	}
	return nil
}

func (mod *Modifier) feature(owner *Element, name string, kinds ...FeatureKind) (Feature, error) {
	f, ok := mod.m.mm.Feature(owner.typ, name)
	if !ok {
		return Feature{}, fmt.Errorf("%s has no feature %q: %w", owner.typ, name, domain.ErrInvalidFeature)
	}
	for _, k := range kinds {
		if f.Kind == k {
			return f, nil
		}
	}
	return Feature{}, fmt.Errorf("feature %s.%s is a %s: %w", owner.typ, name, f.Kind, domain.ErrInvalidFeature)
}

// Create instantiates a new element of typ inside the containment feature of parent.
// A negative or out-of-range index appends.
func (mod *Modifier) Create(parent ID, feature, typ string, index int, attrs map[string]any) (ID, error) {
	owner, err := mod.m.Lookup(parent)
	if err != nil {
		return "", err
	}
	f, err := mod.feature(owner, feature, Containment)
	if err != nil {
		return "", err
	}
	decl, ok := mod.m.mm.Type(typ)
	if !ok || decl.Abstract {
		return "", fmt.Errorf("cannot instantiate %q: %w", typ, domain.ErrInvalidFeature)
	}
	if !mod.m.mm.Conforms(typ, f.Type) {
		return "", fmt.Errorf("%s.%s does not accept %s: %w", owner.typ, feature, typ, domain.ErrInvalidFeature)
	}
	if !f.Many && len(owner.contents[feature]) > 0 {
		return "", fmt.Errorf("%s.%s is single-valued and already set: %w", owner.typ, feature, domain.ErrInvalidFeature)
	}

	id := mod.newID()
	if _, exists := mod.m.elements[id]; exists {
		return "", fmt.Errorf("element %q already exists", id)
	}
	e := newElement(id, typ, attrs)
	e.parent = parent
	e.feature = feature
	mod.m.elements[id] = e
	owner.contents[feature] = insert(owner.contents[feature], id, index, f.Ordered)
	return id, nil
}

// SetAttr sets (or clears, with a nil value) an attribute.
func (mod *Modifier) SetAttr(owner ID, name string, value any) error {
	e, err := mod.m.Lookup(owner)
	if err != nil {
		return err
	}
	if _, err := mod.feature(e, name, Attribute); err != nil {
		return err
	}
	if value == nil {
		delete(e.attrs, name)
		return nil
	}
	e.attrs[name] = value
	return nil
}

// Add inserts value into a feature of owner. On a reference feature this adds a
// cross-reference (replacing the value of a single-valued feature); on a containment
// feature it moves value under owner. Unordered features ignore index.
func (mod *Modifier) Add(owner ID, feature string, value ID, index int) error {
	e, err := mod.m.Lookup(owner)
	if err != nil {
		return err
	}
	f, err := mod.feature(e, feature, Reference, Containment)
	if err != nil {
		return err
	}
	if f.Kind == Containment {
		return mod.Move(value, owner, feature, index)
	}
	target, err := mod.m.Lookup(value)
	if err != nil {
		return err
	}
	if !mod.m.mm.Conforms(target.typ, f.Type) {
		return fmt.Errorf("%s.%s does not accept %s: %w", e.typ, feature, target.typ, domain.ErrInvalidFeature)
	}
	current := e.refs[feature]
	for _, v := range current {
		if v == value {
			return nil
		}
	}
	if !f.Many {
		for _, old := range current {
			mod.m.unindex(owner, feature, old)
		}
		current = nil
	}
	e.refs[feature] = insert(current, value, index, f.Ordered)
	mod.m.index(owner, feature, value)
	return nil
}

// Set replaces every value of a reference feature.
func (mod *Modifier) Set(owner ID, feature string, values ...ID) error {
	e, err := mod.m.Lookup(owner)
	if err != nil {
		return err
	}
	if _, err := mod.feature(e, feature, Reference); err != nil {
		return err
	}
	for _, old := range e.refs[feature] {
		mod.m.unindex(owner, feature, old)
	}
	delete(e.refs, feature)
	for _, v := range values {
		if err := mod.Add(owner, feature, v, -1); err != nil {
			return err
		}
	}
	return nil
}

// Remove takes value out of a reference feature of owner. Removing an absent value is a no-op.
// Contained elements leave the model only through Delete.
func (mod *Modifier) Remove(owner ID, feature string, value ID) error {
	e, err := mod.m.Lookup(owner)
	if err != nil {
		return err
	}
	if _, err := mod.feature(e, feature, Reference); err != nil {
		return err
	}
	e.refs[feature] = without(e.refs[feature], value)
	if len(e.refs[feature]) == 0 {
		delete(e.refs, feature)
	}
	mod.m.unindex(owner, feature, value)
	return nil
}

// Move relocates value into the containment feature of newParent at index.
// Moving within the same feature reorders.
func (mod *Modifier) Move(value, newParent ID, feature string, index int) error {
	e, err := mod.m.Lookup(value)
	if err != nil {
		return err
	}
	if e.parent == "" {
		return fmt.Errorf("cannot move the model root: %w", domain.ErrPermissionDenied)
	}
	owner, err := mod.m.Lookup(newParent)
	if err != nil {
		return err
	}
	f, err := mod.feature(owner, feature, Containment)
	if err != nil {
		return err
	}
	if !mod.m.mm.Conforms(e.typ, f.Type) {
		return fmt.Errorf("%s.%s does not accept %s: %w", owner.typ, feature, e.typ, domain.ErrInvalidFeature)
	}
	if mod.m.Contains(value, newParent) {
		return fmt.Errorf("cannot move %q into its own subtree: %w", value, domain.ErrInvalidFeature)
	}
	sameSlot := e.parent == newParent && e.feature == feature
	if !f.Many && !sameSlot && len(owner.contents[feature]) > 0 {
		return fmt.Errorf("%s.%s is single-valued and already set: %w", owner.typ, feature, domain.ErrInvalidFeature)
	}

	old := mod.m.elements[e.parent]
	old.contents[e.feature] = without(old.contents[e.feature], value)
	if len(old.contents[e.feature]) == 0 {
		delete(old.contents, e.feature)
	}
	e.parent = newParent
	e.feature = feature
	owner.contents[feature] = insert(owner.contents[feature], value, index, f.Ordered)
	return nil
}

// Delete destroys id and its whole containment subtree. Cross-references held by elements
// outside the subtree are unset or, under CleanupRefuse, abort the deletion.
func (mod *Modifier) Delete(id ID) (DeleteReport, error) {
	return mod.DeleteAll(id)
}

// DeleteAll destroys several elements and their subtrees as one deletion. References
// between the deleted subtrees are not dangling; only elements that survive have
// references unset (or, under CleanupRefuse, abort the deletion). Ids already inside
// an earlier subtree are skipped.
func (mod *Modifier) DeleteAll(ids ...ID) (DeleteReport, error) {
	var (
		report DeleteReport
		roots  []ID
	)
	doomed := make(map[ID]bool)
	for _, id := range ids {
		e, err := mod.m.Lookup(id)
		if err != nil {
			return DeleteReport{}, err
		}
		if e.parent == "" {
			return DeleteReport{}, fmt.Errorf("cannot delete the model root: %w", domain.ErrPermissionDenied)
		}
		if doomed[id] {
			continue
		}
		roots = append(roots, id)
		mod.m.Walk(id, func(el *Element) bool {
			if !doomed[el.id] {
				doomed[el.id] = true
				report.Deleted = append(report.Deleted, el.id)
			}
			return true
		})
	}

	for _, d := range report.Deleted {
		for _, s := range mod.m.Referrers(d) {
			if !doomed[s.Owner] {
				report.Unset = append(report.Unset, s)
			}
		}
	}
	if len(report.Unset) > 0 && mod.policy == CleanupRefuse {
		s := report.Unset[0]
		return DeleteReport{}, fmt.Errorf("%s.%s still references the deleted subtree of %q: %w",
			s.Owner, s.Feature, roots[0], domain.ErrDanglingReference)
	}

	for _, d := range report.Deleted {
		for _, s := range mod.m.Referrers(d) {
			if doomed[s.Owner] {
				continue
			}
			owner := mod.m.elements[s.Owner]
			owner.refs[s.Feature] = without(owner.refs[s.Feature], d)
			if len(owner.refs[s.Feature]) == 0 {
				delete(owner.refs, s.Feature)
			}
		}
		delete(mod.m.inverse, d)
	}
	for _, d := range report.Deleted {
		el := mod.m.elements[d]
		for feature, targets := range el.refs {
			for _, t := range targets {
				mod.m.unindex(d, feature, t)
			}
		}
	}

	for _, id := range roots {
		e := mod.m.elements[id]
		parent := mod.m.elements[e.parent]
		parent.contents[e.feature] = without(parent.contents[e.feature], id)
		if len(parent.contents[e.feature]) == 0 {
			delete(parent.contents, e.feature)
		}
	}
	for _, d := range report.Deleted {
		delete(mod.m.elements, d)
	}
	return report, nil
}

func insert(values []ID, v ID, index int, ordered bool) []ID {
	if !ordered || index < 0 || index >= len(values) {
		return append(values, v)
	}
	values = append(values, "")
	copy(values[index+1:], values[index:])
	values[index] = v
	return values
}

func without(values []ID, v ID) []ID {
	out := values[:0:0]
	for _, x := range values {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
