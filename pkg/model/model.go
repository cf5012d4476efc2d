package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
)

// ID is an opaque element identifier.
type ID string

// Element is a node of the domain model. Its parent is a back-reference resolved by id;
// it never owns the elements it references.
type Element struct {
	id      ID
	typ     string
	parent  ID
	feature string

	attrs    map[string]any
	contents map[string][]ID
	refs     map[string][]ID
}

// ID returns the element id.
func (e *Element) ID() ID { return e.id }

// Type returns the concrete type name.
func (e *Element) Type() string { return e.typ }

// Parent returns the id of the containing element, empty for the root.
func (e *Element) Parent() ID { return e.parent }

// ContainingFeature returns the containment feature of the parent holding this element.
func (e *Element) ContainingFeature() string { return e.feature }

// Attr returns an attribute value.
func (e *Element) Attr(name string) (any, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// Name returns the "name" attribute as a string, or "".
func (e *Element) Name() string {
	s, _ := e.attrs["name"].(string)
	return s
}

// Attrs returns a copy of the attribute values.
func (e *Element) Attrs() map[string]any {
	out := make(map[string]any, len(e.attrs))
	for k, v := range e.attrs {
		out[k] = v
	}
	return out
}

// Contents returns the children held by a containment feature, in order.
func (e *Element) Contents(feature string) []ID {
	return append([]ID(nil), e.contents[feature]...)
}

// References returns the targets of a reference feature, in order.
func (e *Element) References(feature string) []ID {
	return append([]ID(nil), e.refs[feature]...)
}

func (e *Element) clone() *Element {
	c := &Element{
		id:       e.id,
		typ:      e.typ,
		parent:   e.parent,
		feature:  e.feature,
		attrs:    make(map[string]any, len(e.attrs)),
		contents: make(map[string][]ID, len(e.contents)),
		refs:     make(map[string][]ID, len(e.refs)),
	}
	for k, v := range e.attrs {
		c.attrs[k] = v
	}
	for k, v := range e.contents {
		c.contents[k] = append([]ID(nil), v...)
	}
	for k, v := range e.refs {
		c.refs[k] = append([]ID(nil), v...)
	}
	return c
}

// Setting is one slot holding a cross-reference: the owner and its reference feature.
type Setting struct {
	Owner   ID
	Feature string
}

// Model is an arena of elements addressed by id, rooted at a single element.
// Cross-references are mirrored in an inverse index kept apart from the containment tree.
// A Model is not safe for concurrent mutation; sessions serialize writers.
type Model struct {
	mm       *Metamodel
	root     ID
	elements map[ID]*Element
	inverse  map[ID]map[Setting]struct{}
}

// New creates a model holding a single root element.
func New(mm *Metamodel, rootID ID, rootType string, attrs map[string]any) (*Model, error) {
	decl, ok := mm.Type(rootType)
	if !ok {
		return nil, fmt.Errorf("root type %q: %w", rootType, domain.ErrInvalidFeature)
	}
	if decl.Abstract {
		return nil, fmt.Errorf("root type %q is abstract", rootType)
	}
	if rootID == "" {
		return nil, fmt.Errorf("root id is required")
	}
	m := &Model{
		mm:       mm,
		root:     rootID,
		elements: make(map[ID]*Element),
		inverse:  make(map[ID]map[Setting]struct{}),
	}
	m.elements[rootID] = newElement(rootID, rootType, attrs)
	return m, nil
}

func newElement(id ID, typ string, attrs map[string]any) *Element {
	e := &Element{
		id:       id,
		typ:      typ,
		attrs:    make(map[string]any, len(attrs)),
		contents: make(map[string][]ID),
		refs:     make(map[string][]ID),
	}
	for k, v := range attrs {
		e.attrs[k] = v
	}
	return e
}

// Metamodel returns the declared types of the model.
func (m *Model) Metamodel() *Metamodel { return m.mm }

// Root returns the root element.
func (m *Model) Root() *Element { return m.elements[m.root] }

// Len returns the number of elements.
func (m *Model) Len() int { return len(m.elements) }

// Get resolves an element by id.
func (m *Model) Get(id ID) (*Element, bool) {
	e, ok := m.elements[id]
	return e, ok
}

// Lookup resolves an element by id and wraps domain.ErrElementNotFound otherwise.
func (m *Model) Lookup(id ID) (*Element, error) {
	e, ok := m.elements[id]
	if !ok {
		return nil, fmt.Errorf("element %q: %w", id, domain.ErrElementNotFound)
	}
	return e, nil
}

// TypeOf returns the concrete type of an element, or "".
func (m *Model) TypeOf(id ID) string {
	if e, ok := m.elements[id]; ok {
		return e.typ
	}
	return ""
}

// IsKindOf reports whether the element conforms to the given type.
func (m *Model) IsKindOf(id ID, typ string) bool {
	e, ok := m.elements[id]
	return ok && m.mm.Conforms(e.typ, typ)
}

// Children returns every contained element of id, following containment features in
// metamodel declaration order and values in feature order.
func (m *Model) Children(id ID) []ID {
	e, ok := m.elements[id]
	if !ok {
		return nil
	}
	var out []ID
	for _, f := range m.mm.Features(e.typ) {
		if f.Kind == Containment {
			out = append(out, e.contents[f.Name]...)
		}
	}
	return out
}

// Walk visits id and its descendants depth-first, parents before children.
// Returning false from fn prunes the subtree.
func (m *Model) Walk(id ID, fn func(*Element) bool) {
	e, ok := m.elements[id]
	if !ok || !fn(e) {
		return
	}
	for _, c := range m.Children(id) {
		m.Walk(c, fn)
	}
}

// Ancestors returns the containment chain of id, nearest parent first.
func (m *Model) Ancestors(id ID) []ID {
	var out []ID
	for e, ok := m.elements[id]; ok && e.parent != ""; e, ok = m.elements[e.parent] {
		out = append(out, e.parent)
	}
	return out
}

// Contains reports whether ancestor is id or one of its containers.
func (m *Model) Contains(ancestor, id ID) bool {
	if ancestor == id {
		return true
	}
	for _, a := range m.Ancestors(id) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// CommonContainer returns the nearest element containing (or being) both a and b.
func (m *Model) CommonContainer(a, b ID) (ID, bool) {
	chain := append([]ID{a}, m.Ancestors(a)...)
	for _, c := range chain {
		if m.Contains(c, b) {
			return c, true
		}
	}
	return "", false
}

// Referrers returns the settings referencing target, sorted for determinism.
func (m *Model) Referrers(target ID) []Setting {
	out := make([]Setting, 0, len(m.inverse[target]))
	for s := range m.inverse[target] {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Owner != out[j].Owner {
			return out[i].Owner < out[j].Owner
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}

// InversePrefix marks a path segment followed backwards: "~covered" yields the elements
// whose covered reference holds the current element.
const InversePrefix = "~"

// Inverse returns the path segment following feature backwards.
func Inverse(feature string) string { return InversePrefix + feature }

// Resolve follows a dot-separated path of containment or reference features from owner.
// Segments starting with InversePrefix follow a reference feature backwards through the
// inverse index. Every segment flattens its values; duplicates are kept once, first
// occurrence wins.
func (m *Model) Resolve(owner ID, path string) []ID {
	current := []ID{owner}
	if path == "" {
		return current
	}
	for _, segment := range strings.Split(path, ".") {
		var next []ID
		seen := make(map[ID]bool)
		for _, id := range current {
			e, ok := m.elements[id]
			if !ok {
				continue
			}
			var values []ID
			if feature, ok := strings.CutPrefix(segment, InversePrefix); ok {
				for _, s := range m.Referrers(id) {
					if s.Feature == feature {
						values = append(values, s.Owner)
					}
				}
			} else if f, ok := m.mm.Feature(e.typ, segment); ok && f.Kind == Containment {
				values = e.contents[segment]
			} else {
				values = e.refs[segment]
			}
			for _, v := range values {
				if !seen[v] {
					seen[v] = true
					next = append(next, v)
				}
			}
		}
		current = next
	}
	return current
}

// Clone returns a deep copy of the model sharing the metamodel.
func (m *Model) Clone() *Model {
	c := &Model{
		mm:       m.mm,
		root:     m.root,
		elements: make(map[ID]*Element, len(m.elements)),
		inverse:  make(map[ID]map[Setting]struct{}, len(m.inverse)),
	}
	for id, e := range m.elements {
		c.elements[id] = e.clone()
	}
	for target, settings := range m.inverse {
		cs := make(map[Setting]struct{}, len(settings))
		for s := range settings {
			cs[s] = struct{}{}
		}
		c.inverse[target] = cs
	}
	return c
}

func (m *Model) restore(from *Model) {
	m.root = from.root
	m.elements = from.elements
	m.inverse = from.inverse
}

func (m *Model) index(owner ID, feature string, target ID) {
	settings, ok := m.inverse[target]
	if !ok {
		settings = make(map[Setting]struct{})
		m.inverse[target] = settings
	}
	settings[Setting{Owner: owner, Feature: feature}] = struct{}{}
}

func (m *Model) unindex(owner ID, feature string, target ID) {
	settings, ok := m.inverse[target]
	if !ok {
		return
	}
	delete(settings, Setting{Owner: owner, Feature: feature})
	if len(settings) == 0 {
		delete(m.inverse, target)
	}
}
