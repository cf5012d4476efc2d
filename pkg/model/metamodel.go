package model

import (
	"fmt"
	"strings"
)

// FeatureKind tells how a feature holds its values.
type FeatureKind int

const (
	// Attribute features hold plain values (strings, numbers, enums).
	Attribute FeatureKind = iota
	// Containment features own their element values (tree edges).
	Containment
	// Reference features point to elements owned elsewhere (cross-references).
	Reference
)

// String returns the name used in metamodel files.
func (k FeatureKind) String() string {
	switch k {
	case Attribute:
		return "attribute"
	case Containment:
		return "containment"
	case Reference:
		return "reference"
	default:
		return "unknown"
	}
}

// ParseFeatureKind converts a metamodel file keyword to a FeatureKind.
func ParseFeatureKind(s string) (FeatureKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "attribute":
		return Attribute, nil
	case "containment":
		return Containment, nil
	case "reference":
		return Reference, nil
	default:
		return Attribute, fmt.Errorf("unknown feature kind %q", s)
	}
}

// Feature describes one structural feature of a type.
type Feature struct {
	Name string
	Kind FeatureKind
	// Type is the element type accepted by containment and reference features.
	Type     string
	Many     bool
	Ordered  bool
	Derived  bool
	ReadOnly bool
}

// Type is a declared domain type.
type Type struct {
	Name     string
	Super    []string
	Abstract bool
	Features []Feature
}

// Metamodel is the closed set of declared domain types of one model.
type Metamodel struct {
	name  string
	root  string
	types map[string]*Type
	order []string
}

// NewMetamodel declares a metamodel. rootType is the common supertype of every element
// (e.g. "Element"); it must be one of the declared types.
func NewMetamodel(name, rootType string, types ...Type) (*Metamodel, error) {
	mm := &Metamodel{
		name:  name,
		root:  rootType,
		types: make(map[string]*Type, len(types)),
	}
	for i := range types {
		t := types[i]
		if t.Name == "" {
			return nil, fmt.Errorf("metamodel %s: type %d has no name", name, i)
		}
		if _, dup := mm.types[t.Name]; dup {
			return nil, fmt.Errorf("metamodel %s: duplicate type %q", name, t.Name)
		}
		mm.types[t.Name] = &t
		mm.order = append(mm.order, t.Name)
	}
	if _, ok := mm.types[rootType]; !ok {
		return nil, fmt.Errorf("metamodel %s: root type %q is not declared", name, rootType)
	}
	for _, t := range mm.types {
		for _, s := range t.Super {
			if _, ok := mm.types[s]; !ok {
				return nil, fmt.Errorf("metamodel %s: type %q extends unknown type %q", name, t.Name, s)
			}
		}
		for _, f := range t.Features {
			if f.Kind != Attribute {
				if _, ok := mm.types[f.Type]; !ok {
					return nil, fmt.Errorf("metamodel %s: feature %s.%s targets unknown type %q", name, t.Name, f.Name, f.Type)
				}
			}
		}
	}
	return mm, nil
}

// Name returns the metamodel name.
func (mm *Metamodel) Name() string { return mm.name }

// RootType returns the common supertype of all elements.
func (mm *Metamodel) RootType() string { return mm.root }

// Types returns the declared type names in declaration order.
func (mm *Metamodel) Types() []string {
	return append([]string(nil), mm.order...)
}

// Type returns a declared type.
func (mm *Metamodel) Type(name string) (*Type, bool) {
	t, ok := mm.types[name]
	return t, ok
}

// Conforms reports whether t is super or one of its (transitive) subtypes.
// An empty super matches everything.
func (mm *Metamodel) Conforms(t, super string) bool {
	if super == "" || t == super {
		return true
	}
	decl, ok := mm.types[t]
	if !ok {
		return false
	}
	for _, s := range decl.Super {
		if mm.Conforms(s, super) {
			return true
		}
	}
	return false
}

// Features returns every feature of t, inherited ones first.
func (mm *Metamodel) Features(t string) []Feature {
	decl, ok := mm.types[t]
	if !ok {
		return nil
	}
	var out []Feature
	seen := make(map[string]bool)
	for _, s := range decl.Super {
		for _, f := range mm.Features(s) {
			if !seen[f.Name] {
				seen[f.Name] = true
				out = append(out, f)
			}
		}
	}
	for _, f := range decl.Features {
		if !seen[f.Name] {
			seen[f.Name] = true
			out = append(out, f)
		}
	}
	return out
}

// Feature looks a feature up on t, following supertypes.
func (mm *Metamodel) Feature(t, name string) (Feature, bool) {
	for _, f := range mm.Features(t) {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// Distance returns how many generalization steps separate t from super, or -1.
// It ranks the most specific match in type-keyed dispatch tables.
func (mm *Metamodel) Distance(t, super string) int {
	if t == super {
		return 0
	}
	decl, ok := mm.types[t]
	if !ok {
		return -1
	}
	best := -1
	for _, s := range decl.Super {
		if d := mm.Distance(s, super); d >= 0 && (best < 0 || d+1 < best) {
			best = d + 1
		}
	}
	return best
}
