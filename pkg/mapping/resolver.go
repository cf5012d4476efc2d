// Package mapping derives the stable mapping types that correlate rendered views
// with the node and edge descriptions producing them.
package mapping

import "strings"

// Suffixes appended to a domain type name, one per view role.
const (
	SuffixDomainEdge  = "_DomainEdge"
	SuffixShared      = "_SHARED"
	SuffixSubNode     = "_SubNode"
	SuffixCompartment = "_CompartmentNode"
	SuffixFakeChild   = "_FakeChildNode"
)

// Role is the position a description occupies in its diagram.
type Role int

const (
	// Root descriptions sit directly under the diagram.
	Root Role = iota
	// SubNode descriptions are private children of a single parent.
	SubNode
	// Shared descriptions live in the shared group and are reused by several parents.
	Shared
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case Root:
		return "root"
	case SubNode:
		return "sub-node"
	case Shared:
		return "shared"
	default:
		return "unknown"
	}
}

// Resolver computes mapping types for one diagram kind. It is a pure value:
// the same inputs always give the same name.
type Resolver struct {
	prefix    string
	edgeTypes map[string]bool
	exempt    map[string]bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEdgeTypes declares domain types represented as edges (relationships).
func WithEdgeTypes(types ...string) Option {
	return func(r *Resolver) {
		for _, t := range types {
			r.edgeTypes[t] = true
		}
	}
}

// WithSharedExemptions declares types that are reused but never visually shared;
// their sub-node mapping falls back to the plain one.
func WithSharedExemptions(types ...string) Option {
	return func(r *Resolver) {
		for _, t := range types {
			r.exempt[t] = true
		}
	}
}

// NewResolver creates a resolver whose names all start with prefix (e.g. "SD_").
func NewResolver(prefix string, opts ...Option) *Resolver {
	r := &Resolver{
		prefix:    prefix,
		edgeTypes: make(map[string]bool),
		exempt:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prefix returns the diagram kind prefix.
func (r *Resolver) Prefix() string { return r.prefix }

// IsEdgeType reports whether t is rendered as an edge.
func (r *Resolver) IsEdgeType(t string) bool { return r.edgeTypes[t] }

// IsExempt reports whether t is exempt from the shared suffix.
func (r *Resolver) IsExempt(t string) bool { return r.exempt[t] }

// MappingType returns prefix+t, with the domain edge suffix for relationship types.
func (r *Resolver) MappingType(t string) string {
	if r.edgeTypes[t] {
		return r.prefix + t + SuffixDomainEdge
	}
	return r.prefix + t
}

// MappingTypeAsSubNode returns the shared name of t, or the plain mapping for exempt types.
func (r *Resolver) MappingTypeAsSubNode(t string) string {
	if r.exempt[t] {
		return r.MappingType(t)
	}
	return r.prefix + t + SuffixShared
}

// For returns the mapping type of t in the given role.
func (r *Resolver) For(t string, role Role) string {
	switch role {
	case SubNode:
		return r.prefix + t + SuffixSubNode
	case Shared:
		return r.MappingTypeAsSubNode(t)
	default:
		return r.MappingType(t)
	}
}

// Specialized names a variant of t, e.g. Specialized("Comment", "Annotation").
func (r *Resolver) Specialized(t, specialization string) string {
	return r.prefix + t + "_" + specialization
}

// Compartment names the compartment of an owner type grouping one category of children.
func (r *Resolver) Compartment(owner, category string) string {
	return r.prefix + owner + "_" + category + SuffixCompartment
}

// FakeChild names the non-semantic child that fills an owner's body.
func (r *Resolver) FakeChild(owner string) string {
	return r.prefix + owner + SuffixFakeChild
}

// IsCompartment reports whether name was produced by Compartment.
func IsCompartment(name string) bool { return strings.HasSuffix(name, SuffixCompartment) }

// IsFakeChild reports whether name was produced by FakeChild.
func IsFakeChild(name string) bool { return strings.HasSuffix(name, SuffixFakeChild) }

// IsShared reports whether name carries the shared suffix.
func IsShared(name string) bool { return strings.HasSuffix(name, SuffixShared) }
