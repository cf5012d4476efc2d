package description

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
)

// Registry is the compiled, read-only form of one Description. It resolves reused
// names to their shared definitions, indexes descriptions and tools by name and holds
// the compiled CEL filters. A Registry is built once and shared by every session.
type Registry struct {
	desc    *Description
	nodes   map[string]*NodeDescription
	parents map[string]*NodeDescription
	edges   map[string]*EdgeDescription
	shared  map[string]*NodeDescription

	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

// Compile indexes d and compiles its filters. Unknown reused names and filters that do
// not compile are errors; they reveal a description that skipped validation.
// When mm is not nil, every domain type must be declared by it.
func Compile(d *Description, mm *model.Metamodel) (*Registry, error) {
	env, err := cel.NewEnv(
		cel.Variable("self", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("container", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}
	r := &Registry{
		desc:     d,
		nodes:    make(map[string]*NodeDescription),
		parents:  make(map[string]*NodeDescription),
		edges:    make(map[string]*EdgeDescription, len(d.Edges)),
		shared:   make(map[string]*NodeDescription),
		env:      env,
		programs: make(map[string]cel.Program),
	}

	var errs []error
	checkType := func(owner, typ string) {
		if mm != nil && typ != "" {
			if _, ok := mm.Type(typ); !ok {
				errs = append(errs, fmt.Errorf("%s: unknown domain type %q", owner, typ))
			}
		}
	}
	checkType("diagram "+d.ID, d.DomainType)

	d.WalkNodes(func(n, parent *NodeDescription) {
		if _, dup := r.nodes[n.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate node description %q", n.Name))
			return
		}
		r.nodes[n.Name] = n
		if parent != nil {
			r.parents[n.Name] = parent
			if parent.EffectiveKind() == KindSharedGroup {
				r.shared[n.Name] = n
			}
		}
		checkType("node "+n.Name, n.DomainType)
		if n.Candidates.Filter != "" {
			if _, err := r.program(n.Candidates.Filter); err != nil {
				errs = append(errs, fmt.Errorf("node %s: %w", n.Name, err))
			}
		}
	})
	d.WalkNodes(func(n, _ *NodeDescription) {
		for _, name := range append(append([]string{}, n.ReusedChildren...), n.ReusedBorderNodes...) {
			if _, ok := r.shared[name]; !ok {
				errs = append(errs, fmt.Errorf("node %s reuses %q which is not in the shared group", n.Name, name))
			}
		}
	})
	for _, e := range d.Edges {
		if _, dup := r.edges[e.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate edge description %q", e.Name))
			continue
		}
		r.edges[e.Name] = e
		checkType("edge "+e.Name, e.DomainType)
		for _, name := range append(append([]string{}, e.SourceDescriptions...), e.TargetDescriptions...) {
			if _, ok := r.nodes[name]; !ok {
				errs = append(errs, fmt.Errorf("edge %s connects unknown node description %q", e.Name, name))
			}
		}
		if e.Filter != "" {
			if _, err := r.program(e.Filter); err != nil {
				errs = append(errs, fmt.Errorf("edge %s: %w", e.Name, err))
			}
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("compile %s: %w: %w", d.ID, domain.ErrInvalidDescription, errors.Join(errs...))
	}
	return r, nil
}

// Description returns the compiled description.
func (r *Registry) Description() *Description { return r.desc }

// Roots returns the node descriptions rendered directly under the diagram.
func (r *Registry) Roots() []*NodeDescription {
	out := make([]*NodeDescription, 0, len(r.desc.Nodes))
	for _, n := range r.desc.Nodes {
		if n.EffectiveKind() != KindSharedGroup {
			out = append(out, n)
		}
	}
	return out
}

// Node returns a node description by name, shared definitions included.
func (r *Registry) Node(name string) (*NodeDescription, bool) {
	n, ok := r.nodes[name]
	return n, ok
}

// Parent returns the declaring parent of a node description (nil at the root).
func (r *Registry) Parent(name string) *NodeDescription {
	return r.parents[name]
}

// Edge returns an edge description by name.
func (r *Registry) Edge(name string) (*EdgeDescription, bool) {
	e, ok := r.edges[name]
	return e, ok
}

// Edges returns the edge descriptions in declaration order.
func (r *Registry) Edges() []*EdgeDescription { return r.desc.Edges }

// IsShared reports whether name is declared in the shared group.
func (r *Registry) IsShared(name string) bool {
	_, ok := r.shared[name]
	return ok
}

// Children returns the declared children of n followed by its reused shared children.
func (r *Registry) Children(n *NodeDescription) []*NodeDescription {
	return r.withReused(n.Children, n.ReusedChildren)
}

// BorderNodes returns the declared border nodes of n followed by its reused ones.
func (r *Registry) BorderNodes(n *NodeDescription) []*NodeDescription {
	return r.withReused(n.BorderNodes, n.ReusedBorderNodes)
}

func (r *Registry) withReused(declared []*NodeDescription, reused []string) []*NodeDescription {
	out := make([]*NodeDescription, 0, len(declared)+len(reused))
	out = append(out, declared...)
	for _, name := range reused {
		out = append(out, r.shared[name])
	}
	return out
}

// Containers returns the child descriptions available under a container: the diagram
// roots for an empty name, otherwise the children and border nodes of that description.
func (r *Registry) Containers(name string) []*NodeDescription {
	if name == "" {
		return r.Roots()
	}
	n, ok := r.nodes[name]
	if !ok {
		return nil
	}
	return append(r.Children(n), r.BorderNodes(n)...)
}

// Palette returns the palette of a node or edge description, or the diagram palette
// for an empty name.
func (r *Registry) Palette(name string) (Palette, bool) {
	if name == "" {
		return r.desc.Palette, true
	}
	if n, ok := r.nodes[name]; ok {
		return n.Palette, true
	}
	if e, ok := r.edges[name]; ok {
		return e.Palette, true
	}
	return Palette{}, false
}

// NodeTool finds a creation tool in the palette of the named description.
func (r *Registry) NodeTool(owner, tool string) (*NodeTool, error) {
	p, _ := r.Palette(owner)
	for _, t := range p.NodeTools {
		if t.Name == tool {
			return t, nil
		}
	}
	return nil, fmt.Errorf("node tool %q on %q: %w", tool, owner, domain.ErrToolNotFound)
}

// EdgeTool finds an edge creation tool in the palette of the source description.
func (r *Registry) EdgeTool(source, tool string) (*EdgeTool, error) {
	p, _ := r.Palette(source)
	for _, t := range p.EdgeTools {
		if t.Name == tool {
			return t, nil
		}
	}
	return nil, fmt.Errorf("edge tool %q on %q: %w", tool, source, domain.ErrToolNotFound)
}

// ReconnectTool finds the reconnect tool of an edge description for one end.
func (r *Registry) ReconnectTool(edge string, end domain.EdgeEnd) (*ReconnectTool, error) {
	p, _ := r.Palette(edge)
	for _, t := range p.Reconnect {
		if t.End == end {
			return t, nil
		}
	}
	return nil, fmt.Errorf("reconnect %s on %q: %w", end, edge, domain.ErrToolNotFound)
}

// DeleteTool returns the delete tool of a node or edge description.
func (r *Registry) DeleteTool(name string) (*DeleteTool, error) {
	p, _ := r.Palette(name)
	if p.Delete == nil {
		return nil, fmt.Errorf("delete tool on %q: %w", name, domain.ErrToolNotFound)
	}
	return p.Delete, nil
}

// DirectEditTool returns the direct-edit tool of a node or edge description.
func (r *Registry) DirectEditTool(name string) (*DirectEditTool, error) {
	p, _ := r.Palette(name)
	if p.DirectEdit == nil {
		return nil, fmt.Errorf("direct edit tool on %q: %w", name, domain.ErrToolNotFound)
	}
	return p.DirectEdit, nil
}

// Match evaluates a CEL filter. An empty expression matches everything.
func (r *Registry) Match(expr string, self, container map[string]any) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := r.program(expr)
	if err != nil {
		return false, err
	}
	if container == nil {
		container = map[string]any{}
	}
	out, _, err := prg.Eval(map[string]any{"self": self, "container": container})
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, want bool", expr, out.Value())
	}
	return b, nil
}

func (r *Registry) program(expr string) (cel.Program, error) {
	r.mu.RLock()
	prg, ok := r.programs[expr]
	r.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := r.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("filter %q: %w", expr, iss.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("filter %q has type %s, want bool", expr, out)
	}
	prg, err := r.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", expr, err)
	}
	r.mu.Lock()
	r.programs[expr] = prg
	r.mu.Unlock()
	return prg, nil
}

// Activation converts an element to the value bound to `self` or `container` in filters.
func Activation(m *model.Model, id model.ID) map[string]any {
	e, ok := m.Get(id)
	if !ok {
		return map[string]any{}
	}
	return map[string]any{
		"id":     string(e.ID()),
		"type":   e.Type(),
		"name":   e.Name(),
		"parent": string(e.Parent()),
		"attrs":  e.Attrs(),
	}
}
