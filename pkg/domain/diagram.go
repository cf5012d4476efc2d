package domain

import "sort"

// Node is a rendered view of a domain element (or of a non-semantic compartment).
type Node struct {
	ID string `json:"id"`
	// MappingType correlates the view with the node description that produced it.
	MappingType string `json:"mapping_type"`
	// SemanticID is the id of the represented element. Compartments repeat their container's target.
	SemanticID string `json:"semantic_id,omitempty"`
	// ParentID is the containing view id, or the diagram id for top-level nodes.
	ParentID    string  `json:"parent_id"`
	Children    []*Node `json:"children,omitempty"`
	BorderNodes []*Node `json:"border_nodes,omitempty"`

	State ViewState `json:"state"`
	// Manual is true for views of unsynchronized descriptions: they persist until explicitly deleted.
	Manual bool `json:"manual,omitempty"`
	// Layout is opaque to the engine and carried across renders by view id.
	Layout map[string]any `json:"layout,omitempty"`
}

// Edge is a rendered connection between two node views.
type Edge struct {
	ID          string `json:"id"`
	MappingType string `json:"mapping_type"`
	// SemanticID is empty for edges that are not domain based (annotation links).
	SemanticID string    `json:"semantic_id,omitempty"`
	SourceID   string    `json:"source_id"`
	TargetID   string    `json:"target_id"`
	State      ViewState `json:"state"`
}

// Diagram is the materialized view tree of one description over one semantic root.
type Diagram struct {
	ID            string  `json:"id"`
	DescriptionID string  `json:"description_id"`
	TargetID      string  `json:"target_id"`
	Nodes         []*Node `json:"nodes"`
	Edges         []*Edge `json:"edges"`

	nodes map[string]*Node
	edges map[string]*Edge
}

// Reindex rebuilds the view id lookups. It must be called after the view tree changes.
func (d *Diagram) Reindex() {
	d.nodes = make(map[string]*Node)
	d.edges = make(map[string]*Edge, len(d.Edges))
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			d.nodes[n.ID] = n
			walk(n.BorderNodes)
			walk(n.Children)
		}
	}
	walk(d.Nodes)
	for _, e := range d.Edges {
		d.edges[e.ID] = e
	}
}

// Node returns the node view with the given id.
func (d *Diagram) Node(id string) (*Node, bool) {
	if d.nodes == nil {
		d.Reindex()
	}
	n, ok := d.nodes[id]
	return n, ok
}

// Edge returns the edge view with the given id.
func (d *Diagram) Edge(id string) (*Edge, bool) {
	if d.edges == nil {
		d.Reindex()
	}
	e, ok := d.edges[id]
	return e, ok
}

// AllNodes returns every node view in depth-first order (border nodes before children).
func (d *Diagram) AllNodes() []*Node {
	var out []*Node
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			out = append(out, n)
			walk(n.BorderNodes)
			walk(n.Children)
		}
	}
	walk(d.Nodes)
	return out
}

// NodesFor returns the node views representing the given semantic element.
func (d *Diagram) NodesFor(semanticID string) []*Node {
	var out []*Node
	for _, n := range d.AllNodes() {
		if n.SemanticID == semanticID {
			out = append(out, n)
		}
	}
	return out
}

// EdgesFor returns the edge views representing the given semantic element.
func (d *Diagram) EdgesFor(semanticID string) []*Edge {
	var out []*Edge
	for _, e := range d.Edges {
		if e.SemanticID == semanticID {
			out = append(out, e)
		}
	}
	return out
}

// Descendants returns the ids of the views nested under the given node, border nodes included.
func (n *Node) Descendants() []string {
	var out []string
	for _, c := range append(append([]*Node{}, n.BorderNodes...), n.Children...) {
		out = append(out, c.ID)
		out = append(out, c.Descendants()...)
	}
	return out
}

// Triple is the identity of a view: what it shows, from which description, and where.
type Triple struct {
	MappingType string
	SemanticID  string
	ParentID    string
}

// Identity returns the sorted identity triples of every node view.
// Two renders of an unchanged model yield equal identities.
func (d *Diagram) Identity() []Triple {
	nodes := d.AllNodes()
	out := make([]Triple, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Triple{MappingType: n.MappingType, SemanticID: n.SemanticID, ParentID: n.ParentID})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ParentID != out[j].ParentID {
			return out[i].ParentID < out[j].ParentID
		}
		if out[i].MappingType != out[j].MappingType {
			return out[i].MappingType < out[j].MappingType
		}
		return out[i].SemanticID < out[j].SemanticID
	})
	return out
}
