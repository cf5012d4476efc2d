package domain

import "reflect"

// DiagramDiff lists the views touched by a render.
// It is designed to be serialized to JSON for partial updates on the client.
type DiagramDiff struct {
	DiagramID string `json:"diagram_id"`
	// Added views did not exist in the previous diagram.
	Added []string `json:"added,omitempty"`
	// Updated views kept their id but changed parent, children or endpoints.
	Updated []string `json:"updated,omitempty"`
	// Removed views existed in the previous diagram only.
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between two renders of the same diagram.
// If oldDiagram is nil, every view of newDiagram is reported as added (initial load).
func Diff(oldDiagram, newDiagram *Diagram) *DiagramDiff {
	if newDiagram == nil {
		return nil
	}
	diff := &DiagramDiff{DiagramID: newDiagram.ID}

	oldViews := views(oldDiagram)
	newViews := views(newDiagram)

	for _, id := range order(newDiagram) {
		prev, existed := oldViews[id]
		if !existed {
			diff.Added = append(diff.Added, id)
			continue
		}
		if !reflect.DeepEqual(prev, newViews[id]) {
			diff.Updated = append(diff.Updated, id)
		}
	}
	for _, id := range order(oldDiagram) {
		if _, ok := newViews[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *DiagramDiff) IsEmpty() bool {
	return d == nil || len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// viewShape is the structural part of a view compared between renders.
// Lifecycle state and layout are excluded.
type viewShape struct {
	mappingType string
	semanticID  string
	parentID    string
	children    []string
	sourceID    string
	targetID    string
}

func views(d *Diagram) map[string]viewShape {
	out := make(map[string]viewShape)
	if d == nil {
		return out
	}
	for _, n := range d.AllNodes() {
		shape := viewShape{mappingType: n.MappingType, semanticID: n.SemanticID, parentID: n.ParentID}
		for _, c := range n.BorderNodes {
			shape.children = append(shape.children, c.ID)
		}
		for _, c := range n.Children {
			shape.children = append(shape.children, c.ID)
		}
		out[n.ID] = shape
	}
	for _, e := range d.Edges {
		out[e.ID] = viewShape{mappingType: e.MappingType, semanticID: e.SemanticID, sourceID: e.SourceID, targetID: e.TargetID}
	}
	return out
}

func order(d *Diagram) []string {
	if d == nil {
		return nil
	}
	var ids []string
	for _, n := range d.AllNodes() {
		ids = append(ids, n.ID)
	}
	for _, e := range d.Edges {
		ids = append(ids, e.ID)
	}
	return ids
}
