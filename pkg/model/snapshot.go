package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type elementJSON struct {
	ID       ID              `json:"id"`
	Type     string          `json:"type"`
	Parent   ID              `json:"parent,omitempty"`
	Feature  string          `json:"feature,omitempty"`
	Attrs    map[string]any  `json:"attrs,omitempty"`
	Contents map[string][]ID `json:"contents,omitempty"`
	Refs     map[string][]ID `json:"refs,omitempty"`
}

type modelJSON struct {
	Metamodel string        `json:"metamodel"`
	Root      ID            `json:"root"`
	Elements  []elementJSON `json:"elements"`
}

// MarshalJSON writes the elements in containment order, root first.
// The inverse index is derived data and is not serialized.
func (m *Model) MarshalJSON() ([]byte, error) {
	out := modelJSON{Metamodel: m.mm.Name(), Root: m.root}
	m.Walk(m.root, func(e *Element) bool {
		out.Elements = append(out.Elements, elementJSON{
			ID:       e.id,
			Type:     e.typ,
			Parent:   e.parent,
			Feature:  e.feature,
			Attrs:    e.attrs,
			Contents: e.contents,
			Refs:     e.refs,
		})
		return true
	})
	return json.Marshal(out)
}

// Restore decodes a snapshot written by MarshalJSON against mm.
func Restore(mm *Metamodel, data []byte) (*Model, error) {
	var raw modelJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode model snapshot: %w", err)
	}
	for i := range raw.Elements {
		for k, v := range raw.Elements[i].Attrs {
			raw.Elements[i].Attrs[k] = number(v)
		}
	}
	if raw.Metamodel != "" && raw.Metamodel != mm.Name() {
		return nil, fmt.Errorf("snapshot of metamodel %q cannot be restored against %q", raw.Metamodel, mm.Name())
	}
	if len(raw.Elements) == 0 || raw.Elements[0].ID != raw.Root {
		return nil, fmt.Errorf("snapshot has no root element")
	}
	m, err := New(mm, raw.Root, raw.Elements[0].Type, raw.Elements[0].Attrs)
	if err != nil {
		return nil, err
	}
	for i, ej := range raw.Elements {
		if _, ok := mm.Type(ej.Type); !ok {
			return nil, fmt.Errorf("element %q has undeclared type %q", ej.ID, ej.Type)
		}
		if i > 0 {
			if _, dup := m.elements[ej.ID]; dup {
				return nil, fmt.Errorf("duplicate element %q", ej.ID)
			}
			m.elements[ej.ID] = newElement(ej.ID, ej.Type, ej.Attrs)
		}
		e := m.elements[ej.ID]
		e.parent = ej.Parent
		e.feature = ej.Feature
		for f, ids := range ej.Contents {
			e.contents[f] = append([]ID(nil), ids...)
		}
		for f, ids := range ej.Refs {
			e.refs[f] = append([]ID(nil), ids...)
		}
	}
	for _, e := range m.elements {
		for f, targets := range e.refs {
			for _, t := range targets {
				if _, ok := m.elements[t]; !ok {
					return nil, fmt.Errorf("%s.%s references unknown element %q", e.id, f, t)
				}
				m.index(e.id, f, t)
			}
		}
	}
	return m, nil
}

// number turns decoded json.Number values back into int64 when integral, float64 otherwise.
func number(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i := range x {
			x[i] = number(x[i])
		}
	case map[string]any:
		for k := range x {
			x[k] = number(x[k])
		}
	}
	return v
}
