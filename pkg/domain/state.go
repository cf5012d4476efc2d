package domain

import "fmt"

// ViewState is the lifecycle position of a single view.
type ViewState string

const (
	StateUnrendered ViewState = "unrendered" // Not materialized yet (or recycled after removal)
	StateRendered   ViewState = "rendered"   // Created by the latest render
	StateUpdated    ViewState = "updated"    // Survived at least one re-render
	StateRemoved    ViewState = "removed"    // Dropped by the latest render
)

var transitions = map[ViewState][]ViewState{
	StateUnrendered: {StateRendered},
	StateRendered:   {StateUpdated, StateRemoved},
	StateUpdated:    {StateUpdated, StateRemoved},
	StateRemoved:    {StateUnrendered},
}

// Next checks that moving from s to to is a legal view transition.
func (s ViewState) Next(to ViewState) (ViewState, error) {
	from := s
	if from == "" {
		from = StateUnrendered
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("%w %s -> %s", ErrIllegalTransition, from, to)
}

// SyncPolicy states whether views of a description follow their candidates automatically.
type SyncPolicy string

const (
	// Synchronized views appear and disappear with their semantic candidates.
	Synchronized SyncPolicy = "synchronized"
	// Unsynchronized views are placed manually (tool or drop) and persist until deleted.
	Unsynchronized SyncPolicy = "unsynchronized"
)
