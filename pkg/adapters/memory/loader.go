package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
)

// Loader implements ports.DescriptionLoader over descriptions built in code.
type Loader struct {
	descs map[string]*description.Description
}

// NewLoader indexes descriptions by id. A later description replaces an earlier one with the same id.
func NewLoader(descs ...*description.Description) *Loader {
	l := &Loader{descs: make(map[string]*description.Description, len(descs))}
	for _, d := range descs {
		l.descs[d.ID] = d
	}
	return l
}

// Load returns the description with the given id.
func (l *Loader) Load(_ context.Context, id string) (*description.Description, error) {
	d, ok := l.descs[id]
	if !ok {
		return nil, fmt.Errorf("description not found: %s", id)
	}
	return d, nil
}

// List returns the description ids in sorted order.
func (l *Loader) List(_ context.Context) ([]string, error) {
	keys := make([]string, 0, len(l.descs))
	for k := range l.descs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
