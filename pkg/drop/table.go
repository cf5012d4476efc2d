// Package drop implements per-diagram-kind drag and drop rules as dispatch tables
// keyed on the source and target domain types.
package drop

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
)

// Background is the target key of rules applying to drops on the diagram background.
const Background = "#background"

// RevealFunc lists satellite elements to show along with a dropped source.
type RevealFunc func(m *model.Model, source model.ID) []model.ID

// Rule is one entry of a table. A rule matches when the source conforms to Source and
// the target conforms to Target (or Target is Background for background drops).
type Rule struct {
	Source string
	Target string
	// Deny marks an explicit refusal; it still counts for exhaustiveness.
	Deny bool
	// Feature is the containment feature of the target receiving the source.
	// Empty keeps the current containment (graphical drop).
	Feature  string
	Position description.Position
	Reveal   RevealFunc
}

// Table is the drop policy of one diagram kind. It implements ports.DropChecker and
// ports.DropBehaviorProvider. The most specific rule wins: the smallest source distance,
// then the smallest target distance, then declaration order.
type Table struct {
	kind  string
	rules []Rule
}

var (
	_ ports.DropChecker          = (*Table)(nil)
	_ ports.DropBehaviorProvider = (*Table)(nil)
)

// NewTable creates a table for the named diagram kind.
func NewTable(kind string, rules ...Rule) *Table {
	return &Table{kind: kind, rules: rules}
}

// Allow adds a relocating rule.
func (t *Table) Allow(source, target, feature string) *Table {
	t.rules = append(t.rules, Rule{Source: source, Target: target, Feature: feature, Position: description.Append})
	return t
}

// AllowGraphical adds a rule that shows the source without changing its containment.
func (t *Table) AllowGraphical(source, target string) *Table {
	t.rules = append(t.rules, Rule{Source: source, Target: target})
	return t
}

// Deny adds an explicit refusal.
func (t *Table) Deny(source, target string) *Table {
	t.rules = append(t.rules, Rule{Source: source, Target: target, Deny: true})
	return t
}

// Add appends fully specified rules.
func (t *Table) Add(rules ...Rule) *Table {
	t.rules = append(t.rules, rules...)
	return t
}

// Kind returns the diagram kind of the table.
func (t *Table) Kind() string { return t.kind }

func (t *Table) lookup(m *model.Model, source model.ID, target ports.DropTarget) (Rule, bool) {
	mm := m.Metamodel()
	srcType := m.TypeOf(source)
	tgtType := m.TypeOf(target.Element)

	best, found := Rule{}, false
	bestSrc, bestTgt := 0, 0
	for _, r := range t.rules {
		ds := mm.Distance(srcType, r.Source)
		if ds < 0 {
			continue
		}
		dt := 0
		if target.Background {
			if r.Target != Background {
				continue
			}
		} else {
			if r.Target == Background {
				continue
			}
			if dt = mm.Distance(tgtType, r.Target); dt < 0 {
				continue
			}
		}
		if !found || ds < bestSrc || (ds == bestSrc && dt < bestTgt) {
			best, found, bestSrc, bestTgt = r, true, ds, dt
		}
	}
	return best, found
}

// CanDrop returns nil when source may be dropped on target.
func (t *Table) CanDrop(m *model.Model, source model.ID, target ports.DropTarget) error {
	if _, err := m.Lookup(source); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIllegalDrop, err)
	}
	if _, err := m.Lookup(target.Element); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIllegalDrop, err)
	}
	r, ok := t.lookup(m, source, target)
	switch {
	case !ok:
		return fmt.Errorf("%s: no rule for %s onto %s: %w", t.kind, m.TypeOf(source), targetName(m, target), domain.ErrIllegalDrop)
	case r.Deny:
		return fmt.Errorf("%s: %s onto %s is refused: %w", t.kind, m.TypeOf(source), targetName(m, target), domain.ErrIllegalDrop)
	case r.Feature != "" && m.Contains(source, target.Element):
		return fmt.Errorf("%s: %s cannot be moved into its own subtree: %w", t.kind, source, domain.ErrIllegalDrop)
	}
	if r.Feature != "" {
		f, ok := m.Metamodel().Feature(m.TypeOf(target.Element), r.Feature)
		if !ok || f.Kind != model.Containment || !m.Metamodel().Conforms(m.TypeOf(source), f.Type) {
			return fmt.Errorf("%s: %s.%s cannot hold %s: %w", t.kind, m.TypeOf(target.Element), r.Feature, m.TypeOf(source), domain.ErrIllegalDrop)
		}
	}
	return nil
}

// Behavior returns the relocation policy of a legal drop.
func (t *Table) Behavior(m *model.Model, source model.ID, target ports.DropTarget) (ports.DropBehavior, error) {
	if err := t.CanDrop(m, source, target); err != nil {
		return ports.DropBehavior{}, err
	}
	r, _ := t.lookup(m, source, target)
	b := ports.DropBehavior{Feature: r.Feature, Position: r.Position}
	if b.Position == "" {
		b.Position = description.Append
	}
	if r.Reveal != nil {
		b.Reveal = r.Reveal(m, source)
	}
	return b, nil
}

// CheckExhaustive reports the concrete types (among types, or every declared type when
// empty) that no rule covers as a drop source.
func (t *Table) CheckExhaustive(mm *model.Metamodel, types ...string) error {
	if len(types) == 0 {
		types = mm.Types()
	}
	var missing []string
	for _, typ := range types {
		decl, ok := mm.Type(typ)
		if !ok {
			missing = append(missing, typ+" (undeclared)")
			continue
		}
		if decl.Abstract {
			continue
		}
		covered := false
		for _, r := range t.rules {
			if mm.Conforms(typ, r.Source) {
				covered = true
				break
			}
		}
		if !covered {
			missing = append(missing, typ)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%s drop table does not cover %s", t.kind, strings.Join(missing, ", "))
	}
	return nil
}

func targetName(m *model.Model, target ports.DropTarget) string {
	if target.Background {
		return "the diagram background"
	}
	return m.TypeOf(target.Element)
}
