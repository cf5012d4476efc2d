// Package validator lints diagram descriptions before they reach the renderer.
//
// Every check runs independently and reports all of its findings. Diagram kinds
// adjust the rules by composing Exemptions rather than by specializing the validator.
package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/logging"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/mapping"
)

// MinReuse is the number of parents a shared description must be reused by.
const MinReuse = 2

// Severity ranks a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding codes.
const (
	CodeDuplicateName          = "duplicate_name"
	CodeMissingDeleteTool      = "missing_delete_tool"
	CodeMissingDirectEditTool  = "missing_direct_edit_tool"
	CodeSharedGroupCount       = "shared_group_count"
	CodeSharedGroupDomainType  = "shared_group_domain_type"
	CodeSharedGroupPalette     = "shared_group_palette"
	CodeSharedGroupCandidates  = "shared_group_candidates"
	CodeSharedSuffix           = "shared_suffix"
	CodeSharedReuse            = "shared_reuse"
	CodeReuseOutsideSharedGrp  = "reuse_outside_shared_group"
	CodeUnknownDescriptionName = "unknown_description_name"
	CodeMappingType            = "mapping_type"
)

// Status is one finding about a description element.
type Status struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	// Subject is the name of the node, edge or tool concerned.
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (s Status) String() string {
	return fmt.Sprintf("[%s] %s: %s", s.Severity, s.Subject, s.Message)
}

// Exemptions are caller-supplied predicates relaxing the tool and naming checks.
// A nil predicate exempts nothing.
type Exemptions struct {
	NoDelete         func(*description.NodeDescription) bool
	NoDirectEdit     func(*description.NodeDescription) bool
	EdgeNoDelete     func(*description.EdgeDescription) bool
	EdgeNoDirectEdit func(*description.EdgeDescription) bool
	// SharedSuffix exempts shared description names from the _SHARED suffix.
	SharedSuffix func(name string) bool
}

// NonSemantic exempts compartments and fake children, which have no element of their own.
func NonSemantic(n *description.NodeDescription) bool {
	k := n.EffectiveKind()
	return k == description.KindCompartment || k == description.KindFakeChild
}

// Any combines node predicates; the result holds when one of them does.
func Any(preds ...func(*description.NodeDescription) bool) func(*description.NodeDescription) bool {
	return func(n *description.NodeDescription) bool {
		for _, p := range preds {
			if p != nil && p(n) {
				return true
			}
		}
		return false
	}
}

// Named exempts the given description names.
func Named(names ...string) func(*description.NodeDescription) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(n *description.NodeDescription) bool { return set[n.Name] }
}

// Validator checks descriptions against one metamodel root type.
type Validator struct {
	rootType   string
	exemptions Exemptions
	resolver   *mapping.Resolver
	logger     *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithExemptions sets the exemption predicates of a diagram kind.
func WithExemptions(ex Exemptions) Option {
	return func(v *Validator) { v.exemptions = ex }
}

// WithResolver checks that every description name is the mapping type the resolver
// gives its domain type in the role the description occupies.
func WithResolver(r *mapping.Resolver) Option {
	return func(v *Validator) { v.resolver = r }
}

// WithLogger sets the logger used to trace validation runs.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

// New creates a validator. rootType is the common supertype of every model element,
// the only domain type a shared group may declare.
func New(rootType string, opts ...Option) *Validator {
	v := &Validator{
		rootType: rootType,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type report struct {
	out []Status
}

func (r *report) errorf(code, subject, format string, args ...any) {
	r.out = append(r.out, Status{Severity: SeverityError, Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// Validate runs every check on d and returns all findings, errors and warnings.
// An empty result means d is valid.
func (v *Validator) Validate(d *description.Description) []Status {
	r := &report{}
	v.checkNames(d, r)
	v.checkNodeTools(d, r)
	v.checkEdgeTools(d, r)
	v.checkSharedGroup(d, r)
	v.checkReuse(d, r)
	v.checkReferences(d, r)
	v.checkMappingTypes(d, r)
	v.logger.Debug("description validated", "description", d.ID, "findings", len(r.out))
	return r.out
}

func (v *Validator) checkNames(d *description.Description, r *report) {
	seen := make(map[string]int)
	d.WalkNodes(func(n, _ *description.NodeDescription) {
		seen[n.Name]++
	})
	for _, e := range d.Edges {
		seen[e.Name]++
	}
	names := make([]string, 0, len(seen))
	for name, count := range seen {
		if count > 1 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		r.errorf(CodeDuplicateName, name, "name is declared %d times", seen[name])
	}
}

func (v *Validator) checkNodeTools(d *description.Description, r *report) {
	d.WalkNodes(func(n, _ *description.NodeDescription) {
		if n.EffectiveKind() == description.KindSharedGroup {
			return
		}
		if n.Palette.Delete == nil && !exempt(v.exemptions.NoDelete, n) {
			r.errorf(CodeMissingDeleteTool, n.Name, "node has no delete tool")
		}
		if n.Palette.DirectEdit == nil && !exempt(v.exemptions.NoDirectEdit, n) {
			r.errorf(CodeMissingDirectEditTool, n.Name, "node has no direct edit tool")
		}
	})
}

func (v *Validator) checkEdgeTools(d *description.Description, r *report) {
	for _, e := range d.Edges {
		if !e.DomainBased {
			continue
		}
		if e.Palette.Delete == nil && !exempt(v.exemptions.EdgeNoDelete, e) {
			r.errorf(CodeMissingDeleteTool, e.Name, "domain based edge has no delete tool")
		}
		if e.Palette.DirectEdit == nil && !exempt(v.exemptions.EdgeNoDirectEdit, e) {
			r.errorf(CodeMissingDirectEditTool, e.Name, "domain based edge has no direct edit tool")
		}
	}
}

func (v *Validator) checkSharedGroup(d *description.Description, r *report) {
	groups := d.SharedGroups()
	if len(groups) == 0 {
		return
	}
	if len(groups) > 1 {
		names := make([]string, len(groups))
		for i, g := range groups {
			names[i] = g.Name
		}
		r.errorf(CodeSharedGroupCount, strings.Join(names, ","), "%d shared groups declared, want exactly one", len(groups))
	}

	reuse := reuseCounts(d)
	for _, g := range groups {
		if g.DomainType != v.rootType {
			r.errorf(CodeSharedGroupDomainType, g.Name, "domain type is %q, want the model root type %q", g.DomainType, v.rootType)
		}
		if !g.Palette.IsEmpty() {
			r.errorf(CodeSharedGroupPalette, g.Name, "shared group palette must be empty")
		}
		if !g.Candidates.IsEmpty() || g.Candidates.Filter != "" {
			r.errorf(CodeSharedGroupCandidates, g.Name, "shared group must declare no semantic candidates")
		}
		for _, child := range append(append([]*description.NodeDescription{}, g.Children...), g.BorderNodes...) {
			if !mapping.IsShared(child.Name) && !(v.exemptions.SharedSuffix != nil && v.exemptions.SharedSuffix(child.Name)) {
				r.errorf(CodeSharedSuffix, child.Name, "shared description name must end with %s", mapping.SuffixShared)
			}
			if n := reuse[child.Name]; n < MinReuse {
				r.errorf(CodeSharedReuse, child.Name, "reused by %d parent(s), want at least %d", n, MinReuse)
			}
		}
	}
}

func (v *Validator) checkReuse(d *description.Description, r *report) {
	declaredIn := make(map[string]*description.NodeDescription)
	known := make(map[string]bool)
	d.WalkNodes(func(n, parent *description.NodeDescription) {
		known[n.Name] = true
		if parent != nil {
			declaredIn[n.Name] = parent
		}
	})
	d.WalkNodes(func(n, _ *description.NodeDescription) {
		for _, name := range append(append([]string{}, n.ReusedChildren...), n.ReusedBorderNodes...) {
			parent, ok := declaredIn[name]
			switch {
			case !known[name]:
				r.errorf(CodeUnknownDescriptionName, n.Name, "reuses unknown description %q", name)
			case !ok || parent.EffectiveKind() != description.KindSharedGroup:
				owner := "the diagram"
				if ok {
					owner = parent.Name
				}
				r.errorf(CodeReuseOutsideSharedGrp, n.Name, "reuses %q which is declared in %s, not in the shared group", name, owner)
			}
		}
	})
}

func (v *Validator) checkReferences(d *description.Description, r *report) {
	nodes := make(map[string]bool)
	d.WalkNodes(func(n, _ *description.NodeDescription) { nodes[n.Name] = true })
	edges := make(map[string]bool, len(d.Edges))
	for _, e := range d.Edges {
		edges[e.Name] = true
	}
	unknownNode := func(subject string, names ...string) {
		for _, name := range names {
			if !nodes[name] {
				r.errorf(CodeUnknownDescriptionName, subject, "unknown node description %q", name)
			}
		}
	}
	checkPalette := func(owner string, p description.Palette) {
		for _, t := range p.NodeTools {
			if t.Description != "" {
				unknownNode(owner+"/"+t.Name, t.Description)
			}
		}
		for _, t := range p.EdgeTools {
			unknownNode(owner+"/"+t.Name, t.Targets...)
			if !edges[t.Edge] {
				r.errorf(CodeUnknownDescriptionName, owner+"/"+t.Name, "unknown edge description %q", t.Edge)
			}
		}
		for _, t := range p.Reconnect {
			unknownNode(owner+"/"+t.Name, t.Targets...)
		}
	}

	checkPalette(d.ID, d.Palette)
	d.WalkNodes(func(n, _ *description.NodeDescription) { checkPalette(n.Name, n.Palette) })
	for _, e := range d.Edges {
		unknownNode(e.Name, e.SourceDescriptions...)
		unknownNode(e.Name, e.TargetDescriptions...)
		checkPalette(e.Name, e.Palette)
	}
}

func (v *Validator) checkMappingTypes(d *description.Description, r *report) {
	if v.resolver == nil {
		return
	}
	res := v.resolver
	d.WalkNodes(func(n, parent *description.NodeDescription) {
		var want string
		ok := false
		switch n.EffectiveKind() {
		case description.KindSharedGroup:
			want = res.Prefix() + "*"
			ok = strings.HasPrefix(n.Name, res.Prefix())
		case description.KindCompartment:
			want = res.Compartment(n.DomainType, "*")
			ok = strings.HasPrefix(n.Name, res.Specialized(n.DomainType, "")) && mapping.IsCompartment(n.Name)
		case description.KindFakeChild:
			want = res.FakeChild(n.DomainType)
			ok = n.Name == want
		default:
			role := mapping.Root
			switch {
			case parent == nil:
			case parent.EffectiveKind() == description.KindSharedGroup:
				role = mapping.Shared
			default:
				role = mapping.SubNode
			}
			want = res.For(n.DomainType, role)
			ok = n.Name == want || specialization(res, n.DomainType, n.Name)
		}
		if !ok {
			r.errorf(CodeMappingType, n.Name, "name does not follow the mapping type %q", want)
		}
	})
	for _, e := range d.Edges {
		if !e.DomainBased {
			if !strings.HasPrefix(e.Name, res.Prefix()) {
				r.errorf(CodeMappingType, e.Name, "name does not start with %q", res.Prefix())
			}
			continue
		}
		if want := res.MappingType(e.DomainType); e.Name != want {
			r.errorf(CodeMappingType, e.Name, "name does not follow the mapping type %q", want)
		}
	}
}

// specialization reports whether name is a Specialized variant of t that does not
// borrow the suffix of another role.
func specialization(res *mapping.Resolver, t, name string) bool {
	base := res.Specialized(t, "")
	if !strings.HasPrefix(name, base) || len(name) == len(base) {
		return false
	}
	for _, suffix := range []string{mapping.SuffixShared, mapping.SuffixSubNode, mapping.SuffixCompartment, mapping.SuffixFakeChild, mapping.SuffixDomainEdge} {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}
	return true
}

func reuseCounts(d *description.Description) map[string]int {
	parents := make(map[string]map[string]bool)
	d.WalkNodes(func(n, _ *description.NodeDescription) {
		for _, name := range append(append([]string{}, n.ReusedChildren...), n.ReusedBorderNodes...) {
			if parents[name] == nil {
				parents[name] = make(map[string]bool)
			}
			parents[name][n.Name] = true
		}
	})
	out := make(map[string]int, len(parents))
	for name, ps := range parents {
		out[name] = len(ps)
	}
	return out
}

func exempt[T any](pred func(T) bool, v T) bool {
	return pred != nil && pred(v)
}

// Err aggregates the error findings into one error wrapping domain.ErrInvalidDescription.
// Warnings alone yield nil.
func Err(statuses []Status) error {
	var lines []string
	for _, s := range statuses {
		if s.Severity == SeverityError {
			lines = append(lines, s.String())
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d problem(s):\n  %s", domain.ErrInvalidDescription, len(lines), strings.Join(lines, "\n  "))
}

// ValidateAll validates independent descriptions in parallel. The result maps
// description ids to findings; the error aggregates every invalid description.
func (v *Validator) ValidateAll(ctx context.Context, descs []*description.Description) (map[string][]Status, error) {
	var (
		mu  sync.Mutex
		out = make(map[string][]Status, len(descs))
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, d := range descs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			statuses := v.Validate(d)
			mu.Lock()
			out[d.ID] = statuses
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}

	ids := make([]string, 0, len(out))
	for id := range out {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var errs []error
	for _, id := range ids {
		if err := Err(out[id]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	return out, errors.Join(errs...)
}
