package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/logging"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
)

// maxDepth bounds recursive descriptions (a reused child showing its own container).
const maxDepth = 64

var viewNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("papyrus.diagram.view"))

// ViewRequest asks the renderer to show an element through an unsynchronized description.
// Empty ParentViewID and Description match any parent and any description.
type ViewRequest struct {
	ParentViewID string
	SemanticID   model.ID
	Description  string
}

// Renderer computes diagrams from a model and a compiled description.
// It never writes to the model and can be shared by concurrent sessions.
type Renderer struct {
	reg         *description.Registry
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	parallelism int
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRenderLogger sets the logger receiving filter warnings.
func WithRenderLogger(logger *slog.Logger) RendererOption {
	return func(r *Renderer) { r.logger = logger }
}

// WithRenderHooks sets the render lifecycle hooks.
func WithRenderHooks(h domain.LifecycleHooks) RendererOption {
	return func(r *Renderer) { r.hooks = h }
}

// WithParallelism renders the subtrees of top-level nodes with up to n goroutines.
// Values below 2 render sequentially.
func WithParallelism(n int) RendererOption {
	return func(r *Renderer) { r.parallelism = n }
}

// NewRenderer creates a renderer for one compiled description.
func NewRenderer(reg *description.Registry, opts ...RendererOption) *Renderer {
	r := &Renderer{
		reg:    reg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewDiagram returns an empty diagram of the renderer's description targeting an element.
func (r *Renderer) NewDiagram(id string, target model.ID) *domain.Diagram {
	d := &domain.Diagram{ID: id, DescriptionID: r.reg.Description().ID, TargetID: string(target)}
	d.Reindex()
	return d
}

type viewKey struct {
	parent  string
	mapping string
	sem     string
}

type pass struct {
	m        *model.Model
	previous map[string]*domain.Node
	prevEdge map[string]*domain.Edge
	manual   map[viewKey]bool
	requests []ViewRequest

	mu  sync.Mutex
	err error
}

func newPass(m *model.Model, previous *domain.Diagram, requests []ViewRequest) *pass {
	p := &pass{
		m:        m,
		previous: make(map[string]*domain.Node),
		prevEdge: make(map[string]*domain.Edge),
		manual:   make(map[viewKey]bool),
		requests: requests,
	}
	if previous == nil {
		return p
	}
	for _, n := range previous.AllNodes() {
		p.previous[n.ID] = n
		if n.Manual {
			p.manual[viewKey{n.ParentID, n.MappingType, n.SemanticID}] = true
		}
	}
	for _, e := range previous.Edges {
		p.prevEdge[e.ID] = e
	}
	return p
}

// advance moves a view along its lifecycle. A removed view coming back is recycled
// through Unrendered and rendered afresh. The first illegal move fails the pass.
func (p *pass) advance(viewID string, from, to domain.ViewState) domain.ViewState {
	if from == domain.StateRemoved && to != domain.StateUnrendered {
		from, to = domain.StateUnrendered, domain.StateRendered
	}
	next, err := from.Next(to)
	if err != nil {
		p.mu.Lock()
		if p.err == nil {
			p.err = fmt.Errorf("view %s: %w", viewID, err)
		}
		p.mu.Unlock()
	}
	return next
}

func (p *pass) failed() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// tombstones moves every view of previous that out no longer holds to Removed.
// Views already removed are not reported twice.
func (p *pass) tombstones(previous, out *domain.Diagram) []domain.Tombstone {
	if previous == nil {
		return nil
	}
	var dead []domain.Tombstone
	for _, n := range previous.AllNodes() {
		if _, ok := out.Node(n.ID); ok || n.State == domain.StateRemoved {
			continue
		}
		dead = append(dead, domain.Tombstone{ID: n.ID, MappingType: n.MappingType, SemanticID: n.SemanticID,
			State: p.advance(n.ID, n.State, domain.StateRemoved)})
	}
	for _, e := range previous.Edges {
		if _, ok := out.Edge(e.ID); ok || e.State == domain.StateRemoved {
			continue
		}
		dead = append(dead, domain.Tombstone{ID: e.ID, MappingType: e.MappingType, SemanticID: e.SemanticID,
			State: p.advance(e.ID, e.State, domain.StateRemoved)})
	}
	return dead
}

func (p *pass) requested(parentViewID string, desc *description.NodeDescription, sem model.ID) bool {
	if p.manual[viewKey{parentViewID, desc.Name, string(sem)}] {
		return true
	}
	for _, req := range p.requests {
		if req.SemanticID != sem {
			continue
		}
		if (req.ParentViewID == "" || req.ParentViewID == parentViewID) &&
			(req.Description == "" || req.Description == desc.Name) {
			return true
		}
	}
	return false
}

// Render computes the whole diagram. previous supplies the diagram identity, the manual
// views to keep and the layout to carry over; only its ID and TargetID are required.
func (r *Renderer) Render(ctx context.Context, m *model.Model, previous *domain.Diagram, requests ...ViewRequest) (*domain.Diagram, error) {
	start := time.Now()
	if previous == nil {
		return nil, fmt.Errorf("render: a diagram shell with a target is required")
	}
	target := model.ID(previous.TargetID)
	if !m.IsKindOf(target, r.reg.Description().DomainType) {
		return nil, fmt.Errorf("render %s: target %q is not a %s: %w",
			previous.ID, target, r.reg.Description().DomainType, domain.ErrElementNotFound)
	}

	p := newPass(m, previous, requests)
	out := &domain.Diagram{ID: previous.ID, DescriptionID: r.reg.Description().ID, TargetID: previous.TargetID}

	roots := r.nodes(ctx, p, out.ID, target, r.reg.Roots(), 0, false)
	if err := r.subtrees(ctx, p, roots); err != nil {
		return nil, err
	}
	out.Nodes = roots
	out.Reindex()
	out.Edges = r.edges(ctx, p, out)
	out.Reindex()

	removed := p.tombstones(previous, out)
	if err := p.failed(); err != nil {
		return nil, fmt.Errorf("render %s: %w", out.ID, err)
	}
	r.emit(ctx, previous, out, removed, false, "", start)
	return out, nil
}

// RenderIncremental re-evaluates the subtree of scopeViewID and every edge; views outside
// the scope are copied unchanged, identity, state and layout included.
// An empty scope or the diagram id renders everything.
func (r *Renderer) RenderIncremental(ctx context.Context, m *model.Model, previous *domain.Diagram, scopeViewID string, requests ...ViewRequest) (*domain.Diagram, error) {
	if previous == nil || scopeViewID == "" || scopeViewID == previous.ID {
		return r.Render(ctx, m, previous, requests...)
	}
	start := time.Now()
	scope, ok := previous.Node(scopeViewID)
	if !ok {
		return nil, fmt.Errorf("render scope %q: %w", scopeViewID, domain.ErrViewNotFound)
	}
	desc, ok := r.reg.Node(scope.MappingType)
	if !ok {
		return nil, fmt.Errorf("render scope %q: unknown mapping %q", scopeViewID, scope.MappingType)
	}
	if _, ok := m.Get(model.ID(scope.SemanticID)); !ok {
		return r.Render(ctx, m, previous, requests...)
	}

	p := newPass(m, previous, requests)
	out := &domain.Diagram{ID: previous.ID, DescriptionID: previous.DescriptionID, TargetID: previous.TargetID}
	out.Nodes = copyNodes(previous.Nodes)
	out.Reindex()

	fresh, _ := out.Node(scopeViewID)
	fresh.State = p.advance(fresh.ID, scope.State, domain.StateUpdated)
	sem := model.ID(fresh.SemanticID)
	depth := len(ancestorsOf(out, fresh))
	fresh.BorderNodes = r.nodes(ctx, p, fresh.ID, sem, r.reg.BorderNodes(desc), depth+1, true)
	fresh.Children = r.nodes(ctx, p, fresh.ID, sem, r.reg.Children(desc), depth+1, true)
	out.Reindex()
	out.Edges = r.edges(ctx, p, out)
	out.Reindex()

	removed := p.tombstones(previous, out)
	if err := p.failed(); err != nil {
		return nil, fmt.Errorf("render %s: %w", out.ID, err)
	}
	r.emit(ctx, previous, out, removed, true, scopeViewID, start)
	return out, nil
}

func (r *Renderer) emit(ctx context.Context, previous, out *domain.Diagram, removed []domain.Tombstone, incremental bool, scope string, start time.Time) {
	if r.hooks.OnRender == nil {
		return
	}
	r.hooks.OnRender(ctx, &domain.RenderEvent{
		EventBase:   domain.EventBase{Timestamp: time.Now(), Type: domain.EventRender, DiagramID: out.ID},
		Incremental: incremental,
		Scope:       scope,
		Diff:        domain.Diff(previous, out),
		Removed:     removed,
		Duration:    time.Since(start),
	})
}

// subtrees fills the children of top-level nodes, in parallel when configured.
// Each goroutine only writes the node it owns.
func (r *Renderer) subtrees(ctx context.Context, p *pass, roots []*domain.Node) error {
	fill := func(n *domain.Node) {
		desc, _ := r.reg.Node(n.MappingType)
		sem := model.ID(n.SemanticID)
		n.BorderNodes = r.nodes(ctx, p, n.ID, sem, r.reg.BorderNodes(desc), 1, true)
		n.Children = r.nodes(ctx, p, n.ID, sem, r.reg.Children(desc), 1, true)
	}
	if r.parallelism < 2 || len(roots) < 2 {
		for _, n := range roots {
			fill(n)
		}
		return ctx.Err()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for _, n := range roots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fill(n)
			return nil
		})
	}
	return g.Wait()
}

// nodes renders, under one container view, every match of every description in order.
// With recurse false only the matched nodes are built (their subtrees are left empty).
func (r *Renderer) nodes(ctx context.Context, p *pass, parentViewID string, container model.ID, descs []*description.NodeDescription, depth int, recurse bool) []*domain.Node {
	if depth > maxDepth {
		r.logger.Warn("render depth exceeded, subtree truncated", "parent_view", parentViewID)
		return nil
	}
	var out []*domain.Node
	for _, desc := range descs {
		for _, sem := range r.candidates(p.m, desc, container) {
			if !desc.IsSynchronized() && !p.requested(parentViewID, desc, sem) {
				continue
			}
			n := p.node(parentViewID, desc, sem)
			if recurse {
				n.BorderNodes = r.nodes(ctx, p, n.ID, sem, r.reg.BorderNodes(desc), depth+1, true)
				n.Children = r.nodes(ctx, p, n.ID, sem, r.reg.Children(desc), depth+1, true)
			}
			out = append(out, n)
		}
	}
	return out
}

// candidates returns the elements a description shows under container, in model order.
func (r *Renderer) candidates(m *model.Model, desc *description.NodeDescription, container model.ID) []model.ID {
	c := desc.Candidates
	var raw []model.ID
	switch {
	case c.None:
		return nil
	case c.Self:
		raw = []model.ID{container}
	case c.Feature != "":
		raw = m.Resolve(container, c.Feature)
	default:
		return nil
	}

	out := raw[:0:0]
	var parent map[string]any
	for _, id := range raw {
		if !m.IsKindOf(id, desc.DomainType) {
			continue
		}
		if c.Filter != "" {
			if parent == nil {
				parent = description.Activation(m, container)
			}
			ok, err := r.reg.Match(c.Filter, description.Activation(m, id), parent)
			if err != nil {
				r.logger.Warn("candidate filter failed", "description", desc.Name, "element", id, "error", err)
				continue
			}
			if !ok {
				continue
			}
		}
		out = append(out, id)
	}
	return out
}

func (p *pass) node(parentViewID string, desc *description.NodeDescription, sem model.ID) *domain.Node {
	id := viewID(parentViewID, desc.Name, string(sem))
	n := &domain.Node{
		ID:          id,
		MappingType: desc.Name,
		SemanticID:  string(sem),
		ParentID:    parentViewID,
		Manual:      !desc.IsSynchronized(),
	}
	if prev, ok := p.previous[id]; ok {
		n.State = p.advance(id, prev.State, domain.StateUpdated)
		n.Layout = prev.Layout
	} else {
		n.State = p.advance(id, domain.StateUnrendered, domain.StateRendered)
	}
	return n
}

// edges evaluates every edge description over the rendered node set.
func (r *Renderer) edges(_ context.Context, p *pass, d *domain.Diagram) []*domain.Edge {
	bySem := make(map[string][]*domain.Node)
	for _, n := range d.AllNodes() {
		bySem[n.SemanticID] = append(bySem[n.SemanticID], n)
	}
	pick := func(ids []model.ID, allowed []string) []*domain.Node {
		var out []*domain.Node
		for _, id := range ids {
			for _, n := range bySem[string(id)] {
				if contains(allowed, n.MappingType) {
					out = append(out, n)
				}
			}
		}
		return out
	}

	var out []*domain.Edge
	seen := make(map[string]bool)
	add := func(desc *description.EdgeDescription, sem string, src, tgt *domain.Node) {
		id := viewID(d.ID, desc.Name, sem, src.ID, tgt.ID)
		if seen[id] {
			return
		}
		seen[id] = true
		e := &domain.Edge{ID: id, MappingType: desc.Name, SemanticID: sem, SourceID: src.ID, TargetID: tgt.ID}
		if prev, ok := p.prevEdge[id]; ok {
			e.State = p.advance(id, prev.State, domain.StateUpdated)
		} else {
			e.State = p.advance(id, domain.StateUnrendered, domain.StateRendered)
		}
		out = append(out, e)
	}

	for _, desc := range r.reg.Edges() {
		if desc.DomainBased {
			p.m.Walk(model.ID(d.TargetID), func(el *model.Element) bool {
				if !p.m.IsKindOf(el.ID(), desc.DomainType) || !r.edgeFilter(p.m, desc, el) {
					return true
				}
				for _, src := range pick(p.m.Resolve(el.ID(), desc.SourcePath), desc.SourceDescriptions) {
					for _, tgt := range pick(p.m.Resolve(el.ID(), desc.TargetPath), desc.TargetDescriptions) {
						add(desc, string(el.ID()), src, tgt)
					}
				}
				return true
			})
			continue
		}
		for _, src := range d.AllNodes() {
			if !contains(desc.SourceDescriptions, src.MappingType) {
				continue
			}
			el, ok := p.m.Get(model.ID(src.SemanticID))
			if !ok || !r.edgeFilter(p.m, desc, el) {
				continue
			}
			for _, tgt := range pick(p.m.Resolve(el.ID(), desc.TargetPath), desc.TargetDescriptions) {
				add(desc, "", src, tgt)
			}
		}
	}
	return out
}

func (r *Renderer) edgeFilter(m *model.Model, desc *description.EdgeDescription, el *model.Element) bool {
	if desc.Filter == "" {
		return true
	}
	ok, err := r.reg.Match(desc.Filter, description.Activation(m, el.ID()), description.Activation(m, el.Parent()))
	if err != nil {
		r.logger.Warn("edge filter failed", "description", desc.Name, "element", el.ID(), "error", err)
		return false
	}
	return ok
}

func viewID(parts ...string) string {
	var b []byte
	for i, s := range parts {
		if i > 0 {
			b = append(b, 0)
		}
		b = append(b, s...)
	}
	return uuid.NewSHA1(viewNamespace, b).String()
}

func copyNodes(nodes []*domain.Node) []*domain.Node {
	if nodes == nil {
		return nil
	}
	out := make([]*domain.Node, len(nodes))
	for i, n := range nodes {
		c := *n
		c.Children = copyNodes(n.Children)
		c.BorderNodes = copyNodes(n.BorderNodes)
		out[i] = &c
	}
	return out
}

func ancestorsOf(d *domain.Diagram, n *domain.Node) []string {
	var out []string
	for cur, ok := d.Node(n.ParentID); ok; cur, ok = d.Node(cur.ParentID) {
		out = append(out, cur.ID)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
