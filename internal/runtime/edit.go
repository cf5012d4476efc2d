package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/schema"
)

// CreateNode runs a creation tool of the container view's palette (the diagram palette
// for an empty ParentViewID) and renders the container again.
func (e *Engine) CreateNode(ctx context.Context, s *Session, req domain.CreateNodeRequest) domain.Status {
	start := time.Now()
	return e.finish(ctx, "create_node", s, start, e.createNode(ctx, s, req))
}

func (e *Engine) createNode(ctx context.Context, s *Session, req domain.CreateNodeRequest) domain.Status {
	owner, sem, scope, err := e.container(s, req.ParentViewID)
	if err != nil {
		return domain.Failure(err)
	}
	tool, err := e.reg.NodeTool(owner, req.Tool)
	if err != nil {
		return domain.Failure(err)
	}
	if err := e.checker.CanEditFeature(s.Model, sem, tool.Feature); err != nil {
		return domain.Failure(err)
	}

	var created model.ID
	err = e.mutate(s, func(mod *model.Modifier) (*domain.Diagram, error) {
		attrs := withDefaultName(s.Model, sem, tool.Feature, tool.DomainType, tool.Attributes)
		id, err := mod.Create(sem, tool.Feature, tool.DomainType, tool.Position.Index(), attrs)
		if err != nil {
			return nil, err
		}
		created = id
		var requests []ViewRequest
		if tool.Description != "" {
			requests = append(requests, ViewRequest{SemanticID: id, Description: tool.Description})
		}
		return e.renderer.RenderIncremental(ctx, s.Model, s.Diagram, scope, requests...)
	})
	if err != nil {
		return domain.Failure(err)
	}
	return domain.Success(domain.ChangeSemantic, params(
		domain.ParamElementID, string(created),
		domain.ParamViewID, firstView(s.Diagram, created),
	))
}

// CreateEdge runs an edge tool of the source view's palette. The created element lives
// in the nearest common container of both ends owning the tool feature. The operation is
// all-or-nothing: unless exactly one edge view shows the result, the model is rolled back.
func (e *Engine) CreateEdge(ctx context.Context, s *Session, req domain.CreateEdgeRequest) domain.Status {
	start := time.Now()
	return e.finish(ctx, "create_edge", s, start, e.createEdge(ctx, s, req))
}

func (e *Engine) createEdge(ctx context.Context, s *Session, req domain.CreateEdgeRequest) domain.Status {
	src, ok := s.Diagram.Node(req.SourceViewID)
	if !ok {
		return domain.Failure(fmt.Errorf("source view %q: %w", req.SourceViewID, domain.ErrViewNotFound))
	}
	tgt, ok := s.Diagram.Node(req.TargetViewID)
	if !ok {
		return domain.Failure(fmt.Errorf("target view %q: %w", req.TargetViewID, domain.ErrViewNotFound))
	}
	tool, err := e.reg.EdgeTool(src.MappingType, req.Tool)
	if err != nil {
		return domain.Failure(err)
	}
	if !contains(tool.Targets, tgt.MappingType) {
		return domain.Failure(fmt.Errorf("%s cannot end on %s: %w", tool.Name, tgt.MappingType, domain.ErrInconsistentEdgeEndpoints))
	}
	srcSem, tgtSem := model.ID(src.SemanticID), model.ID(tgt.SemanticID)

	if tool.DomainType == "" {
		return e.createLink(ctx, s, tool, src, tgt)
	}

	owner, err := e.edgeContainer(s.Model, srcSem, tgtSem, tool.Feature)
	if err != nil {
		return domain.Failure(err)
	}
	if err := e.checker.CanEditFeature(s.Model, owner, tool.Feature); err != nil {
		return domain.Failure(err)
	}
	if tool.Paired != nil {
		if err := e.checker.CanEditFeature(s.Model, owner, tool.Paired.Feature); err != nil {
			return domain.Failure(err)
		}
	}

	var edgeElem model.ID
	var edgeView string
	err = e.mutate(s, func(mod *model.Modifier) (*domain.Diagram, error) {
		attrs := withDefaultName(s.Model, owner, tool.Feature, tool.DomainType, tool.Attributes)
		id, err := mod.Create(owner, tool.Feature, tool.DomainType, -1, attrs)
		if err != nil {
			return nil, err
		}
		edgeElem = id
		if tool.Paired != nil {
			if err := e.pairOccurrences(mod, tool.Paired, owner, id, attrs, srcSem, tgtSem); err != nil {
				return nil, err
			}
		} else {
			if tool.SourceFeature != "" {
				if err := mod.Add(id, tool.SourceFeature, srcSem, -1); err != nil {
					return nil, err
				}
			}
			if tool.TargetFeature != "" {
				if err := mod.Add(id, tool.TargetFeature, tgtSem, -1); err != nil {
					return nil, err
				}
			}
		}

		d, err := e.renderer.Render(ctx, s.Model, s.Diagram)
		if err != nil {
			return nil, err
		}
		views := edgesOf(d, tool.Edge, string(id))
		if len(views) != 1 {
			return nil, fmt.Errorf("%s produced %d %s views, want 1: %w", tool.Name, len(views), tool.Edge, domain.ErrInconsistentEdgeEndpoints)
		}
		edgeView = views[0].ID
		return d, nil
	})
	if err != nil {
		return domain.Failure(err)
	}
	return domain.Success(domain.ChangeSemantic, params(
		domain.ParamElementID, string(edgeElem),
		domain.ParamViewID, edgeView,
	))
}

// pairOccurrences creates the send and receive occurrences of a relationship, in that
// order, covers the ends with them and wires the roles of the edge element.
func (e *Engine) pairOccurrences(mod *model.Modifier, p *description.PairedOccurrence, owner, edge model.ID, attrs map[string]any, src, tgt model.ID) error {
	base, _ := attrs["name"].(string)
	ends := []struct {
		suffix string
		end    model.ID
		role   string
	}{
		{"SendEvent", src, p.SourceRole},
		{"ReceiveEvent", tgt, p.TargetRole},
	}
	for _, end := range ends {
		var occAttrs map[string]any
		if base != "" {
			occAttrs = map[string]any{"name": base + end.suffix}
		}
		occ, err := mod.Create(owner, p.Feature, p.Type, -1, occAttrs)
		if err != nil {
			return err
		}
		if err := mod.Add(occ, p.Covered, end.end, -1); err != nil {
			return err
		}
		if err := mod.Add(edge, end.role, occ, -1); err != nil {
			return err
		}
		if p.BackReference != "" {
			if err := mod.Add(occ, p.BackReference, edge, -1); err != nil {
				return err
			}
		}
	}
	return nil
}

// createLink adds the target element to the link feature of the source element.
func (e *Engine) createLink(ctx context.Context, s *Session, tool *description.EdgeTool, src, tgt *domain.Node) domain.Status {
	srcSem, tgtSem := model.ID(src.SemanticID), model.ID(tgt.SemanticID)
	if err := e.checker.CanEditFeature(s.Model, srcSem, tool.LinkFeature); err != nil {
		return domain.Failure(err)
	}
	var edgeView string
	err := e.mutate(s, func(mod *model.Modifier) (*domain.Diagram, error) {
		if err := mod.Add(srcSem, tool.LinkFeature, tgtSem, -1); err != nil {
			return nil, err
		}
		d, err := e.renderer.Render(ctx, s.Model, s.Diagram)
		if err != nil {
			return nil, err
		}
		for _, v := range edgesOf(d, tool.Edge, "") {
			if v.SourceID == src.ID && v.TargetID == tgt.ID {
				edgeView = v.ID
				return d, nil
			}
		}
		return nil, fmt.Errorf("%s: no %s view between the ends: %w", tool.Name, tool.Edge, domain.ErrInconsistentEdgeEndpoints)
	})
	if err != nil {
		return domain.Failure(err)
	}
	return domain.Success(domain.ChangeSemantic, params(domain.ParamElementID, src.SemanticID, domain.ParamViewID, edgeView))
}

// edgeContainer returns the nearest element containing both ends that owns feature.
func (e *Engine) edgeContainer(m *model.Model, a, b model.ID, feature string) (model.ID, error) {
	common, ok := m.CommonContainer(a, b)
	if !ok {
		return "", fmt.Errorf("%s and %s share no container: %w", a, b, domain.ErrInconsistentEdgeEndpoints)
	}
	for _, id := range append([]model.ID{common}, m.Ancestors(common)...) {
		if f, ok := m.Metamodel().Feature(m.TypeOf(id), feature); ok && f.Kind == model.Containment {
			return id, nil
		}
	}
	return "", fmt.Errorf("no container of %s and %s owns %q: %w", a, b, feature, domain.ErrInconsistentEdgeEndpoints)
}

// Delete runs the delete tool of a view. Semantic deletion destroys the element, its
// subtree and the declared cascade targets, then renders everything again; graphical
// deletion hides an unsynchronized node view.
func (e *Engine) Delete(ctx context.Context, s *Session, req domain.DeleteRequest) domain.Status {
	start := time.Now()
	return e.finish(ctx, "delete", s, start, e.delete(ctx, s, req))
}

func (e *Engine) delete(ctx context.Context, s *Session, req domain.DeleteRequest) domain.Status {
	if n, ok := s.Diagram.Node(req.ViewID); ok {
		tool, err := e.reg.DeleteTool(n.MappingType)
		if err != nil {
			return domain.Failure(err)
		}
		if tool.Graphical {
			return e.hide(ctx, s, n)
		}
		return e.destroy(ctx, s, model.ID(n.SemanticID), tool)
	}
	edge, ok := s.Diagram.Edge(req.ViewID)
	if !ok {
		return domain.Failure(fmt.Errorf("view %q: %w", req.ViewID, domain.ErrViewNotFound))
	}
	tool, err := e.reg.DeleteTool(edge.MappingType)
	if err != nil {
		return domain.Failure(err)
	}
	if edge.SemanticID != "" {
		return e.destroy(ctx, s, model.ID(edge.SemanticID), tool)
	}
	return e.unlink(ctx, s, edge)
}

func (e *Engine) hide(ctx context.Context, s *Session, n *domain.Node) domain.Status {
	if !n.Manual {
		return domain.Failure(fmt.Errorf("%s views follow their element and cannot be hidden: %w", n.MappingType, domain.ErrPermissionDenied))
	}
	previous := &domain.Diagram{
		ID:            s.Diagram.ID,
		DescriptionID: s.Diagram.DescriptionID,
		TargetID:      s.Diagram.TargetID,
		Nodes:         withoutNode(s.Diagram.Nodes, n.ID),
		Edges:         s.Diagram.Edges,
	}
	previous.Reindex()
	d, err := e.renderer.Render(ctx, s.Model, previous)
	if err != nil {
		return domain.Failure(err)
	}
	s.Diagram = d
	return domain.Success(domain.ChangeGraphical, params(domain.ParamViewID, n.ID))
}

func (e *Engine) destroy(ctx context.Context, s *Session, id model.ID, tool *description.DeleteTool) domain.Status {
	targets := []model.ID{id}
	seen := map[model.ID]bool{id: true}
	for _, path := range tool.Cascade {
		for _, t := range s.Model.Resolve(id, path) {
			if !seen[t] {
				seen[t] = true
				targets = append(targets, t)
			}
		}
	}
	for _, t := range targets {
		if err := e.checker.CanDelete(s.Model, t); err != nil {
			return domain.Failure(err)
		}
	}

	var report model.DeleteReport
	err := e.mutate(s, func(mod *model.Modifier) (*domain.Diagram, error) {
		var err error
		if report, err = mod.DeleteAll(targets...); err != nil {
			return nil, err
		}
		return e.renderer.Render(ctx, s.Model, s.Diagram)
	})
	if err != nil {
		return domain.Failure(err)
	}
	deleted := make([]string, len(report.Deleted))
	for i, d := range report.Deleted {
		deleted[i] = string(d)
	}
	return domain.Success(domain.ChangeSemantic, params(
		domain.ParamElementID, string(id),
		domain.ParamDeleted, deleted,
		domain.ParamUnset, len(report.Unset),
	))
}

// unlink removes the reference shown by a visual edge. Only single-feature paths can be unset.
func (e *Engine) unlink(ctx context.Context, s *Session, edge *domain.Edge) domain.Status {
	desc, ok := e.reg.Edge(edge.MappingType)
	if !ok || strings.Contains(desc.TargetPath, ".") {
		return domain.Failure(fmt.Errorf("%s links cannot be deleted: %w", edge.MappingType, domain.ErrPermissionDenied))
	}
	src, _ := s.Diagram.Node(edge.SourceID)
	tgt, _ := s.Diagram.Node(edge.TargetID)
	if src == nil || tgt == nil {
		return domain.Failure(fmt.Errorf("ends of %q: %w", edge.ID, domain.ErrViewNotFound))
	}
	srcSem := model.ID(src.SemanticID)
	if err := e.checker.CanEditFeature(s.Model, srcSem, desc.TargetPath); err != nil {
		return domain.Failure(err)
	}
	err := e.mutate(s, func(mod *model.Modifier) (*domain.Diagram, error) {
		if err := mod.Remove(srcSem, desc.TargetPath, model.ID(tgt.SemanticID)); err != nil {
			return nil, err
		}
		return e.renderer.Render(ctx, s.Model, s.Diagram)
	})
	if err != nil {
		return domain.Failure(err)
	}
	return domain.Success(domain.ChangeSemantic, params(domain.ParamElementID, src.SemanticID, domain.ParamViewID, edge.ID))
}

// Reconnect moves one end of an edge onto another node view. The last segment of the tool
// path is rewritten on every element its prefix resolves to.
func (e *Engine) Reconnect(ctx context.Context, s *Session, req domain.ReconnectRequest) domain.Status {
	start := time.Now()
	return e.finish(ctx, "reconnect", s, start, e.reconnect(ctx, s, req))
}

func (e *Engine) reconnect(ctx context.Context, s *Session, req domain.ReconnectRequest) domain.Status {
	edge, ok := s.Diagram.Edge(req.EdgeViewID)
	if !ok {
		return domain.Failure(fmt.Errorf("edge view %q: %w", req.EdgeViewID, domain.ErrViewNotFound))
	}
	newEnd, ok := s.Diagram.Node(req.NewEndViewID)
	if !ok {
		return domain.Failure(fmt.Errorf("node view %q: %w", req.NewEndViewID, domain.ErrViewNotFound))
	}
	tool, err := e.reg.ReconnectTool(edge.MappingType, req.End)
	if err != nil {
		return domain.Failure(err)
	}
	if !contains(tool.Targets, newEnd.MappingType) {
		return domain.Failure(fmt.Errorf("%s cannot end on %s: %w", tool.Name, newEnd.MappingType, domain.ErrInconsistentEdgeEndpoints))
	}
	src, _ := s.Diagram.Node(edge.SourceID)
	tgt, _ := s.Diagram.Node(edge.TargetID)
	if src == nil || tgt == nil {
		return domain.Failure(fmt.Errorf("ends of %q: %w", edge.ID, domain.ErrViewNotFound))
	}
	oldEnd := tgt
	if req.End == domain.EndSource {
		oldEnd = src
	}
	newSem, oldSem := model.ID(newEnd.SemanticID), model.ID(oldEnd.SemanticID)

	// owners and feature of the rewritten setting
	var owners []model.ID
	feature := tool.Path
	switch {
	case edge.SemanticID != "":
		prefix := ""
		if i := strings.LastIndex(tool.Path, "."); i >= 0 {
			prefix, feature = tool.Path[:i], tool.Path[i+1:]
		}
		owners = s.Model.Resolve(model.ID(edge.SemanticID), prefix)
	case req.End == domain.EndTarget:
		owners = []model.ID{model.ID(src.SemanticID)}
	}
	for _, o := range owners {
		if err := e.checker.CanEditFeature(s.Model, o, feature); err != nil {
			return domain.Failure(err)
		}
	}
	if edge.SemanticID == "" && req.End == domain.EndSource {
		for _, o := range []model.ID{oldSem, newSem} {
			if err := e.checker.CanEditFeature(s.Model, o, feature); err != nil {
				return domain.Failure(err)
			}
		}
	}

	var view string
	err = e.mutate(s, func(mod *model.Modifier) (*domain.Diagram, error) {
		if edge.SemanticID == "" && req.End == domain.EndSource {
			linked := model.ID(tgt.SemanticID)
			if err := mod.Remove(oldSem, feature, linked); err != nil {
				return nil, err
			}
			if err := mod.Add(newSem, feature, linked, -1); err != nil {
				return nil, err
			}
		} else {
			for _, o := range owners {
				if err := mod.Remove(o, feature, oldSem); err != nil {
					return nil, err
				}
				if err := mod.Add(o, feature, newSem, -1); err != nil {
					return nil, err
				}
			}
		}
		d, err := e.renderer.Render(ctx, s.Model, s.Diagram)
		if err != nil {
			return nil, err
		}
		for _, v := range edgesOf(d, edge.MappingType, edge.SemanticID) {
			end := v.TargetID
			if req.End == domain.EndSource {
				end = v.SourceID
			}
			if end == newEnd.ID {
				view = v.ID
				return d, nil
			}
		}
		return nil, fmt.Errorf("%s: no %s view ends on %s: %w", tool.Name, edge.MappingType, newEnd.ID, domain.ErrInconsistentEdgeEndpoints)
	})
	if err != nil {
		return domain.Failure(err)
	}
	return domain.Success(domain.ChangeSemantic, params(domain.ParamElementID, edge.SemanticID, domain.ParamViewID, view))
}

// DirectEdit runs the direct-edit tool of a view: the label is validated against the tool
// schema and written to the label attribute; extra declared parameters become attributes.
func (e *Engine) DirectEdit(ctx context.Context, s *Session, req domain.DirectEditRequest) domain.Status {
	start := time.Now()
	return e.finish(ctx, "direct_edit", s, start, e.directEdit(ctx, s, req))
}

func (e *Engine) directEdit(ctx context.Context, s *Session, req domain.DirectEditRequest) domain.Status {
	var mapping, sem, scope, attr string
	if n, ok := s.Diagram.Node(req.ViewID); ok {
		mapping, sem, scope = n.MappingType, n.SemanticID, n.ParentID
		if desc, ok := e.reg.Node(mapping); ok {
			attr = desc.Label()
		}
	} else if edge, ok := s.Diagram.Edge(req.ViewID); ok {
		mapping, sem = edge.MappingType, edge.SemanticID
		if desc, ok := e.reg.Edge(mapping); ok {
			attr = desc.Label()
		}
	} else {
		return domain.Failure(fmt.Errorf("view %q: %w", req.ViewID, domain.ErrViewNotFound))
	}
	tool, err := e.reg.DirectEditTool(mapping)
	if err != nil {
		return domain.Failure(err)
	}
	if sem == "" {
		return domain.Failure(fmt.Errorf("%s has no element to edit: %w", mapping, domain.ErrPermissionDenied))
	}
	if tool.Attribute != "" {
		attr = tool.Attribute
	}

	values := make(map[string]any, len(req.Params)+1)
	for k, v := range req.Params {
		values[k] = v
	}
	values[schema.LabelKey] = req.Label
	ps := tool.ParamSchema()
	if err := schema.Validate(ps, values); err != nil {
		return domain.Failure(fmt.Errorf("%s: %w: %w", tool.Name, domain.ErrInvalidParameters, err))
	}

	writes := map[string]any{attr: req.Label}
	for k := range ps {
		if k != schema.LabelKey {
			writes[k] = values[k]
		}
	}
	for feature := range writes {
		if err := e.checker.CanEditFeature(s.Model, model.ID(sem), feature); err != nil {
			return domain.Failure(err)
		}
	}

	err = e.mutate(s, func(mod *model.Modifier) (*domain.Diagram, error) {
		for feature, v := range writes {
			if err := mod.SetAttr(model.ID(sem), feature, v); err != nil {
				return nil, err
			}
		}
		if scope == "" {
			return e.renderer.Render(ctx, s.Model, s.Diagram)
		}
		return e.renderer.RenderIncremental(ctx, s.Model, s.Diagram, scope)
	})
	if err != nil {
		return domain.Failure(err)
	}
	return domain.Success(domain.ChangeSemantic, params(
		domain.ParamElementID, sem,
		domain.ParamViewID, req.ViewID,
		domain.ParamLabel, req.Label,
	))
}

// withDefaultName names a new element "<Type><n>" unique among the feature values,
// when its type has a name and none is given.
func withDefaultName(m *model.Model, owner model.ID, feature, typ string, attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	if _, ok := out["name"]; ok {
		return out
	}
	if _, ok := m.Metamodel().Feature(typ, "name"); !ok {
		return out
	}
	taken := make(map[string]bool)
	if e, ok := m.Get(owner); ok {
		for _, id := range e.Contents(feature) {
			if c, ok := m.Get(id); ok {
				taken[c.Name()] = true
			}
		}
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", typ, i)
		if !taken[name] {
			out["name"] = name
			return out
		}
	}
}

func firstView(d *domain.Diagram, sem model.ID) string {
	if views := d.NodesFor(string(sem)); len(views) > 0 {
		return views[0].ID
	}
	return ""
}

func edgesOf(d *domain.Diagram, mapping, sem string) []*domain.Edge {
	var out []*domain.Edge
	for _, e := range d.Edges {
		if e.MappingType == mapping && e.SemanticID == sem {
			out = append(out, e)
		}
	}
	return out
}

func withoutNode(nodes []*domain.Node, id string) []*domain.Node {
	var out []*domain.Node
	for _, n := range nodes {
		if n.ID == id {
			continue
		}
		c := *n
		c.Children = withoutNode(n.Children, id)
		c.BorderNodes = withoutNode(n.BorderNodes, id)
		out = append(out, &c)
	}
	return out
}
