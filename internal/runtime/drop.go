package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
)

// HandleDrop shows a domain element on a node view (or the background), relocating it
// first when the drop policy says so. Incompatible drops change nothing and succeed.
func (e *Engine) HandleDrop(ctx context.Context, s *Session, req domain.DropRequest) domain.Status {
	start := time.Now()
	return e.finish(ctx, "drop", s, start, e.drop(ctx, s, req))
}

func (e *Engine) drop(ctx context.Context, s *Session, req domain.DropRequest) domain.Status {
	source := model.ID(req.SourceID)
	dropView := s.Diagram.ID
	target := ports.DropTarget{Element: model.ID(s.Diagram.TargetID), Background: true}
	if req.TargetViewID != "" && req.TargetViewID != s.Diagram.ID {
		n, ok := s.Diagram.Node(req.TargetViewID)
		if !ok {
			return domain.Failure(fmt.Errorf("drop target %q: %w", req.TargetViewID, domain.ErrViewNotFound))
		}
		dropView = n.ID
		target = ports.DropTarget{Element: model.ID(n.SemanticID)}
	}
	if _, err := s.Model.Lookup(source); err != nil {
		return domain.Failure(err)
	}

	if e.dropChecker == nil || e.dropBehavior == nil {
		e.logger.Debug("drop ignored", "source", source, "target", target.Element, "reason", "no drop policy")
		return domain.Success(domain.ChangeNone, nil)
	}
	if err := e.dropChecker.CanDrop(s.Model, source, target); err != nil {
		if errors.Is(err, domain.ErrIllegalDrop) {
			e.logger.Debug("drop ignored", "source", source, "target", target.Element, "reason", err)
		}
		return failure(err)
	}
	b, err := e.dropBehavior.Behavior(s.Model, source, target)
	if err != nil {
		return failure(err)
	}

	el, _ := s.Model.Get(source)
	move := b.Feature != "" && (el.Parent() != target.Element || el.ContainingFeature() != b.Feature)
	if move {
		if err := e.checker.CanEditFeature(s.Model, target.Element, b.Feature); err != nil {
			return domain.Failure(err)
		}
	}

	requests := []ViewRequest{{ParentViewID: dropView, SemanticID: source}}
	for _, r := range b.Reveal {
		requests = append(requests, ViewRequest{SemanticID: r})
	}

	previous := s.Diagram
	err = e.mutate(s, func(mod *model.Modifier) (*domain.Diagram, error) {
		if move {
			if err := mod.Move(source, target.Element, b.Feature, b.Position.Index()); err != nil {
				return nil, err
			}
		}
		return e.renderer.Render(ctx, s.Model, s.Diagram, requests...)
	})
	if err != nil {
		return domain.Failure(err)
	}

	change := domain.ChangeNone
	switch {
	case move:
		change = domain.ChangeSemantic
	case !domain.Diff(previous, s.Diagram).IsEmpty():
		change = domain.ChangeGraphical
	}
	return domain.Success(change, params(
		domain.ParamElementID, req.SourceID,
		domain.ParamViewID, firstViewUnder(s.Diagram, dropView, source),
	))
}

func firstViewUnder(d *domain.Diagram, parentViewID string, sem model.ID) string {
	for _, n := range d.NodesFor(string(sem)) {
		if n.ParentID == parentViewID {
			return n.ID
		}
	}
	return firstView(d, sem)
}
