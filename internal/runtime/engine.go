package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/logging"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
)

// Session is the (model, diagram) pair edited by one client. Operations replace
// Diagram and mutate Model in place; callers serialize access.
type Session struct {
	Model   *model.Model
	Diagram *domain.Diagram
}

// Engine runs edit and drop operations for one compiled description.
// It is stateless: every call receives the session it works on.
type Engine struct {
	reg      *description.Registry
	renderer *Renderer
	logger   *slog.Logger
	hooks    domain.LifecycleHooks

	checker      ports.EditableChecker
	dropChecker  ports.DropChecker
	dropBehavior ports.DropBehaviorProvider
	modifierOpts []model.ModifierOption
	renderOpts   []RendererOption
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. It is shared with the renderer.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithLifecycleHooks sets the render and edit hooks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithEditableChecker replaces the default model.MetamodelChecker.
func WithEditableChecker(c ports.EditableChecker) Option {
	return func(e *Engine) { e.checker = c }
}

// WithDropPolicy sets the drop rules of the diagram kind. Without one every drop is illegal.
func WithDropPolicy(checker ports.DropChecker, behavior ports.DropBehaviorProvider) Option {
	return func(e *Engine) {
		e.dropChecker = checker
		e.dropBehavior = behavior
	}
}

// WithModifierOptions configures the modifiers used by edit operations
// (cleanup policy, id generator).
func WithModifierOptions(opts ...model.ModifierOption) Option {
	return func(e *Engine) { e.modifierOpts = append(e.modifierOpts, opts...) }
}

// WithRendererOptions configures the renderer built by the engine.
func WithRendererOptions(opts ...RendererOption) Option {
	return func(e *Engine) { e.renderOpts = append(e.renderOpts, opts...) }
}

// NewEngine creates an engine for a compiled description.
func NewEngine(reg *description.Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:     reg,
		logger:  logging.NewNop(),
		checker: model.MetamodelChecker{},
	}
	for _, opt := range opts {
		opt(e)
	}
	ropts := append([]RendererOption{WithRenderLogger(e.logger), WithRenderHooks(e.hooks)}, e.renderOpts...)
	e.renderer = NewRenderer(reg, ropts...)
	return e
}

// Registry returns the compiled description.
func (e *Engine) Registry() *description.Registry { return e.reg }

// Renderer returns the engine renderer.
func (e *Engine) Renderer() *Renderer { return e.renderer }

// Open renders the first diagram of a session on target.
func (e *Engine) Open(ctx context.Context, m *model.Model, diagramID string, target model.ID) (*Session, error) {
	d, err := e.renderer.Render(ctx, m, e.renderer.NewDiagram(diagramID, target))
	if err != nil {
		return nil, err
	}
	return &Session{Model: m, Diagram: d}, nil
}

// Render re-renders the whole session diagram.
func (e *Engine) Render(ctx context.Context, s *Session) error {
	d, err := e.renderer.Render(ctx, s.Model, s.Diagram)
	if err != nil {
		return err
	}
	s.Diagram = d
	return nil
}

// mutate runs fn inside a model transaction. fn returns the new diagram; any error rolls
// the model back and leaves the session diagram untouched.
func (e *Engine) mutate(s *Session, fn func(mod *model.Modifier) (*domain.Diagram, error)) error {
	var next *domain.Diagram
	mod := model.NewModifier(s.Model, e.modifierOpts...)
	err := mod.Transaction(func(tx *model.Modifier) error {
		d, err := fn(tx)
		if err != nil {
			return err
		}
		next = d
		return nil
	})
	if err != nil {
		return err
	}
	s.Diagram = next
	return nil
}

func (e *Engine) finish(ctx context.Context, op string, s *Session, start time.Time, st domain.Status) domain.Status {
	if !st.Success {
		e.logger.Info("operation failed", "op", op, "code", st.Code, "error", st.Reason)
	}
	if e.hooks.OnEdit != nil {
		evType := domain.EventEdit
		if op == "drop" {
			evType = domain.EventDrop
		}
		e.hooks.OnEdit(ctx, &domain.EditEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: evType, DiagramID: s.Diagram.ID},
			Operation: op,
			Status:    st,
			Duration:  time.Since(start),
		})
	}
	return st
}

// container resolves a view id to the description owning its palette and its semantic
// element. The diagram itself (empty id or diagram id) maps to the diagram palette.
func (e *Engine) container(s *Session, viewID string) (string, model.ID, string, error) {
	if viewID == "" || viewID == s.Diagram.ID {
		return "", model.ID(s.Diagram.TargetID), s.Diagram.ID, nil
	}
	n, ok := s.Diagram.Node(viewID)
	if !ok {
		return "", "", "", fmt.Errorf("node view %q: %w", viewID, domain.ErrViewNotFound)
	}
	return n.MappingType, model.ID(n.SemanticID), n.ID, nil
}

func params(kv ...any) map[string]any {
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i].(string)] = kv[i+1]
	}
	return out
}

func failure(err error) domain.Status {
	if errors.Is(err, domain.ErrIllegalDrop) {
		return domain.Success(domain.ChangeNone, nil)
	}
	return domain.Failure(err)
}
