package papyrus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/logging"
	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/runtime"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/adapters/memory"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/session"
)

// Engine is the high-level entry point of the library. It owns one compiled diagram
// kind and the sessions edited with it, and implements ports.Editor.
type Engine struct {
	kind     *kinds.Kind
	registry *description.Registry
	runtime  *runtime.Engine
	sessions *session.Manager

	store        ports.SessionStore
	locker       ports.DistributedLocker
	checker      ports.EditableChecker
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	parallelism  int
	modifierOpts []model.ModifierOption
}

var _ ports.Editor = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore persists sessions in store instead of memory.
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes sessions across replicas sharing the store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithEditableChecker replaces the default metamodel-driven edit permissions.
func WithEditableChecker(c ports.EditableChecker) Option {
	return func(e *Engine) {
		e.checker = c
	}
}

// WithParallelism renders top-level subtrees with up to n goroutines.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		e.parallelism = n
	}
}

// WithCleanupPolicy decides what deletions do with dangling references.
func WithCleanupPolicy(p model.CleanupPolicy) Option {
	return func(e *Engine) {
		e.modifierOpts = append(e.modifierOpts, model.WithCleanupPolicy(p))
	}
}

// New validates and compiles the kind, then builds an engine for it.
// An invalid description is refused with an error wrapping domain.ErrInvalidDescription.
func New(kind *kinds.Kind, opts ...Option) (*Engine, error) {
	if kind == nil || kind.Description == nil || kind.Metamodel == nil {
		return nil, fmt.Errorf("kind with a description and a metamodel is required")
	}
	eng := &Engine{kind: kind}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	eng.logger = eng.logger.With("kind", kind.Name)
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	reg, err := kind.Check()
	if err != nil {
		return nil, err
	}
	eng.registry = reg

	runtimeOpts := []runtime.Option{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithModifierOptions(eng.modifierOpts...),
		runtime.WithRendererOptions(runtime.WithParallelism(eng.parallelism)),
	}
	if eng.checker != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithEditableChecker(eng.checker))
	}
	if kind.Drops != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithDropPolicy(kind.Drops, kind.Drops))
	}
	eng.runtime = runtime.NewEngine(reg, runtimeOpts...)

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, kind.Metamodel, sessionOpts...)
	return eng, nil
}

// Kind returns the diagram kind of the engine.
func (e *Engine) Kind() *kinds.Kind { return e.kind }

// Registry returns the compiled description.
func (e *Engine) Registry() *description.Registry { return e.registry }

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Open starts (or restarts) a session on m. The diagram targets the first element,
// model root included, conforming to the description domain type.
func (e *Engine) Open(ctx context.Context, sessionID string, m *model.Model) (*domain.Diagram, error) {
	target, err := e.DefaultTarget(m)
	if err != nil {
		return nil, err
	}
	return e.OpenOn(ctx, sessionID, m, target)
}

// OpenOn starts (or restarts) a session on m with an explicit diagram target.
// The diagram id is the session id.
func (e *Engine) OpenOn(ctx context.Context, sessionID string, m *model.Model, target model.ID) (*domain.Diagram, error) {
	if m.Metamodel() != e.kind.Metamodel && m.Metamodel().Name() != e.kind.Metamodel.Name() {
		return nil, fmt.Errorf("model of metamodel %q cannot be edited by kind %s", m.Metamodel().Name(), e.kind.Name)
	}
	if !m.IsKindOf(target, e.registry.Description().DomainType) {
		return nil, fmt.Errorf("diagram target %q is not a %s: %w", target, e.registry.Description().DomainType, domain.ErrElementNotFound)
	}
	s, err := e.runtime.Open(ctx, m, sessionID, target)
	if err != nil {
		return nil, err
	}
	if err := e.sessions.Save(ctx, sessionID, s); err != nil {
		return nil, err
	}
	e.logger.Debug("session opened", "session_id", sessionID, "target", target, "views", len(s.Diagram.AllNodes()))
	return s.Diagram, nil
}

// DefaultTarget returns the element Open would target.
func (e *Engine) DefaultTarget(m *model.Model) (model.ID, error) {
	typ := e.registry.Description().DomainType
	var target model.ID
	m.Walk(m.Root().ID(), func(el *model.Element) bool {
		if target != "" {
			return false
		}
		if m.IsKindOf(el.ID(), typ) {
			target = el.ID()
			return false
		}
		return true
	})
	if target == "" {
		return "", fmt.Errorf("no %s to open a %s diagram on: %w", typ, e.kind.Name, domain.ErrElementNotFound)
	}
	return target, nil
}

// Diagram returns the current diagram of a session.
func (e *Engine) Diagram(ctx context.Context, sessionID string) (*domain.Diagram, error) {
	s, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Diagram, nil
}

// Session returns a copy of the model and diagram of a session.
func (e *Engine) Session(ctx context.Context, sessionID string) (*runtime.Session, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Close ends a session and forgets its state.
func (e *Engine) Close(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// List returns the ids of the stored sessions.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Render re-renders the whole diagram of a session, e.g. after the model was changed
// outside the engine.
func (e *Engine) Render(ctx context.Context, sessionID string) (*domain.Diagram, error) {
	var d *domain.Diagram
	err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, s *runtime.Session) (bool, error) {
		if err := e.runtime.Render(ctx, s); err != nil {
			return false, err
		}
		d = s.Diagram
		return true, nil
	})
	return d, err
}

// CreateNode runs a node creation tool.
func (e *Engine) CreateNode(ctx context.Context, sessionID string, req domain.CreateNodeRequest) domain.Status {
	return e.apply(ctx, sessionID, func(ctx context.Context, s *runtime.Session) domain.Status {
		return e.runtime.CreateNode(ctx, s, req)
	})
}

// CreateEdge runs an edge creation tool.
func (e *Engine) CreateEdge(ctx context.Context, sessionID string, req domain.CreateEdgeRequest) domain.Status {
	return e.apply(ctx, sessionID, func(ctx context.Context, s *runtime.Session) domain.Status {
		return e.runtime.CreateEdge(ctx, s, req)
	})
}

// Delete runs the delete tool of a view.
func (e *Engine) Delete(ctx context.Context, sessionID string, req domain.DeleteRequest) domain.Status {
	return e.apply(ctx, sessionID, func(ctx context.Context, s *runtime.Session) domain.Status {
		return e.runtime.Delete(ctx, s, req)
	})
}

// Reconnect moves one end of an edge.
func (e *Engine) Reconnect(ctx context.Context, sessionID string, req domain.ReconnectRequest) domain.Status {
	return e.apply(ctx, sessionID, func(ctx context.Context, s *runtime.Session) domain.Status {
		return e.runtime.Reconnect(ctx, s, req)
	})
}

// DirectEdit edits the label (and tool parameters) of a view.
func (e *Engine) DirectEdit(ctx context.Context, sessionID string, req domain.DirectEditRequest) domain.Status {
	return e.apply(ctx, sessionID, func(ctx context.Context, s *runtime.Session) domain.Status {
		return e.runtime.DirectEdit(ctx, s, req)
	})
}

// HandleDrop drops a semantic element on a view or on the diagram background.
func (e *Engine) HandleDrop(ctx context.Context, sessionID string, req domain.DropRequest) domain.Status {
	return e.apply(ctx, sessionID, func(ctx context.Context, s *runtime.Session) domain.Status {
		return e.runtime.HandleDrop(ctx, s, req)
	})
}

// apply runs op on a locked session and persists it when op changed something.
// The diff of a change is computed before the lock is released.
func (e *Engine) apply(ctx context.Context, sessionID string, op func(context.Context, *runtime.Session) domain.Status) domain.Status {
	var st domain.Status
	err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, s *runtime.Session) (bool, error) {
		before := s.Diagram
		st = op(ctx, s)
		changed := st.Success && st.Change != domain.ChangeNone
		if changed {
			st.Diff = domain.Diff(before, s.Diagram)
		}
		return changed, nil
	})
	if err != nil {
		return domain.Failure(err)
	}
	return st
}
