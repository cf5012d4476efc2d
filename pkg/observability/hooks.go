package observability

import (
	"context"
	"log/slog"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
)

// Combine returns hooks calling every given hook set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, s := range sets {
		if s.OnRender != nil {
			prev, next := out.OnRender, s.OnRender
			out.OnRender = func(ctx context.Context, e *domain.RenderEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if s.OnEdit != nil {
			prev, next := out.OnEdit, s.OnEdit
			out.OnEdit = func(ctx context.Context, e *domain.EditEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
	}
	return out
}

// LoggingHooks logs renders at debug level and operations at info level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			attrs := []any{"diagram_id", e.DiagramID, "incremental", e.Incremental, "duration", e.Duration}
			if e.Scope != "" {
				attrs = append(attrs, "scope", e.Scope)
			}
			if e.Diff != nil {
				attrs = append(attrs, "added", len(e.Diff.Added), "updated", len(e.Diff.Updated), "removed", len(e.Diff.Removed))
			}
			logger.DebugContext(ctx, "render", attrs...)
		},
		OnEdit: func(ctx context.Context, e *domain.EditEvent) {
			logger.InfoContext(ctx, string(e.Type),
				"diagram_id", e.DiagramID,
				"operation", e.Operation,
				"success", e.Status.Success,
				"change", e.Status.Change,
				"code", e.Status.Code,
				"duration", e.Duration,
			)
		},
	}
}
