package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/observability"
)

// counter reads a counter of the registry by collector field and label values.
func counter(t *testing.T, reg *prometheus.Registry, field string, values ...string) float64 {
	t.Helper()
	names := map[string]string{
		"Renders":     "papyrus_renders_total",
		"ViewChanges": "papyrus_view_changes_total",
		"Edits":       "papyrus_operations_total",
	}
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != names[field] {
			continue
		}
	metrics:
		for _, metric := range mf.GetMetric() {
			labels := metric.GetLabel()
			if len(labels) != len(values) {
				continue
			}
			for i, l := range labels {
				if l.GetValue() != values[i] {
					continue metrics
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnRender(ctx, &domain.RenderEvent{
		Diff:     &domain.DiagramDiff{Added: []string{"a", "b"}, Removed: []string{"c"}},
		Duration: time.Millisecond,
	})
	hooks.OnRender(ctx, &domain.RenderEvent{Incremental: true})
	hooks.OnEdit(ctx, &domain.EditEvent{Operation: "delete", Status: domain.Success(domain.ChangeSemantic, nil)})
	hooks.OnEdit(ctx, &domain.EditEvent{Operation: "delete", Status: domain.Failure(domain.ErrPermissionDenied)})

	assert.Equal(t, 1.0, counter(t, reg, "Renders", "false"))
	assert.Equal(t, 1.0, counter(t, reg, "Renders", "true"))
	assert.Equal(t, 2.0, counter(t, reg, "ViewChanges", "added"))
	assert.Equal(t, 1.0, counter(t, reg, "ViewChanges", "removed"))
	assert.Equal(t, 1.0, counter(t, reg, "Edits", "delete", "semantic"))
	assert.Equal(t, 1.0, counter(t, reg, "Edits", "delete", "permission_denied"))

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err, "collectors cannot be registered twice")
}

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnEdit: func(context.Context, *domain.EditEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnEdit:   func(context.Context, *domain.EditEvent) { calls = append(calls, "b") },
		OnRender: func(context.Context, *domain.RenderEvent) { calls = append(calls, "render") },
	}

	hooks := observability.Combine(a, domain.LifecycleHooks{}, b)
	hooks.OnEdit(context.Background(), &domain.EditEvent{})
	hooks.OnRender(context.Background(), &domain.RenderEvent{})
	assert.Equal(t, []string{"a", "b", "render"}, calls)

	assert.Nil(t, observability.Combine().OnEdit)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LoggingHooks(logger)

	hooks.OnEdit(context.Background(), &domain.EditEvent{
		EventBase: domain.EventBase{Type: domain.EventDrop, DiagramID: "d"},
		Operation: "drop",
		Status:    domain.Success(domain.ChangeNone, nil),
	})
	hooks.OnRender(context.Background(), &domain.RenderEvent{Scope: "v1", Incremental: true})

	out := buf.String()
	assert.Contains(t, out, "msg=drop")
	assert.Contains(t, out, "change=none")
	assert.Contains(t, out, "scope=v1")
}
