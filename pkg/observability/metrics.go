package observability

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
)

// Metrics holds the collectors fed by the engine hooks.
type Metrics struct {
	Renders        *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec
	ViewChanges    *prometheus.CounterVec
	Edits          *prometheus.CounterVec
	EditDuration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papyrus_renders_total",
				Help: "Total number of diagram renders",
			},
			[]string{"incremental"},
		),
		RenderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "papyrus_render_duration_seconds",
				Help:    "Duration of diagram renders",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"incremental"},
		),
		ViewChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papyrus_view_changes_total",
				Help: "Views added, updated or removed by renders",
			},
			[]string{"change"},
		),
		Edits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papyrus_operations_total",
				Help: "Edit and drop operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		EditDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "papyrus_operation_duration_seconds",
				Help:    "Duration of edit and drop operations, render included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	for _, c := range []prometheus.Collector{m.Renders, m.RenderDuration, m.ViewChanges, m.Edits, m.EditDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(_ context.Context, e *domain.RenderEvent) {
			inc := strconv.FormatBool(e.Incremental)
			m.Renders.WithLabelValues(inc).Inc()
			m.RenderDuration.WithLabelValues(inc).Observe(e.Duration.Seconds())
			if e.Diff != nil {
				m.ViewChanges.WithLabelValues("added").Add(float64(len(e.Diff.Added)))
				m.ViewChanges.WithLabelValues("updated").Add(float64(len(e.Diff.Updated)))
				m.ViewChanges.WithLabelValues("removed").Add(float64(len(e.Diff.Removed)))
			}
		},
		OnEdit: func(_ context.Context, e *domain.EditEvent) {
			m.Edits.WithLabelValues(e.Operation, outcome(e.Status)).Inc()
			m.EditDuration.WithLabelValues(e.Operation).Observe(e.Duration.Seconds())
		},
	}
}

// outcome is the change kind of a success, or the failure code.
func outcome(st domain.Status) string {
	if st.Success {
		return string(st.Change)
	}
	if st.Code == "" {
		return "error"
	}
	return st.Code
}
