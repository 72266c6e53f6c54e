// Package metrics provides Prometheus metrics for sync activity
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mirror "github.com/docmirror/docmirror/internal/mirror/sync"
)

// Metrics holds all Prometheus metrics for docmirror.
// Each instance owns its registry, so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	EventsTotal        *prometheus.CounterVec
	EventFailuresTotal *prometheus.CounterVec
	EventDuration      *prometheus.HistogramVec
	DocumentsDeleted   prometheus.Counter
}

var _ mirror.Listener = (*Metrics)(nil)

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docmirror_events_total",
				Help: "Total number of file events handled",
			},
			[]string{"op"},
		),
		EventFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docmirror_event_failures_total",
				Help: "Total number of file events dropped after a failure",
			},
			[]string{"op"},
		),
		EventDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docmirror_event_duration_seconds",
				Help:    "Time spent applying a file event to the store",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"op"},
		),
		DocumentsDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "docmirror_documents_deleted_total",
				Help: "Total number of documents removed by delete events",
			},
		),
	}
}

// OnEvent records one handled event.
func (m *Metrics) OnEvent(ev mirror.Event, outcome mirror.Outcome) {
	op := ev.Op.String()
	m.EventsTotal.WithLabelValues(op).Inc()
	m.EventDuration.WithLabelValues(op).Observe(outcome.Duration.Seconds())
	if outcome.Err != nil {
		m.EventFailuresTotal.WithLabelValues(op).Inc()
		return
	}
	if outcome.Removed > 0 {
		m.DocumentsDeleted.Add(float64(outcome.Removed))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
