package server

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"checkeasy-report/models"
)

var (
	once sync.Once

	// SourceFetchTotal counts upstream fetches by source and outcome.
	SourceFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkeasy",
		Subsystem: "report",
		Name:      "source_fetch_total",
		Help:      "Total number of upstream source fetches, labeled by source and result.",
	}, []string{"source", "result"})

	// SourceFetchDurationSeconds is the time spent on one upstream fetch.
	SourceFetchDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "checkeasy",
		Subsystem: "report",
		Name:      "source_fetch_duration_seconds",
		Help:      "Time to fetch one upstream source.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})

	// SynthesisTotal counts documents built from the bundle because their
	// source was unavailable.
	SynthesisTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkeasy",
		Subsystem: "report",
		Name:      "synthesis_total",
		Help:      "Total number of synthesized documents, labeled by dataset.",
	}, []string{"dataset"})

	// DispatchTotal counts actions posted to the backend.
	DispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkeasy",
		Subsystem: "report",
		Name:      "dispatch_total",
		Help:      "Total number of dispatched page actions, labeled by action and result.",
	}, []string{"action", "result"})
)

// Register registers the service metrics with the default Prometheus
// registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			SourceFetchTotal,
			SourceFetchDurationSeconds,
			SynthesisTotal,
			DispatchTotal,
		)
	})
}

// Metrics records load and dispatch events in the Prometheus collectors.
type Metrics struct{}

// NewMetrics registers the collectors and returns a recorder.
func NewMetrics() *Metrics {
	Register()
	return &Metrics{}
}

func (m *Metrics) ObserveFetch(source string, status models.SourceStatus, elapsed time.Duration) {
	SourceFetchTotal.WithLabelValues(source, string(status)).Inc()
	SourceFetchDurationSeconds.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSynthesis(dataset string) {
	SynthesisTotal.WithLabelValues(dataset).Inc()
}

func (m *Metrics) ObserveDispatch(action string, ok bool) {
	result := "success"
	if !ok {
		result = "error"
	}
	DispatchTotal.WithLabelValues(action, result).Inc()
}
