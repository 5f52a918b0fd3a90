package results

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for one run. All methods are
// no-ops on a nil *Metrics.
type Metrics struct {
	registry    *prometheus.Registry
	tasksTotal  *prometheus.CounterVec
	taskSeconds *prometheus.HistogramVec
	retries     prometheus.Counter
	active      prometheus.Gauge
	peak        prometheus.Gauge

	peakValue int
	current   int
}

// NewMetrics registers the run's collectors on a fresh registry. Every
// series carries run_id as a constant label.
func NewMetrics(namespace, runID string) *Metrics {
	reg := prometheus.NewRegistry()
	wrapped := prometheus.WrapRegistererWith(prometheus.Labels{"run_id": runID}, reg)

	m := &Metrics{
		registry: reg,
		tasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_total",
				Help:      "Overlay tasks finished, by outcome",
			},
			[]string{"outcome"},
		),
		taskSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_duration_seconds",
				Help:      "Wall time of one overlay task",
				Buckets:   []float64{.5, 1, 5, 10, 30, 60, 120, 300, 900},
			},
			[]string{"outcome"},
		),
		retries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_retries_total",
				Help:      "Attempts repeated after a transient failure",
			},
		),
		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "workers_active",
				Help:      "Tasks currently running",
			},
		),
		peak: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "workers_peak",
				Help:      "Highest number of tasks running at once",
			},
		),
	}

	wrapped.MustRegister(m.tasksTotal, m.taskSeconds, m.retries, m.active, m.peak)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Observe counts a finished task.
func (m *Metrics) Observe(r Result) {
	if m == nil {
		return
	}
	label := r.Outcome.String()
	m.tasksTotal.WithLabelValues(label).Inc()
	m.taskSeconds.WithLabelValues(label).Observe(r.Elapsed.Seconds())
}

// Retry counts one repeated attempt.
func (m *Metrics) Retry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// TaskStarted and TaskFinished track pool occupancy. The pool calls them
// under its own lock.
func (m *Metrics) TaskStarted() {
	if m == nil {
		return
	}
	m.current++
	m.active.Set(float64(m.current))
	if m.current > m.peakValue {
		m.peakValue = m.current
		m.peak.Set(float64(m.peakValue))
	}
}

// TaskFinished is the counterpart of TaskStarted.
func (m *Metrics) TaskFinished() {
	if m == nil {
		return
	}
	m.current--
	m.active.Set(float64(m.current))
}

// WriteFile writes the text exposition of every series to path, in the
// node_exporter textfile format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
