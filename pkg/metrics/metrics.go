// Package metrics exposes render statistics as Prometheus collectors.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"spectralviz/internal/models"
)

// Recorder owns a private registry so several renderers, or tests, never
// collide on the global default registry.
type Recorder struct {
	registry *prometheus.Registry

	// Pixel throughput
	PixelsEvaluated *prometheus.CounterVec

	// Output rule selection counts
	RuleHits *prometheus.CounterVec

	// Layer metrics
	LayersRendered *prometheus.CounterVec
	LayerDuration  *prometheus.HistogramVec

	// Worker pool
	ActiveWorkers prometheus.Gauge
}

// NewRecorder registers the collectors on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		PixelsEvaluated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spectralviz_pixels_evaluated_total",
			Help: "Total number of pixels evaluated per algorithm",
		}, []string{"algorithm"}),

		RuleHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spectralviz_rule_hits_total",
			Help: "Number of pixels that selected each output rule",
		}, []string{"algorithm", "rule"}),

		LayersRendered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spectralviz_layers_rendered_total",
			Help: "Number of layers produced per algorithm",
		}, []string{"algorithm"}),

		LayerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spectralviz_layer_duration_seconds",
			Help:    "Wall time spent producing one layer",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"algorithm"}),

		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "spectralviz_active_workers",
			Help: "Workers currently evaluating row partitions",
		}),
	}
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveLayer records the size, rule selection and duration of a finished layer.
func (r *Recorder) ObserveLayer(layer *models.Layer, d time.Duration) {
	r.PixelsEvaluated.WithLabelValues(layer.Name).Add(float64(layer.Width * layer.Height))
	for rule, n := range layer.RuleHits {
		r.RuleHits.WithLabelValues(layer.Name, rule).Add(float64(n))
	}
	r.LayersRendered.WithLabelValues(layer.Name).Inc()
	r.LayerDuration.WithLabelValues(layer.Name).Observe(d.Seconds())
}

// SetActiveWorkers updates the worker gauge.
func (r *Recorder) SetActiveWorkers(n int) {
	r.ActiveWorkers.Set(float64(n))
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
