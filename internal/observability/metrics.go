package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cross_section"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Section engine metrics.
	SectionsComputed    prometheus.Counter
	ComputeDuration     prometheus.Histogram
	BlocksIntersected   prometheus.Histogram
	IntersectionMethods *prometheus.CounterVec // labels: method={chord,proximity}
	ElevationSamples    *prometheus.CounterVec // labels: outcome={measured,interpolated,missing}
	StageFailures       *prometheus.CounterVec // labels: stage={blocks,elevation,pit}
	ProjectionFailures  prometheus.Counter
	CacheLookups        *prometheus.CounterVec // labels: result={hit,miss}
	RequestsRejected    *prometheus.CounterVec // labels: transport={http,kafka}

	// Kafka worker metrics.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	TransformErrors         prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.SectionsComputed,
		m.ComputeDuration,
		m.BlocksIntersected,
		m.IntersectionMethods,
		m.ElevationSamples,
		m.StageFailures,
		m.ProjectionFailures,
		m.CacheLookups,
		m.RequestsRejected,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SectionsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sections_computed_total",
			Help:      "Total cross-sections computed (cache hits excluded).",
		}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Wall time of a full cross-section computation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		BlocksIntersected: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "blocks_intersected",
			Help:      "Number of blocks mapped onto a section line.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		IntersectionMethods: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intersections_total",
			Help:      "Intersected blocks by method.",
		}, []string{"method"}),
		ElevationSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elevation_samples_total",
			Help:      "Elevation profile samples by outcome.",
		}, []string{"outcome"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Stages that degraded to an empty result.",
		}, []string{"stage"}),
		ProjectionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projection_failures_total",
			Help:      "Coordinate transforms that failed and fell back to the original coordinates.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Section result cache lookups by result.",
		}, []string{"result"}),
		RequestsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_rejected_total",
			Help:      "Requests that failed decoding or validation, by transport.",
		}, []string{"transport"}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the request topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total messages written to the result topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total request messages that could not be turned into a section.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the Kafka worker is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-compute-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
