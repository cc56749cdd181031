package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the composer service
type Metrics struct {
	SessionsStarted    prometheus.Counter
	SlidesAccepted     prometheus.Counter
	SlidesRejected     prometheus.Counter
	SnapshotsTotal     prometheus.Counter
	CheckpointsTotal   prometheus.Counter
	CheckpointFailures prometheus.Counter

	PublishesTotal  *prometheus.CounterVec
	PublishDuration prometheus.Histogram

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics, registering them on first use
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
				Name: "composer_sessions_started_total",
				Help: "Number of composition sessions created",
			}),
			SlidesAccepted: promauto.NewCounter(prometheus.CounterOpts{
				Name: "composer_slides_accepted_total",
				Help: "Slides accepted by upload validation",
			}),
			SlidesRejected: promauto.NewCounter(prometheus.CounterOpts{
				Name: "composer_slides_rejected_total",
				Help: "Files rejected by upload validation",
			}),
			SnapshotsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "composer_canvas_snapshots_total",
				Help: "Canvas history snapshots recorded",
			}),
			CheckpointsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "composer_draft_checkpoints_total",
				Help: "Draft checkpoints written",
			}),
			CheckpointFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "composer_draft_checkpoint_failures_total",
				Help: "Draft checkpoint writes that failed",
			}),
			PublishesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "composer_publishes_total",
				Help: "Publish attempts by outcome",
			}, []string{"status"}),
			PublishDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "composer_publish_duration_seconds",
				Help:    "End-to-end publish latency",
				Buckets: prometheus.DefBuckets,
			}),
			HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by method, path and status",
			}, []string{"method", "path", "status"}),
			HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "path", "status"}),
		}
	})
	return instance
}
