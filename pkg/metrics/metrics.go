package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AppsTotal is the number of Apps currently known to the runtime fabric.
	AppsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "edgefunc_apps_total",
			Help: "Total number of apps known to the runtime",
		},
	)

	// WorkersLive is the number of runtime slots currently holding a live
	// worker, labeled by tenant.
	WorkersLive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "edgefunc_workers_live",
			Help: "Runtime slots currently holding a live worker, by tenant",
		},
		[]string{"tenant_id"},
	)

	// WorkerSpawnsTotal counts every time a worker goroutine is started.
	WorkerSpawnsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "edgefunc_worker_spawns_total",
			Help: "Total number of worker goroutines spawned",
		},
	)

	// WorkerIdleReapsTotal counts idle-timeout worker teardowns.
	WorkerIdleReapsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "edgefunc_worker_idle_reaps_total",
			Help: "Total number of workers torn down after the idle timeout",
		},
	)

	// RequestQueueDepth is sampled on enqueue/dequeue of a worker's request
	// queue, labeled by tenant.
	RequestQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "edgefunc_request_queue_depth",
			Help: "Current depth of a worker's pending request queue, by tenant",
		},
		[]string{"tenant_id"},
	)

	// ReconcileCyclesTotal counts Deployment Loader reconciliation cycles.
	ReconcileCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "edgefunc_reconcile_cycles_total",
			Help: "Total number of reconciliation cycles completed",
		},
	)

	// ReconcileDuration times a single reconciliation cycle.
	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edgefunc_reconcile_duration_seconds",
			Help:    "Time taken for a reconciliation cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// KVOpDuration times KV store operations, labeled by operation name
	// (set/get/delete/clear/all).
	KVOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edgefunc_kv_op_duration_seconds",
			Help:    "KV store operation duration in seconds, by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// HTTPRequestsTotal counts requests handled by the Request Router,
	// labeled by the resulting status code.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgefunc_http_requests_total",
			Help: "Total number of HTTP requests handled, by status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		AppsTotal,
		WorkersLive,
		WorkerSpawnsTotal,
		WorkerIdleReapsTotal,
		RequestQueueDepth,
		ReconcileCyclesTotal,
		ReconcileDuration,
		KVOpDuration,
		HTTPRequestsTotal,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
