/*
Package metrics provides Prometheus metrics collection and exposition for
edgefuncd.

Metrics are registered at package init and exposed over /metrics for
scraping. They cover runtime slot occupancy, worker lifecycle, request
queue depth, reconciliation cycles, KV operation latency, and HTTP request
counts by status.

# Core Components

Gauges: AppsTotal, WorkersLive, RequestQueueDepth.
Counters: WorkerSpawnsTotal, WorkerIdleReapsTotal, ReconcileCyclesTotal,
HTTPRequestsTotal.
Histograms: ReconcileDuration, KVOpDuration.
Timer: a small helper for observing elapsed time into a histogram, used
with defer at the top of timed operations.

# Usage

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReconcileDuration)
	metrics.ReconcileCyclesTotal.Inc()
*/
package metrics
