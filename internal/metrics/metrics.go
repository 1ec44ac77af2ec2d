// Package metrics defines the Prometheus collectors the herd controller
// exposes, grouped the way the teacher groups its per-resource metric sets
// (one prometheus.Collector set per concern, registered together at
// startup).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const metricPrefix = "herd"

// reg registers every collector below directly against controller-runtime's
// metrics registry, the same registry the manager serves on /metrics, the
// way the teacher's CollectorCollection.Register does explicitly but
// without the intermediate DefaultRegisterer hop.
var reg = promauto.With(metrics.Registry)

var (
	// ReconcileTotal counts reconciliations per kind and outcome.
	ReconcileTotal = reg.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricPrefix,
			Subsystem: "reconciler",
			Name:      "reconcile_total",
			Help:      "Number of reconciliations, by resource kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// ReconcileDuration observes wall-clock time per reconciliation.
	ReconcileDuration = reg.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricPrefix,
			Subsystem: "reconciler",
			Name:      "reconcile_duration_seconds",
			Help:      "Time spent in a single reconciliation, by resource kind.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// PhaseGauge reports the current phase per (kind, namespace, name) as a
	// one-hot gauge set, mirroring the teacher's per-object state gauges.
	PhaseGauge = reg.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricPrefix,
			Subsystem: "workload",
			Name:      "phase",
			Help:      "Current phase of a Stack or Pipeline (1 for the active phase, 0 otherwise).",
		},
		[]string{"kind", "namespace", "name", "phase"},
	)

	// SchedulerBatchDuration observes how long one ready-node batch took to
	// apply, bounded by the scheduler's errgroup concurrency limit.
	SchedulerBatchDuration = reg.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricPrefix,
			Subsystem: "scheduler",
			Name:      "batch_duration_seconds",
			Help:      "Time spent applying one batch of ready DAG nodes.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// BundleWrites counts Bundle upserts by whether they were a no-op
	// (content hash unchanged), an update, or a create.
	BundleWrites = reg.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricPrefix,
			Subsystem: "bundlesynth",
			Name:      "writes_total",
			Help:      "Bundle upserts performed by the synthesizer, by result.",
		},
		[]string{"result"},
	)
)

// ObserveReconcile records one reconciliation's duration and outcome.
func ObserveReconcile(kind, outcome string, d time.Duration) {
	ReconcileTotal.WithLabelValues(kind, outcome).Inc()
	ReconcileDuration.WithLabelValues(kind).Observe(d.Seconds())
}
