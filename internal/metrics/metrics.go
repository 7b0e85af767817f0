package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drivepulse_events_accepted_total",
		Help: "Total number of events validated and appended to the log.",
	})

	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drivepulse_events_rejected_total",
		Help: "Total number of events rejected at validation, labelled by error code.",
	}, []string{"code"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drivepulse_events_dropped_total",
		Help: "Total number of events rejected due to a full ingest queue.",
	})

	FoldsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drivepulse_folds_applied_total",
		Help: "Total number of events folded into the dashboard state, labelled by kind.",
	}, []string{"kind"})

	AlertsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drivepulse_alerts_fired_total",
		Help: "Total number of alert rule firings, labelled by rule ID.",
	}, []string{"rule_id"})

	BroadcastDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drivepulse_broadcast_dropped_total",
		Help: "Total number of updates dropped from slow subscriber queues.",
	})

	BroadcastSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drivepulse_broadcast_subscribers",
		Help: "Current number of broadcast subscribers.",
	})

	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "drivepulse_ingest_duration_ms",
		Help:    "End-to-end ingest latency (validate, append, fold) in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drivepulse_ingest_queue_utilization_ratio",
		Help: "Current ingest queue utilization (0–1).",
	})
)
