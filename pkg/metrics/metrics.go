package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PayloadsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_payloads_received_total",
		Help: "Total number of webhook payloads received at the intake endpoint.",
	})

	PayloadsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_payloads_rejected_total",
		Help: "Total number of rejected payloads, labelled by reason.",
	}, []string{"reason"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_queue_depth",
		Help: "Number of accepted payloads waiting to be processed.",
	})

	DisputesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_disputes_decoded_total",
		Help: "Total number of dispute events decoded into notifications.",
	})

	ActivitySkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_activity_skipped_total",
		Help: "Total number of activity items skipped (undecodable or other event types).",
	})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_notifications_sent_total",
		Help: "Total number of notifications delivered, labelled by sink.",
	}, []string{"sink"})

	NotificationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_notification_errors_total",
		Help: "Total number of failed sink deliveries, labelled by sink.",
	}, []string{"sink"})

	ProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relay_process_duration_seconds",
		Help:    "End-to-end processing latency per payload in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)
