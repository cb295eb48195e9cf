// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ComplaintSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "complaintdesk_complaint_submitted_total",
		Help: "Complaints accepted by the submission endpoint.",
	}, []string{"category"})

	ComplaintTransitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "complaintdesk_complaint_transition_total",
		Help: "Committed complaint status transitions.",
	}, []string{"from", "to"})

	ComplaintDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "complaintdesk_complaint_deleted_total",
		Help: "Complaints hard-deleted by administrators.",
	})

	HistoryWriteFailureTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "complaintdesk_history_write_failure_total",
		Help: "Mutations whose change-history write failed after the row update succeeded.",
	})

	ConflictTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "complaintdesk_update_conflict_total",
		Help: "Updates rejected because the complaint version changed.",
	})

	NotificationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "complaintdesk_notification_total",
		Help: "Outbound notifications by kind and outcome.",
	}, []string{"kind", "status"})

	NotificationQueueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "complaintdesk_notification_queue_size",
		Help: "Notifications waiting in the dispatcher queue.",
	})

	LiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "complaintdesk_live_clients",
		Help: "Connected dashboard WebSocket clients.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "complaintdesk_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route", "status"})
)

func RecordTransition(from, to string) {
	ComplaintTransitionTotal.WithLabelValues(from, to).Inc()
}

func RecordNotification(kind, status string) {
	NotificationTotal.WithLabelValues(kind, status).Inc()
}

func UpdateNotificationQueueSize(size int) {
	NotificationQueueSize.Set(float64(size))
}
