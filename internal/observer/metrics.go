package observer

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	feedEventLabels   = []string{"event_type"}
	feedActionLabels  = []string{"event_type", "action", "error_type"}
	dbOperationLabels = []string{"operation", "entity", "status"}
	mutationLabels    = []string{"mutation", "status"}
	intakeTaskLabels  = []string{"source_type", "outcome"}
	httpLabels        = []string{"method", "route", "code"}

	// Changefeed counters
	FeedEventsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_feed_events_received_total",
			Help: "Total number of changefeed events received from NATS.",
		},
		feedEventLabels,
	)
	FeedEventsAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_feed_events_applied_total",
			Help: "Total number of changefeed events folded into the board snapshot.",
		},
		feedEventLabels,
	)
	FeedEventsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_feed_events_failed_total",
			Help: "Total number of changefeed events that failed processing.",
		},
		feedEventLabels,
	)
	FeedEventActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_feed_event_actions_total",
			Help: "Count of ack/nak/term actions taken after event processing, labeled by error type.",
		},
		feedActionLabels,
	)
	FeedEventProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_leads_feed_event_processing_duration_seconds",
			Help:    "Histogram of changefeed event processing durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		feedEventLabels,
	)

	// Board derivation
	BoardDerivationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_leads_board_derivations_total",
		Help: "Total number of board view recomputations.",
	})
	BoardDerivationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crm_leads_board_derivation_duration_seconds",
		Help:    "Histogram of board view derivation durations.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	})
	BoardSnapshotSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crm_leads_board_snapshot_size",
		Help: "Current number of leads held in the board snapshot.",
	})

	// Reconciler mutations
	ReconcilerMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_reconciler_mutations_total",
			Help: "Total number of assignment/status mutations issued by the reconciler.",
		},
		mutationLabels,
	)

	// Database operations
	DbOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_leads_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		dbOperationLabels,
	)

	// Intake worker pool
	IntakeTasksSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_leads_intake_tasks_submitted_total",
		Help: "Total number of inquiry intake tasks submitted to the worker pool.",
	})
	IntakeTasksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_intake_tasks_processed_total",
			Help: "Total number of inquiry intake tasks processed, labeled by outcome.",
		},
		intakeTaskLabels,
	)
	IntakeQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crm_leads_intake_queue_length",
		Help: "Approximate number of tasks waiting in the intake worker pool.",
	})
	IntakeDedupeChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_intake_dedupe_checks_total",
			Help: "Total dedupe filter checks, labeled by filter and result.",
		},
		[]string{"filter", "result"},
	)

	// HTTP API
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_leads_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		httpLabels,
	)

	// Load generator
	LoadgenMessagesAttemptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_loadgen_messages_attempted_total",
			Help: "Total number of load generator messages attempted, labeled by subject.",
		},
		[]string{"subject"},
	)
	LoadgenMessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_loadgen_messages_published_total",
			Help: "Total number of load generator messages published, labeled by subject.",
		},
		[]string{"subject"},
	)
	LoadgenPublishErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_loadgen_publish_errors_total",
			Help: "Total number of load generator publish errors, labeled by subject.",
		},
		[]string{"subject"},
	)
)

// InitMetrics enables or disables metric collection globally.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// IncFeedEventReceived increments the received counter for an event type.
func IncFeedEventReceived(eventType string) {
	if !metricsEnabled {
		return
	}
	FeedEventsReceivedTotal.WithLabelValues(eventType).Inc()
}

// IncFeedEventApplied increments the applied counter for an event type.
func IncFeedEventApplied(eventType string) {
	if !metricsEnabled {
		return
	}
	FeedEventsAppliedTotal.WithLabelValues(eventType).Inc()
}

// IncFeedEventFailed increments the failed counter for an event type.
func IncFeedEventFailed(eventType string) {
	if !metricsEnabled {
		return
	}
	FeedEventsFailedTotal.WithLabelValues(eventType).Inc()
}

// IncFeedEventAction records the ack/nak/term action taken for an event.
// The error type is derived from the error's leading token, or "none".
func IncFeedEventAction(eventType, action string, err error) {
	if !metricsEnabled {
		return
	}
	errorType := "none"
	if err != nil {
		errorType = strings.SplitN(err.Error(), ":", 2)[0]
	}
	FeedEventActionsTotal.WithLabelValues(eventType, action, errorType).Inc()
}

// ObserveFeedEventProcessing records the duration of one event's processing.
func ObserveFeedEventProcessing(eventType string, d time.Duration) {
	if !metricsEnabled {
		return
	}
	FeedEventProcessingDurationSeconds.WithLabelValues(eventType).Observe(d.Seconds())
}

// ObserveBoardDerivation records one view recomputation.
func ObserveBoardDerivation(d time.Duration, snapshotSize int) {
	if !metricsEnabled {
		return
	}
	BoardDerivationsTotal.Inc()
	BoardDerivationDurationSeconds.Observe(d.Seconds())
	BoardSnapshotSize.Set(float64(snapshotSize))
}

// IncReconcilerMutation counts an assign/status mutation and its outcome.
func IncReconcilerMutation(mutation string, err error) {
	if !metricsEnabled {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	ReconcilerMutationsTotal.WithLabelValues(mutation, status).Inc()
}

// ObserveDbOperationDuration records the duration of a database operation.
func ObserveDbOperationDuration(operation, entity string, d time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	DbOperationDurationSeconds.WithLabelValues(operation, entity, status).Observe(d.Seconds())
}

// IncIntakeTaskSubmitted counts a task handed to the intake pool.
func IncIntakeTaskSubmitted() {
	if !metricsEnabled {
		return
	}
	IntakeTasksSubmittedTotal.Inc()
}

// IncIntakeTaskProcessed counts a finished intake task by outcome.
func IncIntakeTaskProcessed(sourceType, outcome string) {
	if !metricsEnabled {
		return
	}
	IntakeTasksProcessedTotal.WithLabelValues(sourceType, outcome).Inc()
}

// SetIntakeQueueLength publishes the approximate intake queue depth.
func SetIntakeQueueLength(n int) {
	if !metricsEnabled {
		return
	}
	IntakeQueueLength.Set(float64(n))
}

// IncDedupeCheck counts a dedupe filter check.
func IncDedupeCheck(filter, result string) {
	if !metricsEnabled {
		return
	}
	IntakeDedupeChecksTotal.WithLabelValues(filter, result).Inc()
}

// ObserveHTTPRequest records one HTTP request's duration.
func ObserveHTTPRequest(method, route, code string, d time.Duration) {
	if !metricsEnabled {
		return
	}
	HTTPRequestDurationSeconds.WithLabelValues(method, route, code).Observe(d.Seconds())
}

// IncLoadgenMessagesAttempted counts a load generator message attempt.
func IncLoadgenMessagesAttempted(subject string) {
	if !metricsEnabled {
		return
	}
	LoadgenMessagesAttemptedTotal.WithLabelValues(subject).Inc()
}

// IncLoadgenMessagesPublished counts a successful load generator publish.
func IncLoadgenMessagesPublished(subject string) {
	if !metricsEnabled {
		return
	}
	LoadgenMessagesPublishedTotal.WithLabelValues(subject).Inc()
}

// IncLoadgenPublishErrors counts a failed load generator publish.
func IncLoadgenPublishErrors(subject string) {
	if !metricsEnabled {
		return
	}
	LoadgenPublishErrorsTotal.WithLabelValues(subject).Inc()
}
