package prometheus

import (
	"time"

	"fooddupe/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Tenant resolution metrics
	TenantResolutionCounter prometheus.CounterVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Order metrics
	OrderOperationsCounter  prometheus.CounterVec
	OrdersCreatedCounter    prometheus.CounterVec
	StatusTransitionCounter prometheus.CounterVec

	// Notification metrics
	NotifyPublishedCounter   prometheus.CounterVec
	NotifyDroppedCounter     prometheus.CounterVec
	NotifySubscribersGauge   prometheus.Gauge
	BrokerPublishErrorsTotal prometheus.Counter
)

var initialized bool

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	prefix := config.Metrics.Prefix
	initialized = true

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	TenantResolutionCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_resolutions_total",
			Help: "Total number of tenant resolution attempts by outcome",
		},
		[]string{"source", "outcome"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthErrorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"reason"},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	OrderOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation"},
	)

	OrdersCreatedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_orders_created_total",
			Help: "Total number of orders created per tenant and type",
		},
		[]string{"tenant", "type"},
	)

	StatusTransitionCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_status_transitions_total",
			Help: "Total number of order status transitions",
		},
		[]string{"status"},
	)

	NotifyPublishedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_notify_events_published_total",
			Help: "Total number of events published to the notification hub",
		},
		[]string{"event"},
	)

	NotifyDroppedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_notify_events_dropped_total",
			Help: "Total number of events dropped due to slow subscribers",
		},
		[]string{"event"},
	)

	NotifySubscribersGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_notify_subscribers",
			Help: "Current number of connected event stream subscribers",
		},
	)

	BrokerPublishErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_broker_publish_errors_total",
			Help: "Total number of failed AMQP publishes",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if !initialized {
			return
		}
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordTenantResolution increments the tenant resolution counter
func RecordTenantResolution(source, outcome string) {
	if !initialized {
		return
	}
	TenantResolutionCounter.WithLabelValues(source, outcome).Inc()
}

// RecordAuthAttempt increments the authentication attempt counter
func RecordAuthAttempt() {
	if !initialized {
		return
	}
	AuthAttemptsCounter.Inc()
}

// RecordAuthError increments the counter for authentication errors
func RecordAuthError(reason string) {
	if !initialized {
		return
	}
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordOrderOperation increments the counter for order operations
func RecordOrderOperation(operation string) {
	if !initialized {
		return
	}
	OrderOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordOrderCreated increments the per-tenant order creation counter
func RecordOrderCreated(tenant, orderType string) {
	if !initialized {
		return
	}
	OrdersCreatedCounter.WithLabelValues(tenant, orderType).Inc()
}

// RecordStatusTransition increments the status transition counter
func RecordStatusTransition(status string) {
	if !initialized {
		return
	}
	StatusTransitionCounter.WithLabelValues(status).Inc()
}

// RecordNotifyPublished increments the hub publish counter
func RecordNotifyPublished(event string) {
	if !initialized {
		return
	}
	NotifyPublishedCounter.WithLabelValues(event).Inc()
}

// RecordSubscriberConnected adjusts the subscriber gauge on connect
func RecordSubscriberConnected() {
	if !initialized {
		return
	}
	NotifySubscribersGauge.Inc()
}

// RecordSubscriberDisconnected adjusts the subscriber gauge on disconnect
func RecordSubscriberDisconnected() {
	if !initialized {
		return
	}
	NotifySubscribersGauge.Dec()
}

// RecordBrokerPublishError increments the failed AMQP publish counter
func RecordBrokerPublishError() {
	if !initialized {
		return
	}
	BrokerPublishErrorsTotal.Inc()
}

// RecordNotifyDropped increments the dropped event counter
func RecordNotifyDropped(event string) {
	if !initialized {
		return
	}
	NotifyDroppedCounter.WithLabelValues(event).Inc()
}
