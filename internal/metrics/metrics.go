// Package metrics provides Prometheus metrics for the salon service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "salon",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SalonsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "salons_created_total",
			Help:      "Salons created, by protocol type",
		},
		[]string{"protocol_type"},
	)

	UserMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "user_messages_total",
			Help:      "User messages persisted",
		},
	)

	AgentMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "agent_messages_total",
			Help:      "Agent messages persisted, by role",
		},
		[]string{"role"},
	)

	RealtimeSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "salon",
			Subsystem: "realtime",
			Name:      "subscribers",
			Help:      "Currently connected transcript subscribers",
		},
	)

	RealtimeDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "realtime",
			Name:      "dropped_events_total",
			Help:      "Change events dropped because a subscriber buffer was full",
		},
	)

	ChangePublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "realtime",
			Name:      "publish_errors_total",
			Help:      "Change events that could not be published to the broker",
		},
	)
)
