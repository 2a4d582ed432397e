package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProducerMessagesPublished counts audit events accepted by the broker.
	ProducerMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adminctl",
			Subsystem: "audit",
			Name:      "events_published_total",
			Help:      "Audit events written to Kafka.",
		},
		[]string{"topic"},
	)

	ProducerPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adminctl",
			Subsystem: "audit",
			Name:      "publish_errors_total",
			Help:      "Audit events Kafka refused or never acknowledged.",
		},
		[]string{"topic"},
	)

	ProducerPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "adminctl",
			Subsystem: "audit",
			Name:      "publish_duration_seconds",
			Help:      "Time to write one audit event, including broker acks.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"topic"},
	)
)
