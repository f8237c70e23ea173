package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedEnrichmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "congregate_feed_enrichment_failures_total",
		Help: "Candidate items dropped from the For You feed because their tags could not be resolved.",
	}, []string{"content_type"})

	PushDeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "congregate_push_delivery_failures_total",
		Help: "Push notifications that could not be delivered to a device token.",
	})

	EmailDeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "congregate_email_delivery_failures_total",
		Help: "Transactional emails the provider rejected.",
	}, []string{"template"})
)
