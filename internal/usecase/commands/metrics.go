package commands

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opshub_webhooks_received_total",
		Help: "First-time webhook deliveries logged, by provider and event type.",
	}, []string{"provider", "event_type"})

	webhooksDuplicate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opshub_webhooks_duplicate_total",
		Help: "Redeliveries short-circuited by the idempotency log, by provider.",
	}, []string{"provider"})

	webhooksStale = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opshub_webhooks_stale_total",
		Help: "Out-of-order state notifications ignored, by provider.",
	}, []string{"provider"})

	tokenRedemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opshub_token_redemptions_total",
		Help: "Token redemption attempts, by kind and outcome.",
	}, []string{"kind", "outcome"})
)
