package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opshub_events_published_total",
		Help: "Domain events published, by type.",
	}, []string{"type"})

	handlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opshub_event_handler_failures_total",
		Help: "Event handler errors and panics trapped at the bus boundary.",
	}, []string{"type", "handler"})
)
