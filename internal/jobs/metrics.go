package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opshub_jobs_enqueued_total",
		Help: "Jobs enqueued, by type.",
	}, []string{"type"})

	jobsSucceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opshub_jobs_succeeded_total",
		Help: "Jobs that completed successfully, by type.",
	}, []string{"type"})

	jobsRetried = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opshub_jobs_retried_total",
		Help: "Job attempts that failed and were re-armed for retry, by type.",
	}, []string{"type"})

	jobsTerminal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opshub_jobs_failed_terminal_total",
		Help: "Jobs parked for operator review after exhausting attempts, by type.",
	}, []string{"type"})

	jobsCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opshub_jobs_cancelled_total",
		Help: "Pending jobs cancelled before lease, by type.",
	}, []string{"type"})

	busyWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "opshub_queue_busy_workers",
		Help: "Workers currently executing a job attempt.",
	})
)
