package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	TenancyTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenancy_transitions_total",
			Help: "Domain events applied to tenancy applications",
		},
		[]string{"event", "outcome"},
	)

	TokenRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenancy_token_rejections_total",
			Help: "Presented tokens rejected by reason",
		},
		[]string{"kind", "reason"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenancy_notifications_total",
			Help: "Notification attempts by channel and status",
		},
		[]string{"channel", "status"},
	)

	AuditWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenancy_audit_write_failures_total",
			Help: "Audit events that could not be written to a sink",
		},
		[]string{"sink"},
	)
)
