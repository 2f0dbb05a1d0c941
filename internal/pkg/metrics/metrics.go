package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuditEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govgate_audit_events_total",
		Help: "The total number of audit ledger appends",
	}, []string{"event_type"})

	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govgate_model_registrations_total",
		Help: "Model registrations processed",
	}, []string{"status"})

	ComplianceChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govgate_compliance_checks_total",
		Help: "Individual compliance check results",
	}, []string{"check", "status"})

	ApprovalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govgate_approvals_total",
		Help: "Approval workflow outcomes",
	}, []string{"outcome"})

	MirrorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govgate_ledger_mirror_failures_total",
		Help: "Best-effort ledger mirror write failures",
	}, []string{"mirror"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "govgate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
