package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sproutbook_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// AccessDecisions counts access policy evaluations by outcome
	// (allowed|denied_permission|denied_not_unlocked).
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sproutbook_access_decisions_total",
			Help: "Total number of access policy decisions",
		},
		[]string{"verdict"},
	)

	// InvitationsIssued counts invitation tokens generated.
	InvitationsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sproutbook_invitations_issued_total",
			Help: "Total number of invitations issued",
		},
	)

	// InvitationsAccepted counts invitation acceptances by result
	// (accepted|expired|already_accepted|error).
	InvitationsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sproutbook_invitations_accepted_total",
			Help: "Total number of invitation acceptance attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sproutbook_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
