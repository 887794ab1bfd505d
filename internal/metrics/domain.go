package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DomainChecksTotal counts verification passes by overall outcome.
	DomainChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_domain_checks_total",
			Help: "Mail domain DNS verification passes by outcome",
		},
		[]string{"outcome"},
	)

	// DomainChecksEnqueuedTotal counts domain check jobs handed to the queue.
	DomainChecksEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_domain_checks_enqueued_total",
			Help: "Mail domain check jobs enqueued by trigger",
		},
		[]string{"trigger"},
	)
)

// ActivityDuration tracks worker activity latency by activity name and outcome.
var ActivityDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mail_dns_activity_duration_seconds",
		Help:    "Temporal activity execution time",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"activity", "outcome"},
)
