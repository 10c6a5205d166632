// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeRejected   = "rejected"
	OutcomeSuppressed = "suppressed"
	OutcomeForwarded  = "forwarded"
	OutcomeFailed     = "failed"
)

var (
	// Registry is the registry served by Handler. Tests may read from it.
	Registry = prometheus.NewRegistry()

	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contact",
			Name:      "submissions_total",
			Help:      "Contact submissions by final outcome.",
		},
		[]string{"outcome"},
	)

	BotScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "contact",
			Name:      "bot_score",
			Help:      "Bot score of submissions that passed validation.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20},
		},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contact",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limiter.",
		},
		[]string{"limiter"},
	)

	MailSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contact",
			Name:      "mail_sent_total",
			Help:      "Outbound mail attempts by kind and result.",
		},
		[]string{"kind", "result"},
	)
)

func init() {
	Registry.MustRegister(
		Submissions,
		BotScore,
		RateLimited,
		MailSent,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
