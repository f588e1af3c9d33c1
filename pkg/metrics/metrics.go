// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the bot
type Metrics struct {
	SanctionsIssued    *prometheus.CounterVec
	SanctionsResolved  *prometheus.CounterVec
	EscalationRefusals prometheus.Counter
	SweepDuration      prometheus.Histogram
	SweepFailures      prometheus.Counter
	DeliveryFailures   *prometheus.CounterVec
	AutomodDeletions   prometheus.Counter
	Panics             prometheus.Counter
}

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// Default returns the process wide metrics registered on the default registry
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New creates and registers all metrics on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SanctionsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pancymod_sanctions_issued_total",
			Help: "Sanctions written to the store, by kind",
		}, []string{"kind"}),
		SanctionsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pancymod_sanctions_resolved_total",
			Help: "Sanctions removed from the store, by kind and outcome",
		}, []string{"kind", "outcome"}),
		EscalationRefusals: f.NewCounter(prometheus.CounterOpts{
			Name: "pancymod_escalation_refusals_total",
			Help: "Warnings refused because the subject reached the ceiling",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pancymod_sweep_duration_seconds",
			Help:    "Duration of one guild sweep",
			Buckets: prometheus.DefBuckets,
		}),
		SweepFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "pancymod_sweep_failures_total",
			Help: "Sanctions left in place after a failed reversal",
		}),
		DeliveryFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pancymod_delivery_failures_total",
			Help: "Best effort notifications that could not be delivered, by sink",
		}, []string{"sink"}),
		AutomodDeletions: f.NewCounter(prometheus.CounterOpts{
			Name: "pancymod_automod_deletions_total",
			Help: "Messages removed by the content filter",
		}),
		Panics: f.NewCounter(prometheus.CounterOpts{
			Name: "pancymod_recovered_panics_total",
			Help: "Panics recovered by the anti-crash middleware",
		}),
	}
}

// Discard returns metrics registered on a throwaway registry, for tests
func Discard() *Metrics {
	return New(prometheus.NewRegistry())
}
