package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics tracks balance mutations posted through the payment service.
type LedgerMetrics struct {
	posted   *prometheus.CounterVec
	rejected *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	posted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_entries_posted",
		Help: "Ledger entries committed, by entry type.",
	}, []string{"type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_entries_rejected",
		Help: "Ledger entry attempts rejected before commit, by error code.",
	}, []string{"code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_post_duration_seconds",
		Help:    "Duration of the posting transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	reg.MustRegister(posted, rejected, duration)
	return &LedgerMetrics{
		posted:   posted,
		rejected: rejected,
		duration: duration,
	}
}

// IncPosted increments the committed-entry counter for the entry type.
func (m *LedgerMetrics) IncPosted(entryType string) {
	if m == nil || m.posted == nil {
		return
	}
	m.posted.WithLabelValues(normalizeLabel(entryType)).Inc()
}

// IncRejected increments the rejection counter for the error code.
func (m *LedgerMetrics) IncRejected(code string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(code)).Inc()
}

// ObservePostDuration records how long the posting transaction took.
func (m *LedgerMetrics) ObservePostDuration(entryType string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(entryType)).Observe(duration.Seconds())
}
