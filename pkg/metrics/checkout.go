package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics counts checkout session creation attempts.
type CheckoutMetrics struct {
	sessions *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout counters on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Checkout session creation attempts by result.",
	}, []string{"result"})
	reg.MustRegister(sessions)
	return &CheckoutMetrics{sessions: sessions}
}

// IncCreated records a session the processor accepted.
func (c *CheckoutMetrics) IncCreated() { c.inc("created") }

// IncRejected records a cart or form that failed validation before reaching the processor.
func (c *CheckoutMetrics) IncRejected() { c.inc("rejected") }

// IncFailed records a processor error.
func (c *CheckoutMetrics) IncFailed() { c.inc("failed") }

func (c *CheckoutMetrics) inc(result string) {
	if c == nil || c.sessions == nil {
		return
	}
	c.sessions.WithLabelValues(result).Inc()
}
