package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// CheckoutMetrics records order placement and the post-commit steps that follow it.
type CheckoutMetrics struct {
	duration   *prometheus.HistogramVec
	placed     *prometheus.CounterVec
	postCommit *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders committed by checkout.",
	}, []string{"payment_method"})
	postCommit := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_post_commit_steps_total",
		Help: "Post-commit checkout steps by outcome.",
	}, []string{"step", "outcome"})
	reg.MustRegister(duration, placed, postCommit)
	return &CheckoutMetrics{
		duration:   duration,
		placed:     placed,
		postCommit: postCommit,
	}
}

// ObserveCheckout records how long a checkout took and whether it committed.
func (c *CheckoutMetrics) ObserveCheckout(outcome string, d time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(d.Seconds())
}

// IncOrderPlaced counts a committed order.
func (c *CheckoutMetrics) IncOrderPlaced(paymentMethod string) {
	if c == nil || c.placed == nil {
		return
	}
	c.placed.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// ObserveStep counts one post-commit step result.
func (c *CheckoutMetrics) ObserveStep(step string, err error) {
	if c == nil || c.postCommit == nil {
		return
	}
	c.postCommit.WithLabelValues(normalizeLabel(step), outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
