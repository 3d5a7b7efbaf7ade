package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotificationMetrics counts delivery attempts per message kind.
type NotificationMetrics struct {
	sent *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Notification delivery attempts by kind, driver and outcome.",
	}, []string{"kind", "driver", "outcome"})
	reg.MustRegister(sent)
	return &NotificationMetrics{sent: sent}
}

// Observe records one delivery attempt.
func (n *NotificationMetrics) Observe(kind, driver string, err error) {
	if n == nil || n.sent == nil {
		return
	}
	n.sent.WithLabelValues(normalizeLabel(kind), normalizeLabel(driver), outcomeOf(err)).Inc()
}
