package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// NewsletterMetrics counts workflow outcomes. A nil *NewsletterMetrics is a no-op.
type NewsletterMetrics struct {
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func NewNewsletterMetrics(reg prometheus.Registerer) *NewsletterMetrics {
	transitions := registerCounterVec(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsletter",
			Name:      "transitions_total",
			Help:      "Newsletter workflow operations by outcome",
		},
		[]string{"operation", "outcome"},
	))
	notifications := registerCounterVec(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsletter",
			Name:      "notifications_total",
			Help:      "Emails sent by the newsletter workflow",
		},
		[]string{"kind", "outcome"},
	))

	return &NewsletterMetrics{
		transitions:   transitions,
		notifications: notifications,
	}
}

// registerCounterVec returns the already registered collector when the router is built twice.
func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *NewsletterMetrics) transition(operation, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, outcome).Inc()
}

func (m *NewsletterMetrics) notification(kind, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, outcome).Inc()
}
