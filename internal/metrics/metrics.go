// Package metrics exposes Prometheus instrumentation for the watcher.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll results.
const (
	PollOK       = "ok"
	PollNoChange = "no_change"
	PollError    = "error"
)

// Metrics groups the watcher's collectors.
type Metrics struct {
	polls            *prometheus.CounterVec
	added            prometheus.Counter
	removed          prometheus.Counter
	held             prometheus.Gauge
	notifications    *prometheus.CounterVec
	remindersPending prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fissure_polls_total",
			Help: "Watcher cycles by result.",
		}, []string{"result"}),
		added: f.NewCounter(prometheus.CounterOpts{
			Name: "fissure_added_total",
			Help: "Fissures that appeared since the previous cycle.",
		}),
		removed: f.NewCounter(prometheus.CounterOpts{
			Name: "fissure_removed_total",
			Help: "Fissures that disappeared since the previous cycle.",
		}),
		held: f.NewGauge(prometheus.GaugeOpts{
			Name: "fissure_held",
			Help: "Fissures currently tracked.",
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fissure_notifications_total",
			Help: "Notifications sent by kind and result.",
		}, []string{"kind", "result"}),
		remindersPending: f.NewGauge(prometheus.GaugeOpts{
			Name: "fissure_reminders_pending",
			Help: "Expiry reminders waiting to fire.",
		}),
	}
}

// Poll records one watcher cycle.
func (m *Metrics) Poll(result string, added, removed, held int) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result).Inc()
	m.added.Add(float64(added))
	m.removed.Add(float64(removed))
	if result != PollError {
		m.held.Set(float64(held))
	}
}

// Notification records a delivery attempt.
func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

// ReminderScheduled increments the pending reminder gauge.
func (m *Metrics) ReminderScheduled() {
	if m == nil {
		return
	}
	m.remindersPending.Inc()
}

// ReminderDone decrements the pending reminder gauge.
func (m *Metrics) ReminderDone() {
	if m == nil {
		return
	}
	m.remindersPending.Dec()
}
