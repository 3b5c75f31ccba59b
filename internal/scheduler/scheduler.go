// Package scheduler delivers notifications for newly matching fissures: one
// immediate batch per cycle and one deferred reminder per fissure shortly
// before it expires.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fissure_watcher/internal/metrics"
	"fissure_watcher/internal/model"
	"fissure_watcher/internal/notify"
)

// NewFissuresSummary is the summary of the immediate batch notification.
const NewFissuresSummary = "New Fissures"

// LeadSource provides the reminder lead time. It is read once per scheduled
// reminder.
type LeadSource interface {
	ExpiryLead() time.Duration
}

// History records delivery attempts.
type History interface {
	RecordNotification(ctx context.Context, n model.Notification) error
}

// Timer is a pending reminder.
type Timer interface {
	Stop() bool
}

type reminder struct {
	fissureID string
	timer     Timer
}

// Scheduler sends notifications through a Notifier.
type Scheduler struct {
	notifier notify.Notifier
	settings LeadSource
	log      *slog.Logger
	history  History
	metrics  *metrics.Metrics

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) Timer

	mu              sync.Mutex
	cancelOnRemoval bool
	reminders       map[string]*reminder
	pending         int
}

// New creates a Scheduler using the wall clock.
func New(n notify.Notifier, settings LeadSource, log *slog.Logger) *Scheduler {
	return &Scheduler{
		notifier:  n,
		settings:  settings,
		log:       log,
		now:       time.Now,
		afterFunc: func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) },
		reminders: make(map[string]*reminder),
	}
}

// SetHistory enables recording of every delivery attempt.
func (s *Scheduler) SetHistory(h History) {
	s.history = h
}

// SetMetrics enables notification metrics.
func (s *Scheduler) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetCancelOnRemoval makes Forget stop pending reminders of removed
// fissures. Without it a reminder fires even after its fissure is gone.
func (s *Scheduler) SetCancelOnRemoval(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelOnRemoval = enabled
}

// NotifyNew sends one batch notification listing fissures and schedules an
// expiry reminder for each of them. Nothing is sent for an empty slice.
// Delivery failures are logged, never returned.
func (s *Scheduler) NotifyNew(ctx context.Context, fissures []model.Fissure) {
	if len(fissures) == 0 {
		return
	}

	lines := make([]string, len(fissures))
	for i, f := range fissures {
		lines[i] = f.String()
	}
	s.deliver(ctx, model.NotificationNew, "", NewFissuresSummary, strings.Join(lines, "\n"))

	for _, f := range fissures {
		s.schedule(ctx, f)
	}
}

// Forget is called with fissures that disappeared from the feed.
func (s *Scheduler) Forget(removed []model.Fissure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cancelOnRemoval {
		return
	}
	for _, f := range removed {
		r, ok := s.reminders[f.ID]
		if !ok {
			continue
		}
		delete(s.reminders, f.ID)
		if r.timer.Stop() {
			s.pending--
			s.metrics.ReminderDone()
			s.log.Debug("reminder cancelled", "fissure_id", f.ID)
		}
	}
}

// Pending returns the number of reminders that have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Scheduler) schedule(ctx context.Context, f model.Fissure) {
	lead := s.settings.ExpiryLead()
	delay := f.Expiry.Add(-lead).Sub(s.now())
	if delay <= 0 {
		s.log.Debug("reminder skipped", "fissure_id", f.ID, "expiry", f.Expiry)
		return
	}

	summary := expirySummary(lead)
	body := f.String()
	// The reminder outlives the cycle that scheduled it.
	rctx := context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	r := &reminder{fissureID: f.ID}
	r.timer = s.afterFunc(delay, func() { s.fire(rctx, r, summary, body) })
	s.pending++
	s.metrics.ReminderScheduled()

	if s.cancelOnRemoval {
		if prev, ok := s.reminders[f.ID]; ok && prev.timer.Stop() {
			s.pending--
			s.metrics.ReminderDone()
		}
		s.reminders[f.ID] = r
	}
	s.log.Debug("reminder scheduled", "fissure_id", f.ID, "in", delay)
}

func (s *Scheduler) fire(ctx context.Context, r *reminder, summary, body string) {
	s.mu.Lock()
	s.pending--
	if s.reminders[r.fissureID] == r {
		delete(s.reminders, r.fissureID)
	}
	s.mu.Unlock()
	s.metrics.ReminderDone()

	s.deliver(ctx, model.NotificationExpiry, r.fissureID, summary, body)
}

func (s *Scheduler) deliver(ctx context.Context, kind model.NotificationKind, fissureID, summary, body string) {
	err := s.notifier.Notify(ctx, summary, body)
	s.metrics.Notification(string(kind), err)

	rec := model.Notification{
		Kind:      kind,
		FissureID: fissureID,
		Summary:   summary,
		Body:      body,
		Delivered: err == nil,
		CreatedAt: s.now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
		s.log.Error("send notification", "kind", kind, "fissure_id", fissureID, "error", err)
	} else {
		s.log.Info("notification sent", "kind", kind, "fissure_id", fissureID)
	}

	if s.history == nil {
		return
	}
	if err := s.history.RecordNotification(ctx, rec); err != nil {
		s.log.Error("record notification", "kind", kind, "error", err)
	}
}

func expirySummary(lead time.Duration) string {
	return fmt.Sprintf("Fissure is Expiring In %d Seconds", int64(lead/time.Second))
}
