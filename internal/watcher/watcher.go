// Package watcher runs the poll loop: it fetches the current fissures, diffs
// them against the held snapshot, notifies about new matches and publishes
// one Event per cycle.
package watcher

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fissure_watcher/internal/filter"
	"fissure_watcher/internal/metrics"
	"fissure_watcher/internal/model"
	"fissure_watcher/internal/reconcile"
)

// QueueSize is the capacity of the event channel. Publishing blocks once it
// is full.
const QueueSize = 20

// Event is the outcome of one cycle. Kind selects which fields are set:
// PollFissures carries the collections and counts, PollError carries Err,
// PollNoChange carries nothing else.
type Event struct {
	Kind     model.PollKind
	At       time.Time
	Fissures []model.Fissure
	Filtered []model.Fissure
	Added    int
	Removed  int
	Err      string
}

// Fetcher returns the full current collection.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.Fissure, error)
}

// Notifier receives new matching fissures and removed ones.
type Notifier interface {
	NotifyNew(ctx context.Context, fissures []model.Fissure)
	Forget(removed []model.Fissure)
}

// SettingsReader exposes the settings read on every cycle.
type SettingsReader interface {
	RefreshRate() time.Duration
	Filters() model.Filters
}

// Watcher owns the held snapshot. Only Run touches it.
type Watcher struct {
	fetcher  Fetcher
	notifier Notifier
	settings SettingsReader
	log      *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time

	events chan Event
	held   []model.Fissure
}

// New creates a Watcher with an empty snapshot.
func New(f Fetcher, n Notifier, settings SettingsReader, log *slog.Logger) *Watcher {
	return &Watcher{
		fetcher:  f,
		notifier: n,
		settings: settings,
		log:      log,
		tracer:   otel.Tracer("fissure_watcher/watcher"),
		now:      time.Now,
		events:   make(chan Event, QueueSize),
	}
}

// SetMetrics enables poll metrics.
func (w *Watcher) SetMetrics(m *metrics.Metrics) {
	w.metrics = m
}

// Events returns the channel Run publishes to. It is closed when Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run polls until ctx is cancelled. The first cycle starts immediately; each
// following one is due a refresh interval after the previous deadline, or
// right away if that moment already passed. Cycles never overlap.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)

	deadline := w.now()
	for {
		timer := time.NewTimer(deadline.Sub(w.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		ev := w.tick(ctx)
		select {
		case w.events <- ev:
		case <-ctx.Done():
			return
		}

		deadline = nextDeadline(deadline, w.settings.RefreshRate(), w.now())
	}
}

func (w *Watcher) tick(ctx context.Context) Event {
	ctx, span := w.tracer.Start(ctx, "watcher.tick")
	defer span.End()

	ev := Event{At: w.now()}

	fetched, err := w.fetcher.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.metrics.Poll(metrics.PollError, 0, 0, len(w.held))
		w.log.Error("fetch fissures", "error", err)

		ev.Kind = model.PollError
		ev.Err = err.Error()
		return ev
	}

	res := reconcile.Reconcile(w.held, fetched)
	w.held = res.Fissures
	added, removed := res.Counts()
	span.SetAttributes(
		attribute.Int("fissures.fetched", len(fetched)),
		attribute.Int("fissures.added", added),
		attribute.Int("fissures.removed", removed),
	)

	if !res.Changed() {
		w.metrics.Poll(metrics.PollNoChange, 0, 0, len(w.held))
		w.log.Debug("no new fissures", "held", len(w.held))
		ev.Kind = model.PollNoChange
		return ev
	}

	w.notifier.Forget(res.Removed)
	if matches := filter.Apply(res.Added, w.settings.Filters()); len(matches) > 0 {
		w.notifier.NotifyNew(ctx, matches)
	}

	ev.Kind = model.PollFissures
	ev.Fissures = slices.Clone(w.held)
	ev.Filtered = filter.Apply(w.held, w.settings.Filters())
	ev.Added = added
	ev.Removed = removed

	w.metrics.Poll(metrics.PollOK, added, removed, len(w.held))
	w.log.Info("fissures changed", "added", added, "removed", removed, "held", len(w.held), "matching", len(ev.Filtered))
	return ev
}

// nextDeadline returns prev+interval, or now if that is already in the past.
func nextDeadline(prev time.Time, interval time.Duration, now time.Time) time.Time {
	next := prev.Add(interval)
	if next.Before(now) {
		return now
	}
	return next
}

// Handler consumes published events.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Consume drains events until the channel is closed, passing each event to
// every handler in order. Handler errors are logged.
func Consume(ctx context.Context, events <-chan Event, log *slog.Logger, handlers ...Handler) {
	for ev := range events {
		for _, h := range handlers {
			if err := h.Handle(ctx, ev); err != nil {
				log.Error("handle event", "kind", ev.Kind, "error", err)
			}
		}
	}
}
