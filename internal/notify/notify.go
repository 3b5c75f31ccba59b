// Package notify delivers notifications to the user's notification surfaces.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Notifier delivers a single notification.
type Notifier interface {
	Notify(ctx context.Context, summary, body string) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, summary, body string) error

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, summary, body string) error {
	return f(ctx, summary, body)
}

// Desktop shows notifications through the platform notification daemon.
type Desktop struct {
	show func(title, message string) error
}

// NewDesktop creates a desktop notifier labelled with appName.
func NewDesktop(appName string) *Desktop {
	if appName != "" {
		beeep.AppName = appName
	}
	return &Desktop{show: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
}

// Notify implements Notifier.
func (d *Desktop) Notify(_ context.Context, summary, body string) error {
	if err := d.show(summary, body); err != nil {
		return fmt.Errorf("desktop notify: %w", err)
	}
	return nil
}

// Log writes notifications to a logger. It is used when no other sink is configured.
type Log struct {
	log *slog.Logger
}

// NewLog creates a log notifier.
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

// Notify implements Notifier.
func (l *Log) Notify(_ context.Context, summary, body string) error {
	l.log.Info("notification", "summary", summary, "body", body)
	return nil
}

// Multi delivers to every sink and joins their errors.
type Multi []Notifier

// Notify implements Notifier. All sinks are attempted even if some fail.
func (m Multi) Notify(ctx context.Context, summary, body string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, summary, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
