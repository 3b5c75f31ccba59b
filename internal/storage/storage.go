// Package storage keeps the history of watcher cycles and notifications.
// The held fissure snapshot itself is never stored.
package storage

import (
	"context"

	"fissure_watcher/internal/model"
)

// DefaultListLimit is used when a list call asks for no more than zero rows.
const DefaultListLimit = 50

// Storage is the interface for all persistence operations.
type Storage interface {
	RecordPoll(ctx context.Context, p model.PollRecord) error
	ListPolls(ctx context.Context, limit int) ([]model.PollRecord, error)

	RecordNotification(ctx context.Context, n model.Notification) error
	ListNotifications(ctx context.Context, limit int) ([]model.Notification, error)

	Close() error
}
