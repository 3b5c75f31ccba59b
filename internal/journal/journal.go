// Package journal writes every watcher cycle into the history store.
package journal

import (
	"context"
	"fmt"

	"fissure_watcher/internal/model"
	"fissure_watcher/internal/watcher"
)

// Recorder persists poll records.
type Recorder interface {
	RecordPoll(ctx context.Context, p model.PollRecord) error
}

// Journal is a watcher.Handler. Held is carried over from the last
// fissures event because other events do not include the collection.
type Journal struct {
	rec  Recorder
	held int
}

// New creates a Journal.
func New(rec Recorder) *Journal {
	return &Journal{rec: rec}
}

// Handle implements watcher.Handler.
func (j *Journal) Handle(ctx context.Context, ev watcher.Event) error {
	p := model.PollRecord{
		Kind:      ev.Kind,
		Added:     ev.Added,
		Removed:   ev.Removed,
		Message:   ev.Err,
		CreatedAt: ev.At,
	}
	if ev.Kind == model.PollFissures {
		j.held = len(ev.Fissures)
		p.Matching = len(ev.Filtered)
	}
	p.Held = j.held

	if err := j.rec.RecordPoll(ctx, p); err != nil {
		return fmt.Errorf("record poll: %w", err)
	}
	return nil
}
