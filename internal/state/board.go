// Package state keeps the most recent watcher view for readers outside the
// poll loop.
package state

import (
	"context"
	"slices"
	"sync"
	"time"

	"fissure_watcher/internal/model"
	"fissure_watcher/internal/watcher"
)

// View is a copy of the board state. Fissures is the full held collection;
// readers apply the current filters themselves.
type View struct {
	Fissures  []model.Fissure `json:"fissures"`
	LastKind  model.PollKind  `json:"lastKind"`
	LastAt    time.Time       `json:"lastAt"`
	LastError string          `json:"lastError,omitempty"`
	Polls     int             `json:"polls"`
}

// Board is a watcher.Handler that remembers the latest collections.
type Board struct {
	mu   sync.RWMutex
	view View
}

// NewBoard creates an empty Board.
func NewBoard() *Board {
	return &Board{}
}

// Handle implements watcher.Handler.
func (b *Board) Handle(_ context.Context, ev watcher.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.view.Polls++
	b.view.LastKind = ev.Kind
	b.view.LastAt = ev.At
	switch ev.Kind {
	case model.PollFissures:
		b.view.Fissures = slices.Clone(ev.Fissures)
		b.view.LastError = ""
	case model.PollNoChange:
		b.view.LastError = ""
	case model.PollError:
		b.view.LastError = ev.Err
	}
	return nil
}

// View returns a copy of the current state.
func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v := b.view
	v.Fissures = slices.Clone(v.Fissures)
	return v
}

// Ready reports whether at least one cycle has been observed.
func (b *Board) Ready() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.view.Polls > 0
}
