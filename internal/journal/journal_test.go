package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"fissure_watcher/internal/model"
	"fissure_watcher/internal/watcher"
)

type mockRecorder struct {
	polls []model.PollRecord
	err   error
}

func (m *mockRecorder) RecordPoll(_ context.Context, p model.PollRecord) error {
	if m.err != nil {
		return m.err
	}
	m.polls = append(m.polls, p)
	return nil
}

func TestHandle(t *testing.T) {
	at := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
	a := model.Fissure{ID: "a"}
	b := model.Fissure{ID: "b"}

	events := []watcher.Event{
		{Kind: model.PollFissures, At: at, Fissures: []model.Fissure{a, b}, Filtered: []model.Fissure{a}, Added: 2},
		{Kind: model.PollNoChange, At: at.Add(time.Minute)},
		{Kind: model.PollError, At: at.Add(2 * time.Minute), Err: "fetch fissures: timeout"},
		{Kind: model.PollFissures, At: at.Add(3 * time.Minute), Fissures: []model.Fissure{b}, Removed: 1},
	}

	rec := &mockRecorder{}
	j := New(rec)
	for _, ev := range events {
		if err := j.Handle(context.Background(), ev); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	want := []model.PollRecord{
		{Kind: model.PollFissures, Added: 2, Held: 2, Matching: 1, CreatedAt: at},
		{Kind: model.PollNoChange, Held: 2, CreatedAt: at.Add(time.Minute)},
		{Kind: model.PollError, Held: 2, Message: "fetch fissures: timeout", CreatedAt: at.Add(2 * time.Minute)},
		{Kind: model.PollFissures, Removed: 1, Held: 1, CreatedAt: at.Add(3 * time.Minute)},
	}
	if diff := cmp.Diff(want, rec.polls); diff != "" {
		t.Errorf("polls mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleError(t *testing.T) {
	j := New(&mockRecorder{err: errors.New("disk full")})
	err := j.Handle(context.Background(), watcher.Event{Kind: model.PollNoChange})
	if err == nil || err.Error() != "record poll: disk full" {
		t.Errorf("Handle() error = %v, want wrapped disk full", err)
	}
}
