package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"fissure_watcher/internal/model"
	"fissure_watcher/internal/state"
)

type mockBoard struct {
	view  state.View
	ready bool
}

func (m *mockBoard) View() state.View { return m.view }
func (m *mockBoard) Ready() bool      { return m.ready }

type mockSettings struct {
	s model.Settings
}

func (m *mockSettings) Snapshot() model.Settings { return m.s }

type mockHistory struct {
	polls         []model.PollRecord
	notifications []model.Notification
	gotLimit      int
	err           error
}

func (m *mockHistory) ListPolls(_ context.Context, limit int) ([]model.PollRecord, error) {
	m.gotLimit = limit
	return m.polls, m.err
}

func (m *mockHistory) ListNotifications(_ context.Context, limit int) ([]model.Notification, error) {
	m.gotLimit = limit
	return m.notifications, m.err
}

var at = time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)

var (
	axi  = model.Fissure{ID: "a", Node: "Ukko (Void)", MissionType: model.MissionCapture, Tier: model.TierAxi, Enemy: model.FactionOrokin}
	lith = model.Fissure{ID: "b", Node: "Hydron (Sedna)", MissionType: model.MissionDefense, Tier: model.TierLith, Enemy: model.FactionGrineer}
)

func newTestServer(board *mockBoard, history *mockHistory) *Server {
	settings := &mockSettings{s: model.Settings{
		Filters: model.Filters{
			Missions:  []model.MissionType{model.MissionCapture, model.MissionMobileDefense},
			Tiers:     []model.Tier{model.TierAxi},
			Factions:  []model.Faction{model.FactionOrokin},
			VoidStorm: model.Exclude,
		},
		RefreshRate: time.Minute,
		ExpiryLead:  3 * time.Minute,
	}}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "fissure_polls_total 1\n")
	})
	return NewServer(board, settings, history, metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	board := &mockBoard{
		ready: true,
		view: state.View{
			Fissures: []model.Fissure{axi, lith},
			LastKind: model.PollFissures,
			LastAt:   at,
			Polls:    1,
		},
	}
	history := &mockHistory{
		polls: []model.PollRecord{{ID: 7, Kind: model.PollNoChange, Held: 2, CreatedAt: at}},
		notifications: []model.Notification{
			{ID: 3, Kind: model.NotificationExpiry, FissureID: "a", Summary: "Fissure is Expiring In 180 Seconds", Body: "Axi Capture on Ukko (Void)", Delivered: true, CreatedAt: at},
		},
	}
	s := newTestServer(board, history)

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantBody string
	}{
		{
			name:     "health",
			target:   "/healthz",
			wantCode: http.StatusOK,
			wantBody: `{"status":"ok","lastKind":"fissures","lastAt":"2024-01-20T10:00:00Z"}`,
		},
		{
			name:     "filtered fissures",
			target:   "/fissures",
			wantCode: http.StatusOK,
			wantBody: `[{"id":"a","activation":"0001-01-01T00:00:00Z","expiry":"0001-01-01T00:00:00Z","node":"Ukko (Void)","missionType":"Capture","tier":"Axi","enemy":"Orokin","isStorm":false,"isHard":false}]`,
		},
		{
			name:     "settings",
			target:   "/settings",
			wantCode: http.StatusOK,
			wantBody: `{"missions":["Capture","Mobile Defense"],"tiers":["Axi"],"factions":["Orokin"],"voidStorm":"Exclude","refreshRateSeconds":60,"expiryLeadSeconds":180}`,
		},
		{
			name:     "polls",
			target:   "/history/polls",
			wantCode: http.StatusOK,
			wantBody: `[{"id":7,"kind":"no_change","added":0,"removed":0,"held":2,"matching":0,"createdAt":"2024-01-20T10:00:00Z"}]`,
		},
		{
			name:     "notifications",
			target:   "/history/notifications?limit=5",
			wantCode: http.StatusOK,
			wantBody: `[{"id":3,"kind":"expiry","fissureId":"a","summary":"Fissure is Expiring In 180 Seconds","body":"Axi Capture on Ukko (Void)","delivered":true,"createdAt":"2024-01-20T10:00:00Z"}]`,
		},
		{
			name:     "invalid limit",
			target:   "/history/polls?limit=abc",
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"limit must be between 1 and 500"}`,
		},
		{
			name:     "limit too large",
			target:   "/history/notifications?limit=501",
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"limit must be between 1 and 500"}`,
		},
		{
			name:     "metrics",
			target:   "/metrics",
			wantCode: http.StatusOK,
			wantBody: "fissure_polls_total 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.target)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if diff := cmp.Diff(tt.wantBody, strings.TrimSpace(rec.Body.String())); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFissuresAll(t *testing.T) {
	board := &mockBoard{ready: true, view: state.View{Fissures: []model.Fissure{axi, lith}}}
	s := newTestServer(board, &mockHistory{})

	rec := do(t, s, "/fissures?all=true")

	var got []model.Fissure
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]model.Fissure{axi, lith}, got); diff != "" {
		t.Errorf("fissures mismatch (-want +got):\n%s", diff)
	}
}

func TestFissuresFollowCurrentFilters(t *testing.T) {
	board := &mockBoard{ready: true, view: state.View{Fissures: []model.Fissure{axi, lith}}}
	settings := &mockSettings{s: model.Settings{Filters: model.Filters{
		Missions:  []model.MissionType{model.MissionCapture, model.MissionDefense},
		Tiers:     []model.Tier{model.TierAxi},
		Factions:  []model.Faction{model.FactionOrokin, model.FactionGrineer},
		VoidStorm: model.Exclude,
	}}}
	s := NewServer(board, settings, &mockHistory{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	get := func() []model.Fissure {
		t.Helper()
		var got []model.Fissure
		if err := json.Unmarshal(do(t, s, "/fissures").Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got
	}

	if diff := cmp.Diff([]model.Fissure{axi}, get()); diff != "" {
		t.Errorf("before edit mismatch (-want +got):\n%s", diff)
	}

	settings.s.Filters.Tiers = []model.Tier{model.TierLith}
	if diff := cmp.Diff([]model.Fissure{lith}, get()); diff != "" {
		t.Errorf("after edit mismatch (-want +got):\n%s", diff)
	}

	settings.s.Filters.Tiers = nil
	if diff := cmp.Diff([]model.Fissure{}, get()); diff != "" {
		t.Errorf("empty tiers mismatch (-want +got):\n%s", diff)
	}
}

func TestFissuresBeforeFirstPoll(t *testing.T) {
	s := newTestServer(&mockBoard{}, &mockHistory{})

	if got := strings.TrimSpace(do(t, s, "/fissures").Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
	if got := strings.TrimSpace(do(t, s, "/healthz").Body.String()); got != `{"status":"starting"}` {
		t.Errorf("health = %s", got)
	}
}

func TestHealthDegraded(t *testing.T) {
	board := &mockBoard{ready: true, view: state.View{LastKind: model.PollError, LastAt: at, LastError: "timeout", Polls: 3}}
	s := newTestServer(board, &mockHistory{})

	want := `{"status":"degraded","lastKind":"error","lastAt":"2024-01-20T10:00:00Z","lastError":"timeout"}`
	if got := strings.TrimSpace(do(t, s, "/healthz").Body.String()); got != want {
		t.Errorf("health = %s, want %s", got, want)
	}
}

func TestHistoryLimitAndError(t *testing.T) {
	history := &mockHistory{}
	s := newTestServer(&mockBoard{}, history)

	do(t, s, "/history/polls?limit=25")
	if history.gotLimit != 25 {
		t.Errorf("limit = %d, want 25", history.gotLimit)
	}
	do(t, s, "/history/polls")
	if history.gotLimit != 0 {
		t.Errorf("limit = %d, want 0", history.gotLimit)
	}

	history.err = errors.New("database is locked")
	rec := do(t, s, "/history/notifications")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "locked") {
		t.Errorf("body leaks internal error: %s", rec.Body.String())
	}
}

func TestEmptyHistoryIsArray(t *testing.T) {
	s := newTestServer(&mockBoard{}, &mockHistory{})
	if got := strings.TrimSpace(do(t, s, "/history/polls").Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}
