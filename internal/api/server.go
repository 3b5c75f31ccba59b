// Package api serves a read-only HTTP view of the watcher.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fissure_watcher/internal/filter"
	"fissure_watcher/internal/model"
	"fissure_watcher/internal/state"
)

// Board provides the latest watcher view.
type Board interface {
	View() state.View
	Ready() bool
}

// SettingsSource provides the current settings.
type SettingsSource interface {
	Snapshot() model.Settings
}

// History lists recorded cycles and notifications.
type History interface {
	ListPolls(ctx context.Context, limit int) ([]model.PollRecord, error)
	ListNotifications(ctx context.Context, limit int) ([]model.Notification, error)
}

const maxListLimit = 500

// Server routes the API.
type Server struct {
	r        *chi.Mux
	board    Board
	settings SettingsSource
	history  History
	log      *slog.Logger
}

// NewServer creates a Server. metrics is mounted at /metrics when non-nil.
func NewServer(board Board, settings SettingsSource, history History, metrics http.Handler, log *slog.Logger) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		board:    board,
		settings: settings,
		history:  history,
		log:      log,
	}

	s.r.Use(middleware.RequestID)
	s.r.Use(s.logRequests)
	s.r.Use(middleware.Recoverer)

	s.routes(metrics)
	return s
}

func (s *Server) routes(metrics http.Handler) {
	s.r.Get("/healthz", s.getHealth)
	s.r.Get("/fissures", s.getFissures)
	s.r.Get("/settings", s.getSettings)
	s.r.Get("/history/polls", s.getPolls)
	s.r.Get("/history/notifications", s.getNotifications)
	if metrics != nil {
		s.r.Method(http.MethodGet, "/metrics", metrics)
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.r }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

type healthResponse struct {
	Status    string         `json:"status"`
	LastKind  model.PollKind `json:"lastKind,omitempty"`
	LastAt    *time.Time     `json:"lastAt,omitempty"`
	LastError string         `json:"lastError,omitempty"`
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.board.Ready() {
		s.writeJSON(w, http.StatusOK, healthResponse{Status: "starting"})
		return
	}
	v := s.board.View()
	resp := healthResponse{Status: "ok", LastKind: v.LastKind, LastAt: &v.LastAt, LastError: v.LastError}
	if v.LastKind == model.PollError {
		resp.Status = "degraded"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getFissures(w http.ResponseWriter, r *http.Request) {
	fissures := s.board.View().Fissures
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); !all {
		fissures = filter.Apply(fissures, s.settings.Snapshot().Filters)
	}
	if fissures == nil {
		fissures = []model.Fissure{}
	}
	s.writeJSON(w, http.StatusOK, fissures)
}

type settingsResponse struct {
	Missions    []model.MissionType     `json:"missions"`
	Tiers       []model.Tier            `json:"tiers"`
	Factions    []model.Faction         `json:"factions"`
	VoidStorm   model.ExclusivityFilter `json:"voidStorm"`
	RefreshRate int64                   `json:"refreshRateSeconds"`
	ExpiryLead  int64                   `json:"expiryLeadSeconds"`
}

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	st := s.settings.Snapshot()
	s.writeJSON(w, http.StatusOK, settingsResponse{
		Missions:    st.Filters.Missions,
		Tiers:       st.Filters.Tiers,
		Factions:    st.Filters.Factions,
		VoidStorm:   st.Filters.VoidStorm,
		RefreshRate: int64(st.RefreshRate / time.Second),
		ExpiryLead:  int64(st.ExpiryLead / time.Second),
	})
}

type pollResponse struct {
	ID        int64          `json:"id"`
	Kind      model.PollKind `json:"kind"`
	Added     int            `json:"added"`
	Removed   int            `json:"removed"`
	Held      int            `json:"held"`
	Matching  int            `json:"matching"`
	Message   string         `json:"message,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (s *Server) getPolls(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	polls, err := s.history.ListPolls(r.Context(), limit)
	if err != nil {
		s.log.Error("list polls", "error", err)
		s.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	resp := make([]pollResponse, len(polls))
	for i, p := range polls {
		resp[i] = pollResponse(p)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type notificationResponse struct {
	ID        int64                  `json:"id"`
	Kind      model.NotificationKind `json:"kind"`
	FissureID string                 `json:"fissureId,omitempty"`
	Summary   string                 `json:"summary"`
	Body      string                 `json:"body"`
	Delivered bool                   `json:"delivered"`
	Error     string                 `json:"error,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

func (s *Server) getNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	notifications, err := s.history.ListNotifications(r.Context(), limit)
	if err != nil {
		s.log.Error("list notifications", "error", err)
		s.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	resp := make([]notificationResponse, len(notifications))
	for i, n := range notifications {
		resp[i] = notificationResponse(n)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// parseLimit returns 0 (store default) when the parameter is absent.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", maxListLimit)
	}
	return n, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
