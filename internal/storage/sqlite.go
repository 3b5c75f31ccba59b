package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"fissure_watcher/internal/model"
	"fissure_watcher/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serialises writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Up(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// RecordPoll appends one watcher cycle. A zero CreatedAt is set to now.
func (s *SQLite) RecordPoll(ctx context.Context, p model.PollRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO polls (kind, added, removed, held, matching, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(p.Kind), p.Added, p.Removed, p.Held, p.Matching, p.Message, s.timestamp(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert poll: %w", err)
	}
	return nil
}

// ListPolls returns the most recent cycles, newest first.
func (s *SQLite) ListPolls(ctx context.Context, limit int) ([]model.PollRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, added, removed, held, matching, message, created_at
		 FROM polls ORDER BY id DESC LIMIT ?`, listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query polls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var polls []model.PollRecord
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, p)
	}
	return polls, rows.Err()
}

// RecordNotification appends one delivery attempt. A zero CreatedAt is set
// to now.
func (s *SQLite) RecordNotification(ctx context.Context, n model.Notification) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (kind, fissure_id, summary, body, delivered, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(n.Kind), n.FissureID, n.Summary, n.Body, boolToInt(n.Delivered), n.Error, s.timestamp(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns the most recent delivery attempts, newest first.
func (s *SQLite) ListNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, fissure_id, summary, body, delivered, error, created_at
		 FROM notifications ORDER BY id DESC LIMIT ?`, listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *SQLite) timestamp(t time.Time) string {
	if t.IsZero() {
		t = s.now()
	}
	return t.UTC().Format(timeLayout)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPoll(row scannable) (model.PollRecord, error) {
	var p model.PollRecord
	var kind, created string
	err := row.Scan(&p.ID, &kind, &p.Added, &p.Removed, &p.Held, &p.Matching, &p.Message, &created)
	if err != nil {
		return p, fmt.Errorf("scan poll: %w", err)
	}
	p.Kind = model.PollKind(kind)
	p.CreatedAt, _ = time.Parse(timeLayout, created)
	return p, nil
}

func scanNotification(row scannable) (model.Notification, error) {
	var n model.Notification
	var kind, created string
	var delivered int
	err := row.Scan(&n.ID, &kind, &n.FissureID, &n.Summary, &n.Body, &delivered, &n.Error, &created)
	if err != nil {
		return n, fmt.Errorf("scan notification: %w", err)
	}
	n.Kind = model.NotificationKind(kind)
	n.Delivered = delivered == 1
	n.CreatedAt, _ = time.Parse(timeLayout, created)
	return n, nil
}
