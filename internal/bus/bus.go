// Package bus publishes watcher events to NATS.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"fissure_watcher/internal/model"
	"fissure_watcher/internal/watcher"
)

// Conn is the subset of *nats.Conn used by Publisher.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Message is the JSON payload published for every event.
type Message struct {
	Kind     model.PollKind  `json:"kind"`
	At       time.Time       `json:"at"`
	Added    int             `json:"added"`
	Removed  int             `json:"removed"`
	Fissures []model.Fissure `json:"fissures,omitempty"`
	Filtered []model.Fissure `json:"filtered,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Publisher is a watcher.Handler.
type Publisher struct {
	conn    Conn
	subject string
	log     *slog.Logger
}

// Connect dials the NATS server at url.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("fissurewatch"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// NewPublisher creates a Publisher.
func NewPublisher(conn Conn, subject string, log *slog.Logger) *Publisher {
	return &Publisher{conn: conn, subject: subject, log: log}
}

// Handle implements watcher.Handler.
func (p *Publisher) Handle(_ context.Context, ev watcher.Event) error {
	data, err := json.Marshal(Message{
		Kind:     ev.Kind,
		At:       ev.At,
		Added:    ev.Added,
		Removed:  ev.Removed,
		Fissures: ev.Fissures,
		Filtered: ev.Filtered,
		Error:    ev.Err,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	p.log.Debug("published event", "subject", p.subject, "kind", ev.Kind)
	return nil
}
