package natspub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// Publisher streams feedback messages as JSON to a single NATS subject.
type Publisher struct {
	conn    Conn
	subject string
	logger  *slog.Logger
	close   func()
}

// New wraps an existing connection. Closing the publisher leaves conn open.
func New(conn Conn, subject string, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
		close:   func() {},
	}
}

// Connect dials url and publishes to subject over the new connection.
func Connect(url string, subject string, logger *slog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("codecheck"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	p := New(nc, subject, logger)
	p.close = nc.Close
	return p, nil
}

func (p *Publisher) Publish(ctx context.Context, planID string, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := p.conn.Publish(p.subject, b); err != nil {
		return fmt.Errorf("failed to publish message to NATS: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	p.logger.Debug("published message", "subject", p.subject, "plan_id", planID, "bytes", len(b))
	return nil
}

func (p *Publisher) Close() {
	p.close()
}
