package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditLogFile is the file the consumer appends to inside its directory.
const AuditLogFile = "customer_audit.log"

// AuditConsumer listens to the customer events queue and appends one line
// per event to <dir>/customer_audit.log.
type AuditConsumer struct {
	url    string
	queue  string
	dir    string
	logger *slog.Logger
}

// NewAuditConsumer builds a consumer; Run starts it.
func NewAuditConsumer(url, queue, dir string, logger *slog.Logger) *AuditConsumer {
	return &AuditConsumer{url: url, queue: queue, dir: dir, logger: logger}
}

// Run connects to the broker and consumes until ctx is cancelled.  It
// reconnects with exponential backoff capped at 30s and rejects messages it
// cannot handle without requeueing them.
func (a *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(a.url)
		if err != nil {
			a.logger.Warn("audit consumer dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = a.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Warn("audit consumer loop ended; reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		a.logger.Warn("audit consumer set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(a.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(a.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := a.HandleMessage(d.Body); err != nil {
				a.logger.Error("audit consumer handle message failed", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends its audit line.
func (a *AuditConsumer) HandleMessage(body []byte) error {
	var ev CustomerEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.CustomerID == "" {
		return errors.New("event without type or customer_id")
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", a.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(a.dir, AuditLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// FormatAuditLine renders ev as a single newline-terminated line.
func FormatAuditLine(ev CustomerEvent) string {
	actor := ev.ActorID
	if actor == "" {
		actor = "self"
	}
	fields := "[]"
	if len(ev.Fields) > 0 {
		fields = "[" + strings.Join(ev.Fields, ",") + "]"
	}
	return fmt.Sprintf("[%s] %s | customer_id=%s | username=%q | email=%q | actor=%s | fields=%s\n",
		ev.OccurredAt, ev.Type, ev.CustomerID, ev.Username, ev.Email, actor, fields)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
