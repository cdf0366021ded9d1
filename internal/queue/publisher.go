package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/oops"

	"github.com/iliyamo/customer-directory/internal/logging"
)

const (
	// publishBuffer is how many events may wait for the broker.
	publishBuffer = 256
	// dialTimeout bounds one connection attempt to the broker.
	dialTimeout = 3 * time.Second
	// sendTimeout bounds one publish on an open channel.
	sendTimeout = 5 * time.Second
)

// Publisher sends customer events to RabbitMQ.  Publish only enqueues;
// Run owns one long-lived connection and channel, sends the queued events
// in order and reconnects after the broker drops them.  Events queued while
// the broker is unreachable are logged and dropped.
type Publisher struct {
	url    string
	queue  string
	logger *slog.Logger
	events chan CustomerEvent

	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the given broker URL and queue.
func NewPublisher(url, queue string, logger *slog.Logger) *Publisher {
	return &Publisher{url: url, queue: queue, logger: logger, events: make(chan CustomerEvent, publishBuffer)}
}

// Publish queues event for Run.  It never waits on the broker and fails
// only when the buffer is full.
func (p *Publisher) Publish(_ context.Context, event CustomerEvent) error {
	select {
	case p.events <- event:
		return nil
	default:
		return oops.Code("EVENT_BUFFER_FULL").
			With("type", event.Type).
			With("capacity", cap(p.events)).
			Errorf("event buffer is full")
	}
}

// Run sends queued events until ctx is cancelled, then closes the broker
// connection.
func (p *Publisher) Run(ctx context.Context) {
	defer p.disconnect()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			if err := p.send(ctx, ev); err != nil {
				logging.LogError(p.logger, "customer event not published", err, "type", ev.Type, "customer_id", ev.CustomerID)
			}
		}
	}
}

// channel returns the open channel, dialling a new connection when there is
// none.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil {
		return p.ch, nil
	}
	p.disconnect()

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, oops.Code("EVENT_PUBLISH_FAILED").With("operation", "dial").Wrap(err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, oops.Code("EVENT_PUBLISH_FAILED").With("operation", "open channel").Wrap(err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, oops.Code("EVENT_PUBLISH_FAILED").With("operation", "declare queue").With("queue", p.queue).Wrap(err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) disconnect() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func (p *Publisher) send(ctx context.Context, event CustomerEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return oops.Code("EVENT_PUBLISH_FAILED").With("operation", "marshal event").Wrap(err)
	}
	ch, err := p.channel()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         event.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.disconnect()
		return oops.Code("EVENT_PUBLISH_FAILED").With("operation", "publish").With("type", event.Type).Wrap(err)
	}
	p.logger.Debug("customer event published", "queue", p.queue, "type", event.Type, "customer_id", event.CustomerID)
	return nil
}

// NopPublisher drops every event.  It is used when EVENTS_ENABLED is off.
type NopPublisher struct{}

// Publish implements the publisher contract without doing anything.
func (NopPublisher) Publish(context.Context, CustomerEvent) error { return nil }
