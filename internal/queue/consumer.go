package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const maxBackoff = 30 * time.Second

// Handler processes one decoded event. A returned error rejects the message.
type Handler func(ctx context.Context, ev UserCreatedEvent) error

type Consumer struct {
	url     string
	queue   string
	handler Handler
	log     *slog.Logger
}

func NewConsumer(url, queue string, handler Handler, log *slog.Logger) *Consumer {
	if queue == "" {
		queue = DefaultUserCreatedQueue
	}
	return &Consumer{url: url, queue: queue, handler: handler, log: log.With("component", "user-created-consumer")}
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := dial(ctx, c.url)
		if err != nil {
			c.log.Warn("failed to dial broker", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
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
			if err := c.handle(ctx, d.Body); err != nil {
				c.log.Error("handle message failed", "error", err)
				// reject without requeue to avoid tight loops
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	ev, err := decodeUserCreated(body)
	if err != nil {
		return err
	}
	return c.handler(ctx, ev)
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
