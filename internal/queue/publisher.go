package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/semaphore"
)

const (
	// dialTimeout bounds TCP connect plus the AMQP handshake
	dialTimeout = 5 * time.Second
	// redialBackoff is how long publishes fail fast after a failed dial
	redialBackoff = 5 * time.Second
)

// ErrBrokerUnavailable is returned while a recent dial failure is backing off
var ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

// Publisher keeps one broker connection and channel, opened on first publish
// and reopened after a failure
type Publisher struct {
	url   string
	queue string

	// lock guards the fields below; acquiring it honours the caller's context
	lock       *semaphore.Weighted
	conn       *amqp.Connection
	ch         *amqp.Channel
	retryAfter time.Time
	now        func() time.Time
}

func NewPublisher(url, queue string) *Publisher {
	if queue == "" {
		queue = DefaultUserCreatedQueue
	}
	return &Publisher{
		url:   url,
		queue: queue,
		lock:  semaphore.NewWeighted(1),
		now:   time.Now,
	}
}

// PublishUserCreated sends ev as a persistent JSON message to the queue
func (p *Publisher) PublishUserCreated(ctx context.Context, ev UserCreatedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	if err := p.lock.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	defer p.lock.Release(1)

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// channel returns an open channel, dialing when needed. Callers hold lock.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	if p.now().Before(p.retryAfter) {
		return nil, ErrBrokerUnavailable
	}

	conn, err := dial(ctx, p.url)
	if err != nil {
		p.retryAfter = p.now().Add(redialBackoff)
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	// Durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.retryAfter = time.Time{}
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func (p *Publisher) Close() error {
	if err := p.lock.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer p.lock.Release(1)
	p.reset()
	return nil
}

// dial connects with a deadline of dialTimeout or the context deadline,
// whichever is sooner. The deadline covers the AMQP handshake too.
func dial(ctx context.Context, url string) (*amqp.Connection, error) {
	timeout := dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("rabbitmq: dial: %w", context.DeadlineExceeded)
	}

	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	return conn, nil
}
