// Package broker forwards booking events from the in-process bus to a
// RabbitMQ queue.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"shareit/internal/events"
	"shareit/internal/worker"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	defaultBufferSize     = 256
	defaultPublishTimeout = 5 * time.Second
)

var ErrBufferFull = errors.New("event buffer is full")

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Dialer opens a channel plus the connection that owns it.
type Dialer func(url string) (Channel, io.Closer, error)

// Message is the JSON body put on the queue.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type Publisher struct {
	url    string
	queue  string
	retry  worker.RetryPolicy
	logger *zerolog.Logger
	dial   Dialer

	events chan *events.Event

	mu   sync.Mutex
	ch   Channel
	conn io.Closer
}

func NewPublisher(url, queue string, retry worker.RetryPolicy, logger *zerolog.Logger) *Publisher {
	return &Publisher{
		url:    url,
		queue:  queue,
		retry:  retry,
		logger: logger,
		dial:   dialAMQP,
		events: make(chan *events.Event, defaultBufferSize),
	}
}

func dialAMQP(url string) (Channel, io.Closer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, conn, nil
}

// Attach subscribes the publisher to every event on bus.
func (p *Publisher) Attach(bus *events.EventBus) {
	bus.SubscribeAll(p.Enqueue)
}

// Enqueue hands the event to the background loop without blocking.
func (p *Publisher) Enqueue(event *events.Event) error {
	select {
	case p.events <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

// Run publishes queued events until ctx is cancelled, then drains what is
// already buffered and closes the connection.
func (p *Publisher) Run(ctx context.Context) {
	defer p.Close()

	for {
		select {
		case <-ctx.Done():
			p.drain()
			return
		case event := <-p.events:
			p.deliver(ctx, event)
		}
	}
}

func (p *Publisher) drain() {
	for {
		select {
		case event := <-p.events:
			ctx, cancel := context.WithTimeout(context.Background(), defaultPublishTimeout)
			p.deliver(ctx, event)
			cancel()
		default:
			return
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, event *events.Event) {
	err := p.retry.Do(ctx, func(attempt int) error {
		if err := p.Publish(ctx, event); err != nil {
			p.logger.Warn().Err(err).Str("event_type", event.Type).Int("attempt", attempt).Msg("broker publish failed")
			return err
		}
		return nil
	})
	if err != nil {
		p.logger.Error().Err(err).Str("event_type", event.Type).Msg("event dropped")
	}
}

// Publish sends one event as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, event *events.Event) error {
	body, err := json.Marshal(Message{
		Type:      event.Type,
		Payload:   json.RawMessage(event.Payload),
		CreatedAt: event.CreatedAt.UTC(),
	})
	if err != nil {
		return worker.Permanent(fmt.Errorf("marshal event: %w", err))
	}

	ch, err := p.channel()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         event.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	return nil
}

// channel returns the open channel, dialing and declaring the queue first if
// needed.
func (p *Publisher) channel() (Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		return p.ch, nil
	}

	ch, conn, err := p.dial(p.url)
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		if conn != nil {
			_ = conn.Close()
		}
		return nil, fmt.Errorf("declare queue %s: %w", p.queue, err)
	}

	p.ch, p.conn = ch, conn
	p.logger.Info().Str("queue", p.queue).Msg("broker channel opened")
	return ch, nil
}

func (p *Publisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *Publisher) closeLocked() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
		p.ch = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}
