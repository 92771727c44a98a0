// Package service publishes domain events to the configured broker.
// Publish errors are returned to the caller, which decides whether they
// matter; the predictor only logs them.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/iliyamo/heart-disease-api/internal/config"
	q "github.com/iliyamo/heart-disease-api/internal/queue"
)

// Publisher sends PredictionCompletedEvent messages.
type Publisher interface {
	PublishPredictionCompleted(ctx context.Context, ev q.PredictionCompletedEvent) error
	Close() error
}

// NewPublisher returns the publisher selected by cfg.Broker. Unknown or
// "none" brokers yield a publisher that drops events.
func NewPublisher(cfg config.EventsConfig, log *zap.Logger) Publisher {
	switch cfg.Broker {
	case config.BrokerRabbitMQ:
		return NewRabbitPublisher(cfg.RabbitURL, cfg.Queue)
	case config.BrokerKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.Queue)
	default:
		if cfg.Broker != config.BrokerNone {
			log.Warn("unknown events broker, events disabled", zap.String("broker", cfg.Broker))
		}
		return NopPublisher{}
	}
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) PublishPredictionCompleted(context.Context, q.PredictionCompletedEvent) error {
	return nil
}
func (NopPublisher) Close() error { return nil }

// rabbitDialTimeout bounds a dial when the caller's context has no deadline.
const rabbitDialTimeout = 5 * time.Second

// RabbitPublisher publishes persistent JSON messages to a durable queue on
// the default exchange. The connection is opened lazily and reopened after
// a failure. Waiting for the connection and dialing both respect the
// caller's context.
type RabbitPublisher struct {
	url   string
	queue string

	sem  chan struct{} // one holder at a time
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitPublisher(url, queue string) *RabbitPublisher {
	return &RabbitPublisher{url: url, queue: queue, sem: make(chan struct{}, 1)}
}

func (p *RabbitPublisher) lock(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("rabbitmq: %w", ctx.Err())
	}
}

func (p *RabbitPublisher) unlock() { <-p.sem }

func (p *RabbitPublisher) PublishPredictionCompleted(ctx context.Context, ev q.PredictionCompletedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	if err := p.lock(ctx); err != nil {
		return err
	}
	defer p.unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.PredictionID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// channel returns an open channel, dialing and declaring the queue when
// needed. Callers hold the lock.
func (p *RabbitPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      contextDialer(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *RabbitPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// contextDialer connects within ctx and applies its deadline to the AMQP
// handshake; the library clears the deadline once the connection is open.
func contextDialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			deadline = time.Now().Add(rabbitDialTimeout)
		}
		d := net.Dialer{Deadline: deadline}
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

func (p *RabbitPublisher) Close() error {
	p.sem <- struct{}{}
	defer p.unlock()
	p.reset()
	return nil
}

// KafkaPublisher writes events to a topic keyed by prediction id.
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}}
}

func (p *KafkaPublisher) PublishPredictionCompleted(ctx context.Context, ev q.PredictionCompletedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.PredictionID),
		Value: body,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }
