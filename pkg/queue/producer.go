package queue

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// ProducerConfig configures the Kafka writer. Username/Password enable SASL/PLAIN over TLS.
type ProducerConfig struct {
	Broker   string
	Topic    string
	Username string
	Password string

	WriteTimeout   time.Duration
	PublishTimeout time.Duration
}

// Producer publishes keyed messages to one topic.
// A nil Producer is valid and drops every message.
type Producer struct {
	writer  *kafka.Writer
	timeout time.Duration
}

// NewProducer returns nil when no broker or topic is configured.
func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.Broker == "" || cfg.Topic == "" {
		return nil
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Broker),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.WriteTimeout,
	}
	if cfg.Username != "" {
		w.Transport = &kafka.Transport{
			SASL: plain.Mechanism{Username: cfg.Username, Password: cfg.Password},
			TLS:  &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}
	return &Producer{writer: w, timeout: cfg.PublishTimeout}
}

// PublishMessage writes one message synchronously. Messages with the same key
// land on the same partition.
func (p *Producer) PublishMessage(ctx context.Context, key, value []byte) error {
	if !p.Ready() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

func (p *Producer) Ready() bool {
	return p != nil && p.writer != nil
}

func (p *Producer) Close() error {
	if !p.Ready() {
		return nil
	}
	return p.writer.Close()
}
