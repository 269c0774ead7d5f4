package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-service/internal/infra"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer MessageWriter
	topic  string
	log    *logrus.Logger
}

var _ infra.EventPublisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string, logger *logrus.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
	}
	logger.WithField("brokers", brokers).Info("Kafka producer created")
	return NewPublisherWithWriter(w, topic, logger)
}

func NewPublisherWithWriter(w MessageWriter, topic string, logger *logrus.Logger) *Publisher {
	return &Publisher{writer: w, topic: topic, log: logger}
}

// Publish writes data as JSON. The routing key goes into the event-type
// header; events implementing infra.Keyed are keyed so that all events of
// one aggregate land on the same partition.
func (p *Publisher) Publish(ctx context.Context, routingKey string, data any) error {
	value, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	var key []byte
	if k, ok := data.(infra.Keyed); ok {
		key = []byte(k.EventKey())
	}

	msg := kafka.Message{
		Topic:   p.topic,
		Key:     key,
		Value:   value,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(routingKey)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.WithFields(logrus.Fields{
			"topic": p.topic,
			"type":  routingKey,
		}).Errorf("Failed to send Kafka message: %v", err)
		return err
	}
	p.log.WithFields(logrus.Fields{"topic": p.topic, "type": routingKey}).Debug("Kafka message sent")
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
