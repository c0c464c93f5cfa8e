package events

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes each event to the topic <prefix><event type>, keyed by
// entity id so events of one record stay ordered within a partition.
type Kafka struct {
	writer      messageWriter
	topicPrefix string
}

func NewKafka(brokers []string, topicPrefix string) *Kafka {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Kafka{writer: writer, topicPrefix: topicPrefix}
}

func (k *Kafka) Topic(eventType string) string {
	return k.topicPrefix + eventType
}

func (k *Kafka) Publish(ctx context.Context, event Event) error {
	body, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.Type, err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Topic: k.Topic(event.Type),
		Key:   []byte(event.EntityID),
		Value: body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
