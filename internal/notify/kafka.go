package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// KafkaMessenger publishes notifications for a downstream WhatsApp/email sender.
type KafkaMessenger struct {
	writer MessageWriter
}

func NewKafkaMessenger(writer MessageWriter) *KafkaMessenger {
	return &KafkaMessenger{writer: writer}
}

func (m *KafkaMessenger) Send(ctx context.Context, n Notification) error {
	msg, err := buildMessage(n)
	if err != nil {
		return err
	}
	if err := m.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order summary: %w", err)
	}
	return nil
}

func (m *KafkaMessenger) Close() error {
	return m.writer.Close()
}

func buildMessage(n Notification) (kafka.Message, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal notification: %w", err)
	}
	return kafka.Message{
		Key:   []byte(n.OrderID), // order_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order.summary")},
			{Key: "payment_mode", Value: []byte(n.PaymentMode)},
		},
	}, nil
}
