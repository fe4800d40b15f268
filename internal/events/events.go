// Package events publishes domain events. Orders are written to Kafka when
// brokers are configured; otherwise publishing is a no-op.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const TypeOrderPlaced = "order.placed"

type OrderPlaced struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	UserID      string    `json:"userId"`
	TotalAmount float64   `json:"totalAmount"`
	ItemCount   int       `json:"itemCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, evt OrderPlaced) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) *KafkaPublisher {
	l := log.With().Str("component", "events").Logger()
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			l.Error().Msgf(msg, args...)
		}),
	}}
}

// PublishOrderPlaced keys the message by user so a user's orders stay on one
// partition.
func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, evt OrderPlaced) error {
	evt.Type = TypeOrderPlaced
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.UserID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeOrderPlaced)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type Noop struct{}

func (Noop) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }

func (Noop) Close() error { return nil }
