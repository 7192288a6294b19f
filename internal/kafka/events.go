package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/linemk/inventory-system/internal/domain/models"
	"github.com/segmentio/kafka-go"
)

const (
	EventOrderCommitted = "OrderCommitted"
	eventVersion        = 1
	producerName        = "inventory-system"
)

// Envelope общая обёртка событий; Payload декодируется по EventType
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type publisher interface {
	Publish(key, value []byte, headers ...kafka.Header) error
}

// OrderPublisher публикует зафиксированные заказы; ключ сообщения равен id заказа
type OrderPublisher struct {
	producer publisher
}

func NewOrderPublisher(producer *Producer) *OrderPublisher {
	return &OrderPublisher{producer: producer}
}

func (p *OrderPublisher) PublishOrderCommitted(_ context.Context, event models.OrderCommitted) error {
	value, err := EncodeOrderCommitted(event)
	if err != nil {
		return err
	}

	key := []byte(strconv.FormatInt(event.OrderID, 10))
	return p.producer.Publish(key, value,
		kafka.Header{Key: "x-event-type", Value: []byte(EventOrderCommitted)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(eventVersion))},
	)
}

func EncodeOrderCommitted(event models.OrderCommitted) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("kafka: encode payload: %w", err)
	}

	b, err := json.Marshal(Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventOrderCommitted,
		EventVersion: eventVersion,
		OccurredAt:   event.CommittedAt.UTC(),
		Producer:     producerName,
		Payload:      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka: encode envelope: %w", err)
	}
	return b, nil
}

// DecodeOrderCommitted обратная операция для потребителей события
func DecodeOrderCommitted(b []byte) (*Envelope, models.OrderCommitted, error) {
	var env Envelope
	var event models.OrderCommitted
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, event, fmt.Errorf("kafka: decode envelope: %w", err)
	}
	if env.EventType != EventOrderCommitted {
		return &env, event, fmt.Errorf("kafka: unexpected event type %q", env.EventType)
	}
	if err := json.Unmarshal(env.Payload, &event); err != nil {
		return &env, event, fmt.Errorf("kafka: decode payload: %w", err)
	}
	return &env, event, nil
}
