package repository

import (
	"context"
	"fmt"

	"chat_service/internal/chat/domain"
	"chat_service/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher delivery audit event sink
type EventPublisher interface {
	Publish(ctx context.Context, event domain.MessageEvent) error
	Close() error
}

// KafkaEventPublisher write events to kafka, key 為對話雙方讓同一對話落在同一 partition
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

// NewKafkaEventPublisher create publisher
func NewKafkaEventPublisher(writer *kafka.Writer) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer}
}

// Publish write one event
func (p *KafkaEventPublisher) Publish(ctx context.Context, event domain.MessageEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	key := event.MessageID
	if event.SenderID != "" && event.ReceiverID != "" {
		key = domain.PairKey(event.SenderID, event.ReceiverID)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}); err != nil {
		return fmt.Errorf("write event %s: %w", event.Type, err)
	}

	logger.Log.Debug("event published", zap.String("type", string(event.Type)), zap.String("key", key))
	return nil
}

// Close flush and close writer
func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

// NopEventPublisher kafka 未啟用時使用
type NopEventPublisher struct{}

// Publish drop event
func (NopEventPublisher) Publish(ctx context.Context, event domain.MessageEvent) error { return nil }

// Close nothing
func (NopEventPublisher) Close() error { return nil }
