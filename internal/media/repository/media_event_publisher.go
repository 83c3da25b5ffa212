package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog_media_service/internal/media/domain"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter the part of *kafka.Writer the publisher needs
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type kafkaMediaEventPublisher struct {
	writer KafkaWriter
}

// NewKafkaMediaEventPublisher publish media events keyed by video id
func NewKafkaMediaEventPublisher(writer KafkaWriter) MediaEventPublisher {
	return &kafkaMediaEventPublisher{writer: writer}
}

func (p *kafkaMediaEventPublisher) Publish(ctx context.Context, event domain.MediaEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("media event JSON 序列化失敗: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.VideoID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
}

type nopMediaEventPublisher struct{}

// NewNopMediaEventPublisher kafka 關閉時使用
func NewNopMediaEventPublisher() MediaEventPublisher {
	return nopMediaEventPublisher{}
}

func (nopMediaEventPublisher) Publish(context.Context, domain.MediaEvent) error {
	return nil
}
