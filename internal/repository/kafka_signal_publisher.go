package repository

import (
	"context"

	"QuantSuperior/internal/domain/models"
	drepo "QuantSuperior/internal/domain/repository"
)

type keyedPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value any) error
}

// KafkaSignalPublisher publishes alerts keyed by symbol so one symbol stays on one partition.
type KafkaSignalPublisher struct {
	producer keyedPublisher
	topic    string
}

func NewKafkaSignalPublisher(producer keyedPublisher, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

var _ drepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

func (p *KafkaSignalPublisher) PublishSignal(ctx context.Context, alert models.SignalAlert) error {
	return p.producer.Publish(ctx, p.topic, []byte(alert.Symbol), alert)
}
