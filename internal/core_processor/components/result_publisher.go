package components

import (
	"context"

	"github.com/banquito-core-processor/internal/domain/payment"
)

// MessagePublisher is the subset of a Kafka producer the result publisher needs
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// ResultPublisherImpl emits every final result keyed by its unique code
type ResultPublisherImpl struct {
	producer MessagePublisher
}

func NewResultPublisher(producer MessagePublisher) *ResultPublisherImpl {
	return &ResultPublisherImpl{producer: producer}
}

func (p *ResultPublisherImpl) PublishResult(ctx context.Context, result *payment.Result) error {
	return p.producer.Publish(ctx, result.UniqueCode, result)
}
