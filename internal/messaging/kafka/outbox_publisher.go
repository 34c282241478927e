package kafka

import (
	"fmt"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// OutboxPublisher адаптирует Producer под порт domain.OutboxPublisher:
// событие из outbox уходит в топик заказов с ключом по агрегату,
// чтобы события одного заказа сохраняли порядок внутри партиции.
type OutboxPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт publisher для топика событий заказов.
func NewOutboxPublisher(producer *Producer) *OutboxPublisher {
	return &OutboxPublisher{producer: producer, topic: TopicOrderEvents}
}

// NewDLQPublisher создаёт publisher для dead letter queue.
func NewDLQPublisher(producer *Producer) *OutboxPublisher {
	return &OutboxPublisher{producer: producer, topic: TopicDeadLetterQueue}
}

// Publish отправляет payload события как есть; ключ — идентификатор агрегата.
func (p *OutboxPublisher) Publish(event domain.OutboxMessage) error {
	if p.producer == nil {
		return fmt.Errorf("kafka producer is not configured: %w", domain.ErrOutboxPublish)
	}
	return p.producer.PublishRaw(p.topic, event.AggregateID, event.Payload)
}

var _ domain.OutboxPublisher = (*OutboxPublisher)(nil)
