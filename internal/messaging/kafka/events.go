package kafka

import "time"

// EventType определяет тип события жизненного цикла заказа.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderConfirmed     EventType = "order.confirmed"
	EventTypeOrderShipped       EventType = "order.shipped"
	EventTypeOrderDelivered     EventType = "order.delivered"
	EventTypeOrderCancelled     EventType = "order.cancelled"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeStockReleased      EventType = "stock.released"
)

// Topics для Kafka.
const (
	TopicOrderEvents     = "bookstore.order.events"
	TopicDeadLetterQueue = "bookstore.dlq"
)

// OrderEvent представляет событие заказа, публикуемое наружу.
type OrderEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id"`
	UserID    string                 `json:"user_id,omitempty"`
	Status    string                 `json:"status,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создаёт событие заказа с текущим временем.
func NewOrderEvent(eventType EventType, orderID, userID, status string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		UserID:    userID,
		Status:    status,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
