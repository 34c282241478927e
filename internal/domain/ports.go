package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogStore описывает read-only доступ к каталогу книг и пользователей.
// Реализация внешняя по отношению к ядру; ядро никогда не пишет в каталог напрямую.
type CatalogStore interface {
	// FindBookByID возвращает книгу или ErrBookNotFound.
	FindBookByID(id string) (Book, error)
	// FindUserByID возвращает пользователя или ErrUserNotFound.
	FindUserByID(id string) (User, error)
}

// InventoryLedger охраняет инвариант неотрицательности складского остатка.
// Остаток меняется исключительно через эти две операции.
type InventoryLedger interface {
	// Reserve атомарно проверяет и уменьшает остаток книги на qty.
	// Возвращает цену за единицу, зафиксированную в момент списания,
	// либо ErrInsufficientStock / ErrBookNotFound.
	Reserve(bookID string, qty int32) (decimal.Decimal, error)
	// Release возвращает qty на склад (компенсация отмены).
	// Единственная ошибка — ErrBookNotFound, если книга удалена из каталога.
	Release(bookID string, qty int32) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
