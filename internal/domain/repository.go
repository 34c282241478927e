package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeWindow ограничивает выборку по времени создания заказа.
// Нулевые границы означают «без ограничения».
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// Contains проверяет попадание момента в окно.
func (w TimeWindow) Contains(ts time.Time) bool {
	if !w.From.IsZero() && ts.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && ts.After(w.To) {
		return false
	}
	return true
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями одной атомарной операцией.
	// Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByUser возвращает заказы пользователя, новые первыми,
	// с опциональным ограничением на количество.
	ListByUser(userID string, limit int) ([]Order, error)
	// ListByStatus возвращает заказы в заданном статусе, новые первыми.
	ListByStatus(status OrderStatus, limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error

	// CountAll возвращает число заказов, созданных внутри окна.
	CountAll(window TimeWindow) (int64, error)
	// CountByStatus возвращает число заказов в статусе внутри окна.
	CountByStatus(status OrderStatus, window TimeWindow) (int64, error)
	// SumTotalByStatus суммирует TotalAmount заказов в статусе внутри окна.
	SumTotalByStatus(status OrderStatus, window TimeWindow) (decimal.Decimal, error)
}
