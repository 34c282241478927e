package stats

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// Aggregator — read-side сводка по заказам. Считает всё напрямую по
// хранилищу заказов, поэтому всегда согласован с текущим состоянием.
type Aggregator struct {
	orders domain.OrderRepository
	logger *log.Entry
}

// NewAggregator создаёт агрегатор статистики.
func NewAggregator(orders domain.OrderRepository, logger *log.Entry) *Aggregator {
	if logger == nil {
		logger = log.New().WithField("component", "order-stats")
	}
	return &Aggregator{orders: orders, logger: logger}
}

// GetStatistics возвращает количество заказов по статусам и выручку.
// Окно применяется по времени создания заказа; нулевое окно — вся история.
func (a *Aggregator) GetStatistics(window domain.TimeWindow) (domain.OrderStatistics, error) {
	var stats domain.OrderStatistics

	total, err := a.orders.CountAll(window)
	if err != nil {
		return domain.OrderStatistics{}, fmt.Errorf("count orders: %w", err)
	}
	stats.TotalOrders = total

	counts := map[domain.OrderStatus]*int64{
		domain.OrderStatusPending:   &stats.PendingOrders,
		domain.OrderStatusConfirmed: &stats.ConfirmedOrders,
		domain.OrderStatusShipped:   &stats.ShippedOrders,
		domain.OrderStatusDelivered: &stats.DeliveredOrders,
		domain.OrderStatusCancelled: &stats.CancelledOrders,
	}
	for _, status := range domain.AllOrderStatuses {
		count, err := a.orders.CountByStatus(status, window)
		if err != nil {
			return domain.OrderStatistics{}, fmt.Errorf("count orders in status %s: %w", status, err)
		}
		*counts[status] = count
	}

	// Выручка признаётся по доставленным заказам.
	revenue, err := a.orders.SumTotalByStatus(domain.OrderStatusDelivered, window)
	if err != nil {
		return domain.OrderStatistics{}, fmt.Errorf("sum delivered revenue: %w", err)
	}
	stats.TotalRevenue = revenue

	return stats, nil
}
