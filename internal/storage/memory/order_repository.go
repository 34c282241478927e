package memory

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderVersionConflict
	}
	// Сохраняем копию позиций, чтобы избежать мутаций извне.
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	r.items[order.ID] = order
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	return order, nil
}

// ListByUser возвращает заказы пользователя, ограничивая выборку limit (если >0).
func (r *orderRepositoryInMemory) ListByUser(userID string, limit int) ([]domain.Order, error) {
	return r.list(func(order domain.Order) bool { return order.UserID == userID }, limit), nil
}

// ListByStatus возвращает заказы в заданном статусе.
func (r *orderRepositoryInMemory) ListByStatus(status domain.OrderStatus, limit int) ([]domain.Order, error) {
	return r.list(func(order domain.Order) bool { return order.Status == status }, limit), nil
}

func (r *orderRepositoryInMemory) list(match func(domain.Order) bool, limit int) []domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if !match(order) {
			continue
		}
		order.Items = append([]domain.OrderItem(nil), order.Items...)
		result = append(result, order)
	}

	// Новые заказы первыми; при равном времени — стабильный порядок по ID.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result
}

// Save перезаписывает заказ, проверяя версию (optimistic locking).
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	// Инкрементируем версию перед сохранением.
	order.Version++
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	r.items[order.ID] = order
	return nil
}

// CountAll возвращает число заказов, созданных внутри окна.
func (r *orderRepositoryInMemory) CountAll(window domain.TimeWindow) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, order := range r.items {
		if window.Contains(order.CreatedAt) {
			count++
		}
	}
	return count, nil
}

// CountByStatus возвращает число заказов в статусе внутри окна.
func (r *orderRepositoryInMemory) CountByStatus(status domain.OrderStatus, window domain.TimeWindow) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, order := range r.items {
		if order.Status == status && window.Contains(order.CreatedAt) {
			count++
		}
	}
	return count, nil
}

// SumTotalByStatus суммирует TotalAmount заказов в статусе внутри окна.
func (r *orderRepositoryInMemory) SumTotalByStatus(status domain.OrderStatus, window domain.TimeWindow) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum := decimal.Zero
	for _, order := range r.items {
		if order.Status == status && window.Contains(order.CreatedAt) {
			sum = sum.Add(order.TotalAmount)
		}
	}
	return sum, nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
