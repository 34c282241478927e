package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	"github.com/vladislavdragonenkov/bookstore/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/bookstore/internal/metrics"
)

// CreateOrderItem — запрошенная позиция корзины.
type CreateOrderItem struct {
	BookID string
	Qty    int32
}

// CreateOrderRequest — входные данные операции создания заказа.
type CreateOrderRequest struct {
	UserID          string
	ShippingAddress string
	PaymentMethod   string
	Items           []CreateOrderItem
}

// Engine оркестрирует жизненный цикл заказа: создание с резервированием
// склада, отмену с компенсирующим возвратом остатков и смену статусов.
type Engine struct {
	orders    domain.OrderRepository
	catalog   domain.CatalogStore
	inventory domain.InventoryLedger
	outbox    domain.OutboxRepository
	timeline  domain.TimelineRepository
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
}

// Option настраивает Engine.
type Option func(*Engine)

// WithOutbox включает постановку событий заказа в transactional outbox.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(e *Engine) { e.outbox = outbox }
}

// WithTimeline включает ведение истории статусов заказа.
func WithTimeline(timeline domain.TimelineRepository) Option {
	return func(e *Engine) { e.timeline = timeline }
}

// WithMetrics задаёт коллекторы метрик (nil отключает метрики, для тестов).
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine создаёт рабочий экземпляр движка заказов.
func NewEngine(
	orders domain.OrderRepository,
	catalog domain.CatalogStore,
	inventory domain.InventoryLedger,
	logger *log.Entry,
	options ...Option,
) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "order-workflow")
	}
	engine := &Engine{
		orders:    orders,
		catalog:   catalog,
		inventory: inventory,
		logger:    logger,
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

const (
	timelineEventOrderCreated       = "OrderCreated"
	timelineEventOrderCancelled     = "OrderCancelled"
	timelineEventOrderStatusChanged = "OrderStatusChanged"

	saveMaxRetries    = 3
	saveRetryBaseWait = 10 * time.Millisecond
)

// CreateOrder валидирует корзину, резервирует остатки по каждой позиции и
// сохраняет заказ со статусом PENDING. Семантика — всё или ничего: при
// любой неудаче все сделанные в этом вызове резервы снимаются.
func (e *Engine) CreateOrder(req CreateOrderRequest) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.RecordCreateDuration(time.Since(start))
		}
	}()

	if err := validateCreateRequest(req); err != nil {
		e.recordCreateRejected("invalid_request")
		return domain.Order{}, err
	}

	// UserID нормализуется до поиска: заказ сохраняется с тем же значением,
	// по которому потом проверяется владелец.
	req.UserID = strings.TrimSpace(req.UserID)

	if _, err := e.catalog.FindUserByID(req.UserID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			e.recordCreateRejected("user_not_found")
			return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, req.UserID)
		}
		return domain.Order{}, fmt.Errorf("lookup user %s: %w", req.UserID, err)
	}

	now := time.Now().UTC()
	items := make([]domain.OrderItem, 0, len(req.Items))
	total := decimal.Zero

	for _, requested := range req.Items {
		if _, err := e.catalog.FindBookByID(requested.BookID); err != nil {
			e.rollbackReservations(items)
			if errors.Is(err, domain.ErrBookNotFound) {
				e.recordCreateRejected("book_not_found")
				return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrBookNotFound, requested.BookID)
			}
			return domain.Order{}, fmt.Errorf("lookup book %s: %w", requested.BookID, err)
		}

		// Цену фиксирует сам резерв: она снята тем же атомарным шагом,
		// которым списан остаток.
		unitPrice, err := e.inventory.Reserve(requested.BookID, requested.Qty)
		if err != nil {
			e.rollbackReservations(items)
			switch {
			case errors.Is(err, domain.ErrInsufficientStock):
				e.recordCreateRejected("insufficient_stock")
				return domain.Order{}, fmt.Errorf("%w: book %s", domain.ErrInsufficientStock, requested.BookID)
			case errors.Is(err, domain.ErrBookNotFound):
				e.recordCreateRejected("book_not_found")
				return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrBookNotFound, requested.BookID)
			default:
				return domain.Order{}, fmt.Errorf("reserve book %s: %w", requested.BookID, err)
			}
		}

		item := domain.OrderItem{
			ID:        uuid.NewString(),
			BookID:    requested.BookID,
			Qty:       requested.Qty,
			UnitPrice: unitPrice,
			CreatedAt: now,
		}
		items = append(items, item)
		total = total.Add(item.Subtotal())
	}

	order := domain.Order{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Status:          domain.OrderStatusPending,
		TotalAmount:     total,
		Items:           items,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		Version:         0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		e.rollbackReservations(items)
		return domain.Order{}, joinErrors(errs)
	}

	if err := e.orders.Create(order); err != nil {
		// Заказ не сохранился — возвращаем остатки, резервы этого вызова
		// не должны переживать неудачную попытку.
		e.rollbackReservations(items)
		e.logger.WithError(err).WithField("order_id", order.ID).Error("failed to persist order")
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}

	if e.metrics != nil {
		e.metrics.RecordOrderCreated()
		for _, item := range items {
			e.metrics.RecordStockReserved(item.Qty)
		}
	}
	e.appendTimeline(order.ID, timelineEventOrderCreated, string(order.Status), now)
	e.emitEvent(&order, kafka.EventTypeOrderCreated, map[string]interface{}{
		"total_amount": order.TotalAmount.String(),
		"items_count":  len(order.Items),
	})

	e.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalAmount.String(),
	}).Info("order created")

	return order, nil
}

// CancelOrder отменяет заказ по запросу владельца.
// Сначала фиксируется переход в CANCELLED (optimistic lock гарантирует
// единственного победителя), и только затем остатки возвращаются на склад —
// так компенсация выполняется ровно один раз.
func (e *Engine) CancelOrder(orderID, requestingUserID string) (domain.Order, error) {
	order, err := e.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, e.wrapLoadError(orderID, "CancelOrder", err)
	}

	if order.UserID != requestingUserID {
		return domain.Order{}, fmt.Errorf("%w: order %s", domain.ErrForbidden, orderID)
	}

	updated, err := e.transition(order, domain.OrderStatusCancelled, func(current *domain.Order) error {
		if !current.CanBeCancelled() {
			return fmt.Errorf("%w: status %s", domain.ErrOrderNotCancellable, current.Status)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	e.releaseOrderStock(&updated)
	if e.metrics != nil {
		e.metrics.RecordOrderCancelled()
	}
	e.appendTimeline(updated.ID, timelineEventOrderCancelled, "cancelled by customer", updated.UpdatedAt)
	e.emitEvent(&updated, kafka.EventTypeOrderCancelled, nil)

	e.logger.WithFields(log.Fields{
		"order_id": updated.ID,
		"user_id":  requestingUserID,
	}).Info("order cancelled")

	return updated, nil
}

// AdvanceStatus — административная установка статуса. Пропуски шагов
// сознательно разрешены (контракт админ-панели свободнее клиентского),
// но переход в CANCELLED всё равно компенсирует складские резервы.
func (e *Engine) AdvanceStatus(orderID string, newStatus domain.OrderStatus) (domain.Order, error) {
	if !newStatus.Valid() {
		return domain.Order{}, fmt.Errorf("%w: %q", domain.ErrStatusUnknown, newStatus)
	}

	order, err := e.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, e.wrapLoadError(orderID, "AdvanceStatus", err)
	}
	if order.Status == newStatus {
		return order, nil
	}

	wasCancelled := order.Status == domain.OrderStatusCancelled
	updated, err := e.transition(order, newStatus, func(current *domain.Order) error {
		wasCancelled = current.Status == domain.OrderStatusCancelled
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	if newStatus == domain.OrderStatusCancelled && !wasCancelled {
		e.releaseOrderStock(&updated)
		if e.metrics != nil {
			e.metrics.RecordOrderCancelled()
		}
	}
	e.appendTimeline(updated.ID, timelineEventOrderStatusChanged, string(newStatus), updated.UpdatedAt)
	e.emitEvent(&updated, kafka.EventTypeOrderStatusChanged, map[string]interface{}{
		"status": string(newStatus),
	})

	return updated, nil
}

// ConfirmOrder переводит заказ PENDING → CONFIRMED.
func (e *Engine) ConfirmOrder(orderID string) (domain.Order, error) {
	return e.advanceSequential(orderID, domain.OrderStatusConfirmed, kafka.EventTypeOrderConfirmed)
}

// MarkShipped переводит заказ CONFIRMED → SHIPPED.
func (e *Engine) MarkShipped(orderID string) (domain.Order, error) {
	return e.advanceSequential(orderID, domain.OrderStatusShipped, kafka.EventTypeOrderShipped)
}

// MarkDelivered переводит заказ SHIPPED → DELIVERED.
func (e *Engine) MarkDelivered(orderID string) (domain.Order, error) {
	return e.advanceSequential(orderID, domain.OrderStatusDelivered, kafka.EventTypeOrderDelivered)
}

// GetOrder возвращает заказ по идентификатору.
func (e *Engine) GetOrder(orderID string) (domain.Order, error) {
	order, err := e.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, e.wrapLoadError(orderID, "GetOrder", err)
	}
	return order, nil
}

// ListOrdersByUser возвращает заказы пользователя, новые первыми.
func (e *Engine) ListOrdersByUser(userID string, limit int) ([]domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUserRequired
	}
	return e.orders.ListByUser(userID, limit)
}

// ListOrdersByStatus возвращает заказы в заданном статусе.
func (e *Engine) ListOrdersByStatus(status domain.OrderStatus, limit int) ([]domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrStatusUnknown, status)
	}
	return e.orders.ListByStatus(status, limit)
}

// Timeline возвращает историю событий заказа (если timeline настроен).
func (e *Engine) Timeline(orderID string) ([]domain.TimelineEvent, error) {
	if e.timeline == nil {
		return nil, nil
	}
	return e.timeline.List(orderID)
}

func (e *Engine) advanceSequential(orderID string, target domain.OrderStatus, eventType kafka.EventType) (domain.Order, error) {
	order, err := e.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, e.wrapLoadError(orderID, string(eventType), err)
	}

	updated, err := e.transition(order, target, func(current *domain.Order) error {
		if !domain.CanAdvance(current.Status, target) {
			return fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, current.Status, target)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	e.appendTimeline(updated.ID, timelineEventOrderStatusChanged, string(target), updated.UpdatedAt)
	e.emitEvent(&updated, eventType, nil)
	return updated, nil
}

// transition меняет статус заказа с повтором при конфликте версий.
// precheck выполняется заново после каждой перезагрузки заказа, поэтому
// проигравший гонку вызов увидит свежий статус и вернёт ошибку предусловия.
func (e *Engine) transition(
	order domain.Order,
	newStatus domain.OrderStatus,
	precheck func(current *domain.Order) error,
) (domain.Order, error) {
	for attempt := 0; attempt < saveMaxRetries; attempt++ {
		if err := precheck(&order); err != nil {
			return domain.Order{}, err
		}

		order.Status = newStatus
		order.UpdatedAt = time.Now().UTC()

		err := e.orders.Save(order)
		if err == nil {
			order.Version++
			if e.metrics != nil {
				e.metrics.RecordStatusTransition(string(newStatus))
			}
			return order, nil
		}

		if domain.IsVersionConflict(err) && attempt < saveMaxRetries-1 {
			e.logger.WithFields(log.Fields{
				"order_id": order.ID,
				"attempt":  attempt + 1,
			}).Warn("version conflict detected, retrying")

			fresh, loadErr := e.orders.Get(order.ID)
			if loadErr != nil {
				return domain.Order{}, e.wrapLoadError(order.ID, "transition", loadErr)
			}
			order = fresh

			time.Sleep(saveRetryBaseWait * time.Duration(1<<uint(attempt)))
			continue
		}

		e.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"status":   newStatus,
		}).Error("failed to persist status")
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, order.ID)
		}
		return domain.Order{}, fmt.Errorf("save order %s: %w", order.ID, err)
	}

	return domain.Order{}, domain.ErrOrderVersionConflict
}

// releaseOrderStock возвращает остатки по каждой позиции заказа.
// Удалённая из каталога книга не блокирует отмену: такая позиция
// логируется и пропускается.
func (e *Engine) releaseOrderStock(order *domain.Order) {
	for _, item := range order.Items {
		if err := e.inventory.Release(item.BookID, item.Qty); err != nil {
			e.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"book_id":  item.BookID,
				"qty":      item.Qty,
			}).Warn("failed to release stock for order item")
			continue
		}
		if e.metrics != nil {
			e.metrics.RecordStockReleased(item.Qty)
		}
	}
}

// rollbackReservations снимает резервы, сделанные в рамках одной
// неудавшейся попытки создания заказа.
func (e *Engine) rollbackReservations(reserved []domain.OrderItem) {
	for _, item := range reserved {
		if err := e.inventory.Release(item.BookID, item.Qty); err != nil {
			e.logger.WithError(err).WithFields(log.Fields{
				"book_id": item.BookID,
				"qty":     item.Qty,
			}).Error("failed to rollback reservation")
		}
	}
}

func (e *Engine) wrapLoadError(orderID, operation string, err error) error {
	if errors.Is(err, domain.ErrOrderNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	e.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"order_id":  orderID,
	}).Error("failed to load order")
	return fmt.Errorf("load order %s: %w", orderID, err)
}

func (e *Engine) recordCreateRejected(reason string) {
	if e.metrics != nil {
		e.metrics.RecordCreateRejected(reason)
	}
}

func (e *Engine) appendTimeline(orderID, eventType, reason string, occurred time.Time) {
	if e.timeline == nil {
		return
	}
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: occurred,
	}
	if err := e.timeline.Append(event); err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Warn("failed to append timeline event")
		return
	}
	if e.metrics != nil {
		e.metrics.RecordTimelineEvent()
	}
}

// emitEvent ставит событие жизненного цикла в transactional outbox;
// публикацией в брокер занимается outbox worker.
func (e *Engine) emitEvent(order *domain.Order, eventType kafka.EventType, metadata map[string]interface{}) {
	if e.outbox == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.UserID, string(order.Status), metadata)
	payload, err := json.Marshal(event)
	if err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("marshal order event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(eventType),
		Payload:       payload,
	}
	if _, err := e.outbox.Enqueue(msg); err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("enqueue order event failed")
		return
	}
	if e.metrics != nil {
		e.metrics.RecordOutboxEvent()
	}
}

func validateCreateRequest(req CreateOrderRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return domain.ErrUserRequired
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return domain.ErrShippingAddressRequired
	}
	if len(req.Items) == 0 {
		return domain.ErrItemsRequired
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.BookID) == "" {
			return domain.ErrItemBookRequired
		}
		if item.Qty <= 0 {
			return domain.ErrItemQtyInvalid
		}
	}
	return nil
}

func joinErrors(errs []error) error {
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return fmt.Errorf("order validation failed: %s", strings.Join(messages, "; "))
}
