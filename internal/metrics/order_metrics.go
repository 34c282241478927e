package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики операций над заказами.
type OrderMetrics struct {
	// Счётчики операций
	ordersCreated   prometheus.Counter
	ordersCancelled prometheus.Counter
	createRejected  *prometheus.CounterVec

	// Гистограмма времени создания заказа
	createDuration prometheus.Histogram

	// Переходы статусов
	statusTransitions *prometheus.CounterVec

	// Складские операции
	stockReserved prometheus.Counter
	stockReleased prometheus.Counter

	// Счётчики событий
	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter
}

// NewOrderMetrics создаёт и регистрирует метрики в default registerer.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bookstore_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bookstore_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		createRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bookstore_order_create_rejected_total",
			Help: "Total number of rejected order creations grouped by reason",
		}, []string{"reason"}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "bookstore_order_create_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		statusTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bookstore_order_status_transitions_total",
			Help: "Total number of order status transitions grouped by target status",
		}, []string{"to"}),
		stockReserved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bookstore_stock_reserved_units_total",
			Help: "Total number of stock units reserved by orders",
		}),
		stockReleased: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bookstore_stock_released_units_total",
			Help: "Total number of stock units released back by compensations",
		}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bookstore_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bookstore_outbox_events_total",
			Help: "Total number of events enqueued to transactional outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderCancelled увеличивает счётчик отменённых заказов.
func (m *OrderMetrics) RecordOrderCancelled() {
	m.ordersCancelled.Inc()
}

// RecordCreateRejected фиксирует отклонённое создание заказа с причиной.
func (m *OrderMetrics) RecordCreateRejected(reason string) {
	m.createRejected.WithLabelValues(reason).Inc()
}

// RecordCreateDuration записывает время создания заказа.
func (m *OrderMetrics) RecordCreateDuration(duration time.Duration) {
	m.createDuration.Observe(duration.Seconds())
}

// RecordStatusTransition фиксирует переход заказа в новый статус.
func (m *OrderMetrics) RecordStatusTransition(to string) {
	m.statusTransitions.WithLabelValues(to).Inc()
}

// RecordStockReserved учитывает списанные со склада единицы.
func (m *OrderMetrics) RecordStockReserved(units int32) {
	m.stockReserved.Add(float64(units))
}

// RecordStockReleased учитывает возвращённые на склад единицы.
func (m *OrderMetrics) RecordStockReleased(units int32) {
	m.stockReleased.Add(float64(units))
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
