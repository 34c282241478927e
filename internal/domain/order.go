package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа в книжном магазине.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, ожидает подтверждения.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusConfirmed — заказ подтверждён администратором.
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusDelivered — заказ доставлен покупателю.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled — заказ отменён; терминальный статус.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// AllOrderStatuses перечисляет статусы в порядке прямого жизненного цикла.
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid сообщает, входит ли значение в известный набор статусов.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsCancellable определяет единственное правило «из каких статусов заказ можно отменить».
// Им пользуются и клиентский, и административный путь.
func IsCancellable(s OrderStatus) bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// forwardOrder задаёт строгую последовательность прямых переходов.
var forwardOrder = map[OrderStatus]OrderStatus{
	OrderStatusPending:   OrderStatusConfirmed,
	OrderStatusConfirmed: OrderStatusShipped,
	OrderStatusShipped:   OrderStatusDelivered,
}

// CanAdvance проверяет прямой переход без пропуска шагов:
// PENDING → CONFIRMED → SHIPPED → DELIVERED.
func CanAdvance(from, to OrderStatus) bool {
	next, ok := forwardOrder[from]
	return ok && next == to
}

// OrderItem представляет одну позицию заказа.
// Позиция хранит только идентификатор книги и зафиксированную цену —
// обратной ссылки на заказ и живой ссылки на каталог у неё нет.
type OrderItem struct {
	ID string
	// BookID — идентификатор книги в каталоге на момент оформления.
	BookID string
	// Qty — количество экземпляров.
	Qty int32
	// UnitPrice — цена за экземпляр, снятая при создании заказа.
	// После фиксации не пересчитывается, даже если цена в каталоге изменится.
	UnitPrice decimal.Decimal
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Subtotal возвращает стоимость позиции: цена × количество.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID     string
	UserID string
	Status OrderStatus
	// TotalAmount равен сумме Subtotal всех позиций. Вычисляется один раз
	// при создании и далее не меняется — отмена не обнуляет сумму.
	TotalAmount     decimal.Decimal
	Items           []OrderItem
	ShippingAddress string
	// PaymentMethod хранится как непрозрачная строка; обработка платежей вне ядра.
	PaymentMethod string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanBeCancelled сообщает, допускает ли текущий статус отмену.
func (o *Order) CanBeCancelled() bool {
	return IsCancellable(o.Status)
}

// ItemsTotal считает сумму позиций заказа.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if o.ShippingAddress == "" {
		errs = append(errs, ErrShippingAddressRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrStatusUnknown)
	}
	if o.TotalAmount.IsNegative() {
		errs = append(errs, ErrAmountNegative)
	}

	for _, item := range o.Items {
		if item.BookID == "" {
			errs = append(errs, ErrItemBookRequired)
		}
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	// Сверяем сумму заказа с суммой позиций.
	if !o.ItemsTotal().Equal(o.TotalAmount) {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
