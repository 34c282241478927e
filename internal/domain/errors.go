package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора пользователя.
	ErrUserRequired = errors.New("user_id is required")
	// Ошибка пустого адреса доставки.
	ErrShippingAddressRequired = errors.New("shipping address is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("total amount must be non-negative")
	// Ошибка при некорректном количестве (<= 0) в позиции.
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка отсутствующего идентификатора книги в позиции.
	ErrItemBookRequired = errors.New("item book_id is required")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match items sum")
	// Ошибка неизвестного значения статуса.
	ErrStatusUnknown = errors.New("unknown order status")

	// ErrBookNotFound возвращается, если книги нет в каталоге.
	ErrBookNotFound = errors.New("book not found")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInsufficientStock — бизнес-ошибка резервирования: на складе меньше, чем запрошено.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrForbidden — заказ принадлежит другому пользователю.
	ErrForbidden = errors.New("order belongs to another user")
	// ErrOrderNotCancellable — статус заказа не допускает отмену.
	ErrOrderNotCancellable = errors.New("order cannot be cancelled in its current status")
	// ErrInvalidTransition — прямой переход нарушает последовательность статусов.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsNotFound покрывает все варианты «не найдено» из таксономии ядра.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}
