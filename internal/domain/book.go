package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book — запись каталога, потребляемая ядром заказов.
// Каталог владеет книгой; ядро меняет только StockQuantity и только
// через операции Inventory Ledger.
type Book struct {
	ID    string
	Title string
	// Price — текущая цена в каталоге с фиксированной точностью.
	Price decimal.Decimal
	// StockQuantity — складской остаток; никогда не опускается ниже нуля.
	StockQuantity int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAvailable сообщает, хватает ли остатка под запрошенное количество.
func (b *Book) IsAvailable(qty int32) bool {
	return qty > 0 && b.StockQuantity >= qty
}

// User — запись пользователя из внешнего каталога; ядру нужна только
// для проверки существования и владения заказом.
type User struct {
	ID       string
	Email    string
	FullName string
}
