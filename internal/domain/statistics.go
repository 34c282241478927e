package domain

import "github.com/shopspring/decimal"

// OrderStatistics — агрегированная сводка по заказам для админ-панели.
// Считается напрямую по хранилищу заказов, отдельного кэша нет.
type OrderStatistics struct {
	TotalOrders     int64
	PendingOrders   int64
	ConfirmedOrders int64
	ShippedOrders   int64
	DeliveredOrders int64
	CancelledOrders int64
	// TotalRevenue — сумма заказов в статусе DELIVERED:
	// выручка признаётся по факту доставки, а не создания заказа.
	TotalRevenue decimal.Decimal
}
