package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

func newOrder(id string, status domain.OrderStatus, createdAt time.Time) domain.Order {
	price := decimal.RequireFromString("15.00")
	return domain.Order{
		ID:          id,
		UserID:      "user-1",
		Status:      status,
		TotalAmount: price,
		Items: []domain.OrderItem{{
			ID:        id + "-item",
			BookID:    "book-1",
			Qty:       1,
			UnitPrice: price,
			CreatedAt: createdAt,
		}},
		ShippingAddress: "addr",
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()

	order := newOrder("order-1", domain.OrderStatusPending, now)
	if err := repo.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Повторное создание с тем же ID отклоняется.
	if err := repo.Create(order); err == nil {
		t.Fatal("expected duplicate create to fail")
	}

	got, err := repo.Get("order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "order-1" || len(got.Items) != 1 {
		t.Fatalf("unexpected order: %+v", got)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_Get_ReturnsCopy(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()

	if err := repo.Create(newOrder("order-1", domain.OrderStatusPending, now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, _ := repo.Get("order-1")
	first.Items[0].Qty = 99

	second, _ := repo.Get("order-1")
	if second.Items[0].Qty != 1 {
		t.Fatal("mutating returned items must not affect stored order")
	}
}

func TestOrderRepository_Save_OptimisticLocking(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()

	order := newOrder("order-1", domain.OrderStatusPending, now)
	if err := repo.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}

	order.Status = domain.OrderStatusConfirmed
	if err := repo.Save(order); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Сохранение со старой версией конфликтует.
	order.Status = domain.OrderStatusShipped
	if err := repo.Save(order); !domain.IsVersionConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	fresh, _ := repo.Get("order-1")
	if fresh.Version != 1 || fresh.Status != domain.OrderStatusConfirmed {
		t.Fatalf("unexpected state after conflict: version=%d status=%s", fresh.Version, fresh.Status)
	}

	if err := repo.Save(newOrder("missing", domain.OrderStatusPending, now)); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_Lists(t *testing.T) {
	repo := NewOrderRepository()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, status := range []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusConfirmed,
		domain.OrderStatusPending,
	} {
		order := newOrder(string(rune('a'+i)), status, base.Add(time.Duration(i)*time.Hour))
		if err := repo.Create(order); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	byUser, err := repo.ListByUser("user-1", 0)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(byUser))
	}
	// Новые первыми.
	if !byUser[0].CreatedAt.After(byUser[1].CreatedAt) {
		t.Fatal("expected newest-first ordering")
	}

	limited, err := repo.ListByUser("user-1", 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit 2, got %d", len(limited))
	}

	pending, err := repo.ListByStatus(domain.OrderStatusPending, 0)
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}

	empty, err := repo.ListByUser("nobody", 0)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no orders, got %d", len(empty))
	}
}

func TestOrderRepository_Aggregates(t *testing.T) {
	repo := NewOrderRepository()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	delivered := newOrder("d1", domain.OrderStatusDelivered, base)
	delivered.TotalAmount = decimal.RequireFromString("25.00")
	if err := repo.Create(delivered); err != nil {
		t.Fatalf("create delivered: %v", err)
	}

	late := newOrder("d2", domain.OrderStatusDelivered, base.Add(48*time.Hour))
	late.TotalAmount = decimal.RequireFromString("75.00")
	if err := repo.Create(late); err != nil {
		t.Fatalf("create late: %v", err)
	}

	if err := repo.Create(newOrder("p1", domain.OrderStatusPending, base)); err != nil {
		t.Fatalf("create pending: %v", err)
	}

	total, err := repo.CountAll(domain.TimeWindow{})
	if err != nil || total != 3 {
		t.Fatalf("count all = %d, %v; want 3", total, err)
	}

	deliveredCnt, err := repo.CountByStatus(domain.OrderStatusDelivered, domain.TimeWindow{})
	if err != nil || deliveredCnt != 2 {
		t.Fatalf("delivered count = %d, %v; want 2", deliveredCnt, err)
	}

	sum, err := repo.SumTotalByStatus(domain.OrderStatusDelivered, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if !sum.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("sum = %s, want 100.00", sum)
	}

	// Окно отсекает поздний заказ.
	window := domain.TimeWindow{To: base.Add(24 * time.Hour)}
	windowSum, err := repo.SumTotalByStatus(domain.OrderStatusDelivered, window)
	if err != nil {
		t.Fatalf("window sum: %v", err)
	}
	if !windowSum.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("window sum = %s, want 25.00", windowSum)
	}

	windowTotal, err := repo.CountAll(window)
	if err != nil || windowTotal != 2 {
		t.Fatalf("window count = %d, %v; want 2", windowTotal, err)
	}
}
