package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOrderStatus_Valid(t *testing.T) {
	for _, status := range AllOrderStatuses {
		if !status.Valid() {
			t.Fatalf("expected %s to be valid", status)
		}
	}

	if OrderStatus("UNKNOWN").Valid() {
		t.Fatal("expected UNKNOWN to be invalid")
	}
	if OrderStatus("pending").Valid() {
		t.Fatal("status tokens are case-sensitive, lowercase must be invalid")
	}
}

func TestIsCancellable(t *testing.T) {
	cases := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusPending, true},
		{OrderStatusConfirmed, true},
		{OrderStatusShipped, false},
		{OrderStatusDelivered, false},
		{OrderStatusCancelled, false},
	}

	for _, tc := range cases {
		if got := IsCancellable(tc.status); got != tc.want {
			t.Fatalf("IsCancellable(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestCanAdvance(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusConfirmed, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},

		// Пропуски шагов и движение назад запрещены.
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusShipped, false},

		// Терминальные статусы не продолжают цепочку.
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
	}

	for _, tc := range cases {
		if got := CanAdvance(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanAdvance(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestOrderItem_Subtotal(t *testing.T) {
	item := OrderItem{
		Qty:       3,
		UnitPrice: decimal.RequireFromString("12.50"),
	}

	want := decimal.RequireFromString("37.50")
	if !item.Subtotal().Equal(want) {
		t.Fatalf("subtotal = %s, want %s", item.Subtotal(), want)
	}
}

func validOrder() Order {
	now := time.Now().UTC()
	price := decimal.RequireFromString("10.00")
	return Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: OrderStatusPending,
		Items: []OrderItem{{
			ID:        "item-1",
			BookID:    "book-1",
			Qty:       2,
			UnitPrice: price,
			CreatedAt: now,
		}},
		TotalAmount:     price.Mul(decimal.NewFromInt(2)),
		ShippingAddress: "Tverskaya 1, Moscow",
		PaymentMethod:   "card",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestOrder_ValidateInvariants(t *testing.T) {
	t.Run("valid order passes", func(t *testing.T) {
		order := validOrder()
		if errs := order.ValidateInvariants(); len(errs) != 0 {
			t.Fatalf("expected no violations, got %v", errs)
		}
	})

	t.Run("missing fields reported", func(t *testing.T) {
		order := validOrder()
		order.UserID = ""
		order.ShippingAddress = ""
		order.Items = nil
		order.TotalAmount = decimal.Zero

		errs := order.ValidateInvariants()
		if !containsErr(errs, ErrUserRequired) {
			t.Fatal("expected ErrUserRequired")
		}
		if !containsErr(errs, ErrShippingAddressRequired) {
			t.Fatal("expected ErrShippingAddressRequired")
		}
		if !containsErr(errs, ErrItemsRequired) {
			t.Fatal("expected ErrItemsRequired")
		}
	})

	t.Run("amount mismatch reported", func(t *testing.T) {
		order := validOrder()
		order.TotalAmount = decimal.RequireFromString("999.99")

		if !containsErr(order.ValidateInvariants(), ErrAmountMismatch) {
			t.Fatal("expected ErrAmountMismatch")
		}
	})

	t.Run("bad item reported", func(t *testing.T) {
		order := validOrder()
		order.Items[0].Qty = 0
		order.Items[0].BookID = ""

		errs := order.ValidateInvariants()
		if !containsErr(errs, ErrItemQtyInvalid) {
			t.Fatal("expected ErrItemQtyInvalid")
		}
		if !containsErr(errs, ErrItemBookRequired) {
			t.Fatal("expected ErrItemBookRequired")
		}
	})

	t.Run("unknown status reported", func(t *testing.T) {
		order := validOrder()
		order.Status = OrderStatus("PAUSED")

		if !containsErr(order.ValidateInvariants(), ErrStatusUnknown) {
			t.Fatal("expected ErrStatusUnknown")
		}
	})
}

func TestOrder_CanBeCancelled(t *testing.T) {
	order := validOrder()

	order.Status = OrderStatusConfirmed
	if !order.CanBeCancelled() {
		t.Fatal("confirmed order must be cancellable")
	}

	order.Status = OrderStatusShipped
	if order.CanBeCancelled() {
		t.Fatal("shipped order must not be cancellable")
	}
}

func TestErrorHelpers(t *testing.T) {
	if !IsNotFound(ErrBookNotFound) || !IsNotFound(ErrUserNotFound) || !IsNotFound(ErrOrderNotFound) {
		t.Fatal("IsNotFound must cover all not-found sentinels")
	}
	if IsNotFound(ErrInsufficientStock) {
		t.Fatal("IsNotFound must not match business errors")
	}
	if !IsVersionConflict(ErrOrderVersionConflict) {
		t.Fatal("IsVersionConflict must match sentinel")
	}
}

func TestBook_IsAvailable(t *testing.T) {
	book := Book{StockQuantity: 5}

	if !book.IsAvailable(5) {
		t.Fatal("expected full stock to be available")
	}
	if book.IsAvailable(6) {
		t.Fatal("expected over-stock request to be unavailable")
	}
	if book.IsAvailable(0) {
		t.Fatal("zero qty is never available")
	}
}

func TestTimeWindow_Contains(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var open TimeWindow
	if !open.Contains(base) {
		t.Fatal("zero window must contain any moment")
	}

	window := TimeWindow{From: base.Add(-time.Hour), To: base.Add(time.Hour)}
	if !window.Contains(base) {
		t.Fatal("expected moment inside window")
	}
	if window.Contains(base.Add(2 * time.Hour)) {
		t.Fatal("expected moment after window to be excluded")
	}
	if window.Contains(base.Add(-2 * time.Hour)) {
		t.Fatal("expected moment before window to be excluded")
	}

	// Границы включаются.
	if !window.Contains(window.From) || !window.Contains(window.To) {
		t.Fatal("window bounds must be inclusive")
	}
}

func containsErr(errs []error, target error) bool {
	for _, err := range errs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
