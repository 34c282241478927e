package kafka

import (
	"encoding/json"
	"testing"
)

func TestNewOrderEvent(t *testing.T) {
	event := NewOrderEvent(EventTypeOrderCreated, "order-1", "user-1", "PENDING", map[string]interface{}{
		"total_amount": "112.50",
	})

	if event.EventType != EventTypeOrderCreated {
		t.Fatalf("event type = %s, want %s", event.EventType, EventTypeOrderCreated)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded["event_type"] != "order.created" {
		t.Fatalf("event_type = %v", decoded["event_type"])
	}
	if decoded["order_id"] != "order-1" {
		t.Fatalf("order_id = %v", decoded["order_id"])
	}
	metadata, ok := decoded["metadata"].(map[string]interface{})
	if !ok || metadata["total_amount"] != "112.50" {
		t.Fatalf("unexpected metadata: %v", decoded["metadata"])
	}
}

func TestOrderEvent_OmitsEmptyFields(t *testing.T) {
	event := NewOrderEvent(EventTypeStockReleased, "order-1", "", "", nil)

	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, field := range []string{"user_id", "status", "metadata"} {
		if _, present := decoded[field]; present {
			t.Fatalf("expected %s to be omitted", field)
		}
	}
}
