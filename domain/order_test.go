package domain

import (
	"testing"
	"time"
)

func TestNewOrderDefaults(t *testing.T) {
	o := NewOrder()
	if o.PartitionKey != OrderPartition {
		t.Fatalf("partition = %q, want %q", o.PartitionKey, OrderPartition)
	}
	if o.RowKey == "" {
		t.Fatal("row key not assigned")
	}
	if o.Status != OrderPending {
		t.Fatalf("status = %q, want Pending", o.Status)
	}
	if NewOrder().RowKey == o.RowKey {
		t.Fatal("row keys must be unique")
	}
}

func TestOrderTotalPrice(t *testing.T) {
	o := &Order{Quantity: 3, UnitPrice: 1200}
	if got := o.TotalPrice(); got != 3600 {
		t.Fatalf("total = %v, want 3600", got)
	}
}

func TestNotificationRoundTrip(t *testing.T) {
	n := OrderNotification{
		OrderID:      "o-1",
		CustomerID:   "c-1",
		CustomerName: "Thandi Nkosi",
		ProductName:  "Court Classic",
		Quantity:     3,
		TotalPrice:   3600,
		OrderDate:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Status:       OrderPending,
	}
	payload, err := n.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeOrderNotification(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != n {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, n)
	}
}

func TestDecodeOrderNotificationRejectsGarbage(t *testing.T) {
	if _, err := DecodeOrderNotification("not json"); err == nil {
		t.Fatal("expected decode error")
	}
}
