package main

import (
	"context"
	"io"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ChihavaJoy/ABCRetailers/domain"
	"github.com/ChihavaJoy/ABCRetailers/storage"
)

type fakeQueue struct {
	acked []string
}

func (f *fakeQueue) ReceiveNotification(ctx context.Context, lease time.Duration) (*storage.Message, error) {
	return nil, nil
}

func (f *fakeQueue) AckNotification(ctx context.Context, messageID, receipt string) error {
	f.acked = append(f.acked, messageID)
	return nil
}

func testWorker(q notificationQueue) *worker {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return &worker{queue: q, lease: time.Second, maxDequeues: 3, idleDelay: time.Millisecond, logger: logger}
}

func validPayload(t *testing.T) string {
	t.Helper()
	payload, err := domain.OrderNotification{
		OrderID:     "o-1",
		ProductName: "Court Classic",
		Quantity:    2,
		TotalPrice:  2400,
		Status:      domain.OrderPending,
	}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return payload
}

func TestHandleAcksProcessedMessage(t *testing.T) {
	q := &fakeQueue{}
	w := testWorker(q)

	w.handle(context.Background(), &storage.Message{ID: "m-1", Receipt: "r-1", Text: validPayload(t), DequeueCount: 1})
	if len(q.acked) != 1 || q.acked[0] != "m-1" {
		t.Fatalf("acked = %v, want [m-1]", q.acked)
	}
}

func TestHandleLeavesFailedMessageLeased(t *testing.T) {
	q := &fakeQueue{}
	w := testWorker(q)

	w.handle(context.Background(), &storage.Message{ID: "m-1", Text: "not json", DequeueCount: 1})
	if len(q.acked) != 0 {
		t.Fatalf("acked = %v, want none so the message redelivers", q.acked)
	}
}

func TestHandleDropsPoisonMessage(t *testing.T) {
	q := &fakeQueue{}
	w := testWorker(q)

	w.handle(context.Background(), &storage.Message{ID: "m-1", Text: "not json", DequeueCount: 3})
	if len(q.acked) != 1 {
		t.Fatalf("acked = %v, want the poison message dropped", q.acked)
	}
}
