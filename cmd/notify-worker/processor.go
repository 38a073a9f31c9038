package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ChihavaJoy/ABCRetailers/domain"
	"github.com/ChihavaJoy/ABCRetailers/storage"
)

// notificationQueue is the slice of the storage facade the worker needs.
type notificationQueue interface {
	ReceiveNotification(ctx context.Context, lease time.Duration) (*storage.Message, error)
	AckNotification(ctx context.Context, messageID, receipt string) error
}

type worker struct {
	queue       notificationQueue
	lease       time.Duration
	maxDequeues int64
	idleDelay   time.Duration
	logger      *log.Logger
}

func (w *worker) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		msg, err := w.queue.ReceiveNotification(ctx, w.lease)
		if err != nil {
			w.logger.Errorf("receive: %v", err)
			w.sleep(ctx)
			continue
		}
		if msg == nil {
			w.sleep(ctx)
			continue
		}
		w.handle(ctx, msg)
	}
}

// handle processes one message. The message is acknowledged only after
// successful processing; on a processing error it stays leased and
// reappears when the lease expires. A message that keeps failing past
// maxDequeues is dropped so a poison payload cannot wedge the queue.
func (w *worker) handle(ctx context.Context, msg *storage.Message) {
	if err := w.process(msg); err != nil {
		if msg.DequeueCount >= w.maxDequeues {
			w.logger.WithField("message", msg.ID).Errorf("dropping poison message after %d deliveries: %v", msg.DequeueCount, err)
			w.ack(ctx, msg)
			return
		}
		w.logger.WithField("message", msg.ID).Errorf("process: %v", err)
		return
	}
	w.ack(ctx, msg)
}

func (w *worker) process(msg *storage.Message) error {
	n, err := domain.DecodeOrderNotification(msg.Text)
	if err != nil {
		return err
	}
	w.logger.WithFields(log.Fields{
		"order":    n.OrderID,
		"customer": n.CustomerName,
		"product":  n.ProductName,
		"quantity": n.Quantity,
		"total":    n.TotalPrice,
		"status":   n.Status,
	}).Info("order notification")
	return nil
}

func (w *worker) ack(ctx context.Context, msg *storage.Message) {
	if err := w.queue.AckNotification(ctx, msg.ID, msg.Receipt); err != nil {
		w.logger.Errorf("ack %s: %v", msg.ID, err)
	}
}

func (w *worker) sleep(ctx context.Context) {
	select {
	case <-time.After(w.idleDelay):
	case <-ctx.Done():
	}
}
