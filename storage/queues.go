package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// Message is one received queue message. The ID and Receipt must be
// presented together to acknowledge it; until then the message stays
// invisible for the lease window it was received with.
type Message struct {
	ID           string
	Receipt      string
	Text         string
	DequeueCount int64
}

// Queues provides at-least-once message delivery over named queues.
type Queues struct {
	svc *azqueue.ServiceClient
}

// NewQueues wraps an azqueue service client.
func NewQueues(svc *azqueue.ServiceClient) *Queues {
	return &Queues{svc: svc}
}

// Ensure creates the named queue if absent.
func (q *Queues) Ensure(ctx context.Context, name string) error {
	if _, err := q.svc.NewQueueClient(name).Create(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists" {
			return nil
		}
		return mapError("create queue "+name, err)
	}
	return nil
}

// Send enqueues one payload. Fire and forget: success of the call is the
// only delivery confirmation.
func (q *Queues) Send(ctx context.Context, name, payload string) error {
	if _, err := q.svc.NewQueueClient(name).EnqueueMessage(ctx, payload, nil); err != nil {
		return mapError("enqueue message", err)
	}
	return nil
}

// Receive retrieves at most one visible message, hiding it for the given
// lease window. It returns nil when the queue is empty. The message is NOT
// deleted; callers must Delete it after processing, or it reappears when
// the lease expires.
func (q *Queues) Receive(ctx context.Context, name string, lease time.Duration) (*Message, error) {
	opts := &azqueue.DequeueMessageOptions{}
	if lease > 0 {
		opts.VisibilityTimeout = to.Ptr(int32(lease / time.Second))
	}
	resp, err := q.svc.NewQueueClient(name).DequeueMessage(ctx, opts)
	if err != nil {
		return nil, mapError("dequeue message", err)
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	raw := resp.Messages[0]
	msg := &Message{}
	if raw.MessageID != nil {
		msg.ID = *raw.MessageID
	}
	if raw.PopReceipt != nil {
		msg.Receipt = *raw.PopReceipt
	}
	if raw.MessageText != nil {
		msg.Text = *raw.MessageText
	}
	if raw.DequeueCount != nil {
		msg.DequeueCount = *raw.DequeueCount
	}
	return msg, nil
}

// Delete acknowledges a received message so it is never redelivered.
func (q *Queues) Delete(ctx context.Context, name, messageID, receipt string) error {
	if _, err := q.svc.NewQueueClient(name).DeleteMessage(ctx, messageID, receipt, nil); err != nil {
		return mapError("delete message", err)
	}
	return nil
}
