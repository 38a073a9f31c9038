// Package workflow implements the order placement process: stock
// validation, order persistence, stock decrement and notification, composed
// over the storage facade without a distributed transaction.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ChihavaJoy/ABCRetailers/domain"
	"github.com/ChihavaJoy/ABCRetailers/storage"
)

// Validation reason codes.
const (
	ReasonUnknownCustomer   = "UnknownCustomer"
	ReasonUnknownProduct    = "UnknownProduct"
	ReasonInsufficientStock = "InsufficientStock"
)

// ValidationError rejects an order before any storage write happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "order validation failed: " + e.Reason
}

// ErrDuplicateOrder rejects a replayed idempotency key.
var ErrDuplicateOrder = errors.New("workflow: order already submitted")

// PartialFailureError reports that the order entity was written but the
// stock decrement failed and the compensating delete could not remove it.
// The system is in a known-inconsistent state that needs operator attention.
type PartialFailureError struct {
	OrderID string
	Step    string
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("order %s left inconsistent at %s: %v", e.OrderID, e.Step, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// OrderStore is the slice of the storage facade the workflow needs.
type OrderStore interface {
	CustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	ProductByID(ctx context.Context, id string) (*domain.Product, error)
	AddOrder(ctx context.Context, o *domain.Order) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteOrder(ctx context.Context, id string) error
	SendNotification(ctx context.Context, payload string) error
}

// Deduper records idempotency keys so a replayed submission is rejected.
type Deduper interface {
	Add(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) error
}

// Request is one order submission.
type Request struct {
	CustomerID string
	ProductID  string
	Quantity   int
	// IdempotencyKey is optional; when set, a replay with the same key is
	// rejected with ErrDuplicateOrder.
	IdempotencyKey string
}

// Placer runs the order placement workflow.
type Placer struct {
	store   OrderStore
	deduper Deduper
	logger  *log.Logger
	now     func() time.Time
}

// NewPlacer creates a Placer. The deduper may be nil, in which case
// idempotency keys are ignored.
func NewPlacer(store OrderStore, deduper Deduper, logger *log.Logger) *Placer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Placer{store: store, deduper: deduper, logger: logger, now: time.Now}
}

// Place runs one order through validation, persistence, stock adjustment
// and notification. The three writes are not atomic: a failed stock
// decrement triggers a compensating delete of the just-created order, and a
// failed notification is logged but does not fail the order.
func (p *Placer) Place(ctx context.Context, req Request) (*domain.Order, error) {
	if req.Quantity <= 0 {
		return nil, &ValidationError{Reason: ReasonInsufficientStock}
	}

	release, err := p.claimKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	customer, err := p.store.CustomerByID(ctx, req.CustomerID)
	if err != nil {
		release()
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &ValidationError{Reason: ReasonUnknownCustomer}
		}
		return nil, err
	}
	product, err := p.store.ProductByID(ctx, req.ProductID)
	if err != nil {
		release()
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &ValidationError{Reason: ReasonUnknownProduct}
		}
		return nil, err
	}
	if product.Stock < req.Quantity {
		release()
		return nil, &ValidationError{Reason: ReasonInsufficientStock}
	}

	order := domain.NewOrder()
	order.CustomerID = customer.RowKey
	order.Username = customer.Username
	order.ProductID = product.RowKey
	order.ProductName = product.Name
	order.OrderDate = p.now().UTC()
	order.Quantity = req.Quantity
	order.UnitPrice = product.Price

	// Nothing has been mutated yet; an add failure is a clean abort.
	if err := p.store.AddOrder(ctx, order); err != nil {
		release()
		return nil, err
	}

	// Decrement stock under the version token from the snapshot read. A
	// concurrent edit loses here with ErrPreconditionFailed; the order is
	// compensated away rather than left without its stock adjustment.
	product.Stock -= req.Quantity
	if err := p.store.UpdateProduct(ctx, product); err != nil {
		if delErr := p.store.DeleteOrder(ctx, order.RowKey); delErr != nil {
			p.logger.WithFields(log.Fields{
				"order":  order.RowKey,
				"update": err,
				"delete": delErr,
			}).Error("stock decrement failed and order could not be compensated")
			// The key stays claimed: a retry while the orphan order still
			// exists would create a second one.
			return nil, &PartialFailureError{OrderID: order.RowKey, Step: "stock decrement", Err: err}
		}
		release()
		p.logger.WithField("order", order.RowKey).Warn("order rolled back after stock decrement failure")
		return nil, err
	}

	// The order is committed from here on. Notification failure is logged
	// and swallowed; downstream consumers tolerate a missing message.
	notification := domain.OrderNotification{
		OrderID:      order.RowKey,
		CustomerID:   customer.RowKey,
		CustomerName: customer.DisplayName(),
		ProductName:  product.Name,
		Quantity:     order.Quantity,
		TotalPrice:   order.TotalPrice(),
		OrderDate:    order.OrderDate,
		Status:       order.Status,
	}
	if payload, err := notification.Encode(); err != nil {
		p.logger.WithField("order", order.RowKey).Errorf("encode notification: %v", err)
	} else if err := p.store.SendNotification(ctx, payload); err != nil {
		p.logger.WithField("order", order.RowKey).Errorf("send notification: %v", err)
	}

	return order, nil
}

// claimKey records the idempotency key and returns a release func used when
// the workflow fails before the order commits.
func (p *Placer) claimKey(ctx context.Context, key string) (func(), error) {
	if p.deduper == nil || key == "" {
		return func() {}, nil
	}
	added, err := p.deduper.Add(ctx, key)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, ErrDuplicateOrder
	}
	return func() {
		if err := p.deduper.Remove(ctx, key); err != nil {
			p.logger.Errorf("release idempotency key %s: %v", key, err)
		}
	}, nil
}
