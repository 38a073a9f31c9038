package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	log "github.com/sirupsen/logrus"

	"github.com/ChihavaJoy/ABCRetailers/domain"
	"github.com/ChihavaJoy/ABCRetailers/storage"
)

// fakeStore mimics the table semantics the workflow relies on: snapshot
// reads and version-token-checked product updates.
type fakeStore struct {
	customers map[string]*domain.Customer
	products  map[string]*domain.Product
	orders    map[string]*domain.Order
	sent      []string

	versions map[string]int

	addOrderErr    error
	deleteOrderErr error
	sendErr        error
	// afterProductRead runs once after a product snapshot is taken, to
	// interleave a concurrent writer.
	afterProductRead func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: map[string]*domain.Customer{},
		products:  map[string]*domain.Product{},
		orders:    map[string]*domain.Order{},
		versions:  map[string]int{},
	}
}

func (f *fakeStore) addCustomer(name, surname, username string) *domain.Customer {
	c := domain.NewCustomer(domain.Gauteng)
	c.Name, c.Surname, c.Username = name, surname, username
	f.customers[c.RowKey] = c
	return c
}

func (f *fakeStore) addProduct(name string, price float64, stock int) *domain.Product {
	p := domain.NewProduct(domain.Sneakers)
	p.Name, p.Price, p.Stock = name, price, stock
	f.versions[p.RowKey] = 1
	p.Version = versionTag(1)
	f.products[p.RowKey] = p
	return p
}

// bumpProduct simulates a concurrent writer committing a new version.
func (f *fakeStore) bumpProduct(id string, stock int) {
	stored := f.products[id]
	stored.Stock = stock
	f.versions[id]++
	stored.Version = versionTag(f.versions[id])
}

func versionTag(v int) azcore.ETag {
	return azcore.ETag("W/\"" + strconv.Itoa(v) + "\"")
}

func (f *fakeStore) CustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	snapshot := *c
	return &snapshot, nil
}

func (f *fakeStore) ProductByID(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	snapshot := *p
	if f.afterProductRead != nil {
		f.afterProductRead()
		f.afterProductRead = nil
	}
	return &snapshot, nil
}

func (f *fakeStore) AddOrder(ctx context.Context, o *domain.Order) error {
	if f.addOrderErr != nil {
		return f.addOrderErr
	}
	if _, exists := f.orders[o.RowKey]; exists {
		return storage.ErrConflict
	}
	stored := *o
	f.orders[o.RowKey] = &stored
	return nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, p *domain.Product) error {
	stored, ok := f.products[p.RowKey]
	if !ok {
		return storage.ErrNotFound
	}
	if p.Version != stored.Version {
		return storage.ErrPreconditionFailed
	}
	updated := *p
	f.versions[p.RowKey]++
	updated.Version = versionTag(f.versions[p.RowKey])
	f.products[p.RowKey] = &updated
	return nil
}

func (f *fakeStore) DeleteOrder(ctx context.Context, id string) error {
	if f.deleteOrderErr != nil {
		return f.deleteOrderErr
	}
	if _, ok := f.orders[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeStore) SendNotification(ctx context.Context, payload string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, payload)
	return nil
}

func testLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testPlacer(store OrderStore) *Placer {
	return NewPlacer(store, nil, testLogger())
}

func TestPlaceSuccess(t *testing.T) {
	store := newFakeStore()
	customer := store.addCustomer("Thandi", "Nkosi", "thandi")
	product := store.addProduct("Court Classic", 1200, 10)

	order, err := testPlacer(store).Place(context.Background(), Request{
		CustomerID: customer.RowKey,
		ProductID:  product.RowKey,
		Quantity:   3,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if order.Status != domain.OrderPending {
		t.Fatalf("status = %q, want Pending", order.Status)
	}
	stored, ok := store.orders[order.RowKey]
	if !ok {
		t.Fatal("order entity was not persisted")
	}
	if stored.Username != "thandi" || stored.ProductName != "Court Classic" {
		t.Fatalf("unexpected order: %+v", stored)
	}
	if got := store.products[product.RowKey].Stock; got != 7 {
		t.Fatalf("stock = %d, want 7", got)
	}
	if len(store.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(store.sent))
	}
	n, err := domain.DecodeOrderNotification(store.sent[0])
	if err != nil {
		t.Fatalf("decode notification: %v", err)
	}
	if n.TotalPrice != 3600 {
		t.Fatalf("total price = %v, want 3600", n.TotalPrice)
	}
	if n.CustomerName != "Thandi Nkosi" {
		t.Fatalf("customer name = %q", n.CustomerName)
	}
}

func TestPlaceInsufficientStock(t *testing.T) {
	store := newFakeStore()
	customer := store.addCustomer("Thandi", "Nkosi", "thandi")
	product := store.addProduct("Court Classic", 1200, 10)

	_, err := testPlacer(store).Place(context.Background(), Request{
		CustomerID: customer.RowKey,
		ProductID:  product.RowKey,
		Quantity:   15,
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Reason != ReasonInsufficientStock {
		t.Fatalf("err = %v, want ValidationError(InsufficientStock)", err)
	}
	if len(store.orders) != 0 {
		t.Fatal("order entity was created despite validation failure")
	}
	if got := store.products[product.RowKey].Stock; got != 10 {
		t.Fatalf("stock = %d, want untouched 10", got)
	}
	if len(store.sent) != 0 {
		t.Fatal("notification sent despite validation failure")
	}
}

func TestPlaceUnknownIDs(t *testing.T) {
	store := newFakeStore()
	product := store.addProduct("Court Classic", 1200, 10)
	customer := store.addCustomer("Thandi", "Nkosi", "thandi")

	cases := []struct {
		name   string
		req    Request
		reason string
	}{
		{"customer", Request{CustomerID: "missing", ProductID: product.RowKey, Quantity: 1}, ReasonUnknownCustomer},
		{"product", Request{CustomerID: customer.RowKey, ProductID: "missing", Quantity: 1}, ReasonUnknownProduct},
	}
	for _, tc := range cases {
		_, err := testPlacer(store).Place(context.Background(), tc.req)
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Reason != tc.reason {
			t.Fatalf("%s: err = %v, want ValidationError(%s)", tc.name, err, tc.reason)
		}
	}
}

func TestPlaceStaleTokenCompensates(t *testing.T) {
	store := newFakeStore()
	customer := store.addCustomer("Thandi", "Nkosi", "thandi")
	product := store.addProduct("Court Classic", 1200, 10)

	// A concurrent writer commits between the snapshot read and the stock
	// decrement, so the workflow's update carries a stale token.
	store.afterProductRead = func() {
		store.bumpProduct(product.RowKey, 9)
	}

	_, err := testPlacer(store).Place(context.Background(), Request{
		CustomerID: customer.RowKey,
		ProductID:  product.RowKey,
		Quantity:   3,
	})
	if !errors.Is(err, storage.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}
	if len(store.orders) != 0 {
		t.Fatal("orphan order left after compensation")
	}
	if got := store.products[product.RowKey].Stock; got != 9 {
		t.Fatalf("stock = %d, want the concurrent writer's 9", got)
	}
	if len(store.sent) != 0 {
		t.Fatal("notification sent for a failed order")
	}
}

func TestPlaceCompensationFailureIsPartial(t *testing.T) {
	store := newFakeStore()
	customer := store.addCustomer("Thandi", "Nkosi", "thandi")
	product := store.addProduct("Court Classic", 1200, 10)
	store.afterProductRead = func() {
		store.bumpProduct(product.RowKey, 10)
	}
	store.deleteOrderErr = errors.New("backend down")

	_, err := testPlacer(store).Place(context.Background(), Request{
		CustomerID: customer.RowKey,
		ProductID:  product.RowKey,
		Quantity:   3,
	})
	var pErr *PartialFailureError
	if !errors.As(err, &pErr) {
		t.Fatalf("err = %v, want PartialFailureError", err)
	}
	if len(store.orders) != 1 {
		t.Fatal("expected the uncompensated order to remain")
	}
}

func TestPlaceNotificationFailureStillSucceeds(t *testing.T) {
	store := newFakeStore()
	customer := store.addCustomer("Thandi", "Nkosi", "thandi")
	product := store.addProduct("Court Classic", 1200, 10)
	store.sendErr = errors.New("queue unavailable")

	order, err := testPlacer(store).Place(context.Background(), Request{
		CustomerID: customer.RowKey,
		ProductID:  product.RowKey,
		Quantity:   3,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, ok := store.orders[order.RowKey]; !ok {
		t.Fatal("order missing after notification failure")
	}
	if got := store.products[product.RowKey].Stock; got != 7 {
		t.Fatalf("stock = %d, want 7", got)
	}
}

func TestPlaceAddOrderFailureAborts(t *testing.T) {
	store := newFakeStore()
	customer := store.addCustomer("Thandi", "Nkosi", "thandi")
	product := store.addProduct("Court Classic", 1200, 10)
	store.addOrderErr = fmt.Errorf("wrapped: %w", storage.ErrConflict)

	_, err := testPlacer(store).Place(context.Background(), Request{
		CustomerID: customer.RowKey,
		ProductID:  product.RowKey,
		Quantity:   3,
	})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if got := store.products[product.RowKey].Stock; got != 10 {
		t.Fatalf("stock = %d, want untouched 10", got)
	}
}

func TestPlaceRejectsNonPositiveQuantity(t *testing.T) {
	store := newFakeStore()
	for _, q := range []int{0, -2} {
		_, err := testPlacer(store).Place(context.Background(), Request{Quantity: q})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("quantity %d: err = %v, want ValidationError", q, err)
		}
	}
}
