package storage

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/ChihavaJoy/ABCRetailers/domain"
)

// Domain-aware accessors over the generic clients. By-ID lookups scan the
// whole table and filter client-side: the partition key is chosen for the
// dominant access pattern (province, category), so cross-partition lookups
// pay the scan cost. Acceptable at back-office scale.

// Customers lists every customer across all provinces.
func (s *Storage) Customers(ctx context.Context) ([]*domain.Customer, error) {
	return ListAllEntities[domain.Customer](ctx, s.Tables, s.names.CustomersTable)
}

// Customer fetches one customer by its province partition and id.
func (s *Storage) Customer(ctx context.Context, province domain.Province, id string) (*domain.Customer, error) {
	return GetEntity[domain.Customer](ctx, s.Tables, s.names.CustomersTable, string(province), id)
}

// CustomerByID finds a customer without knowing its province.
func (s *Storage) CustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	all, err := s.Customers(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if c.RowKey == id {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

// AddCustomer inserts a new customer row.
func (s *Storage) AddCustomer(ctx context.Context, c *domain.Customer) error {
	return AddEntity(ctx, s.Tables, s.names.CustomersTable, c)
}

// UpdateCustomer replaces a customer row, guarded by its version token.
func (s *Storage) UpdateCustomer(ctx context.Context, c *domain.Customer) error {
	return UpdateEntity(ctx, s.Tables, s.names.CustomersTable, c)
}

// DeleteCustomer removes a customer row.
func (s *Storage) DeleteCustomer(ctx context.Context, province domain.Province, id string) error {
	return s.Tables.DeleteEntity(ctx, s.names.CustomersTable, string(province), id)
}

// MoveCustomer re-partitions a customer into a new province. Partition keys
// cannot be mutated in place, so the move is a recreate under the new
// partition followed by a delete of the old row. If the delete fails the
// new row is removed again so the customer is never duplicated.
func (s *Storage) MoveCustomer(ctx context.Context, c *domain.Customer, to domain.Province) error {
	moved := *c
	moved.Entity = domain.Entity{PartitionKey: string(to), RowKey: c.RowKey}
	moved.Province = to
	if err := AddEntity(ctx, s.Tables, s.names.CustomersTable, &moved); err != nil {
		return err
	}
	if err := s.Tables.DeleteEntity(ctx, s.names.CustomersTable, c.PartitionKey, c.RowKey); err != nil {
		_ = s.Tables.DeleteEntity(ctx, s.names.CustomersTable, moved.PartitionKey, moved.RowKey)
		return err
	}
	*c = moved
	return nil
}

// Products lists every product across all categories.
func (s *Storage) Products(ctx context.Context) ([]*domain.Product, error) {
	return ListAllEntities[domain.Product](ctx, s.Tables, s.names.ProductsTable)
}

// Product fetches one product by its category partition and id.
func (s *Storage) Product(ctx context.Context, category domain.Category, id string) (*domain.Product, error) {
	return GetEntity[domain.Product](ctx, s.Tables, s.names.ProductsTable, string(category), id)
}

// ProductByID finds a product without knowing its category.
func (s *Storage) ProductByID(ctx context.Context, id string) (*domain.Product, error) {
	all, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.RowKey == id {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

// AddProduct inserts a new product row.
func (s *Storage) AddProduct(ctx context.Context, p *domain.Product) error {
	return AddEntity(ctx, s.Tables, s.names.ProductsTable, p)
}

// UpdateProduct replaces a product row, guarded by its version token.
func (s *Storage) UpdateProduct(ctx context.Context, p *domain.Product) error {
	return UpdateEntity(ctx, s.Tables, s.names.ProductsTable, p)
}

// DeleteProduct removes a product row.
func (s *Storage) DeleteProduct(ctx context.Context, category domain.Category, id string) error {
	return s.Tables.DeleteEntity(ctx, s.names.ProductsTable, string(category), id)
}

// MoveProduct re-partitions a product into a new category, mirroring
// MoveCustomer.
func (s *Storage) MoveProduct(ctx context.Context, p *domain.Product, to domain.Category) error {
	moved := *p
	moved.Entity = domain.Entity{PartitionKey: string(to), RowKey: p.RowKey}
	moved.Category = to
	if err := AddEntity(ctx, s.Tables, s.names.ProductsTable, &moved); err != nil {
		return err
	}
	if err := s.Tables.DeleteEntity(ctx, s.names.ProductsTable, p.PartitionKey, p.RowKey); err != nil {
		_ = s.Tables.DeleteEntity(ctx, s.names.ProductsTable, moved.PartitionKey, moved.RowKey)
		return err
	}
	*p = moved
	return nil
}

// Orders lists every order.
func (s *Storage) Orders(ctx context.Context) ([]*domain.Order, error) {
	return ListAllEntities[domain.Order](ctx, s.Tables, s.names.OrdersTable)
}

// Order fetches one order by id.
func (s *Storage) Order(ctx context.Context, id string) (*domain.Order, error) {
	return GetEntity[domain.Order](ctx, s.Tables, s.names.OrdersTable, domain.OrderPartition, id)
}

// AddOrder inserts a new order row.
func (s *Storage) AddOrder(ctx context.Context, o *domain.Order) error {
	return AddEntity(ctx, s.Tables, s.names.OrdersTable, o)
}

// UpdateOrder replaces an order row, guarded by its version token.
func (s *Storage) UpdateOrder(ctx context.Context, o *domain.Order) error {
	return UpdateEntity(ctx, s.Tables, s.names.OrdersTable, o)
}

// DeleteOrder removes an order row.
func (s *Storage) DeleteOrder(ctx context.Context, id string) error {
	return s.Tables.DeleteEntity(ctx, s.names.OrdersTable, domain.OrderPartition, id)
}

// UploadProductImage stores a product image blob and returns its URL.
func (s *Storage) UploadProductImage(ctx context.Context, content io.Reader, originalName string) (string, error) {
	return s.Blobs.Upload(ctx, s.names.ProductImagesContainer, content, originalName)
}

// UploadPaymentProof stores a proof-of-payment in both the blob container
// and the contracts share, as the back office requires both a public link
// and an archived copy.
func (s *Storage) UploadPaymentProof(ctx context.Context, content []byte, fileName string) (string, error) {
	url, err := s.Blobs.Upload(ctx, s.names.PaymentProofsContainer, bytes.NewReader(content), fileName)
	if err != nil {
		return "", err
	}
	err = s.Files.Upload(ctx, s.names.ContractsShare, s.names.PaymentsDirectory,
		fileName, bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}
	return url, nil
}

// PaymentArchive lists the archived payment files on the contracts share.
func (s *Storage) PaymentArchive(ctx context.Context) ([]string, error) {
	return s.Files.ListAll(ctx, s.names.ContractsShare, s.names.PaymentsDirectory)
}

// DownloadPaymentArchive streams one archived payment file into dst.
func (s *Storage) DownloadPaymentArchive(ctx context.Context, fileName string, dst io.Writer) error {
	return s.Files.Download(ctx, s.names.ContractsShare, s.names.PaymentsDirectory, fileName, dst)
}

// SendNotification enqueues an order notification.
func (s *Storage) SendNotification(ctx context.Context, payload string) error {
	return s.Queues.Send(ctx, s.names.NotificationQueue, payload)
}

// ReceiveNotification retrieves at most one notification message under the
// given lease.
func (s *Storage) ReceiveNotification(ctx context.Context, lease time.Duration) (*Message, error) {
	return s.Queues.Receive(ctx, s.names.NotificationQueue, lease)
}

// AckNotification acknowledges a processed notification message.
func (s *Storage) AckNotification(ctx context.Context, messageID, receipt string) error {
	return s.Queues.Delete(ctx, s.names.NotificationQueue, messageID, receipt)
}
