// Package storage unifies the four Azure storage modalities behind one
// facade: partitioned table entities, blob containers, queues, and file
// shares. Workflow and API code consume the facade; nothing above this
// package talks to the SDK clients directly.
package storage

import (
	"context"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/service"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// Names holds the logical resource names the facade operates on.
type Names struct {
	CustomersTable string
	ProductsTable  string
	OrdersTable    string

	ProductImagesContainer string
	PaymentProofsContainer string

	NotificationQueue string

	ContractsShare    string
	PaymentsDirectory string
}

// DefaultNames returns the resource names used when the environment does
// not override them.
func DefaultNames() Names {
	return Names{
		CustomersTable:         "Customers",
		ProductsTable:          "Products",
		OrdersTable:            "Orders",
		ProductImagesContainer: "product-images",
		PaymentProofsContainer: "payment-proofs",
		NotificationQueue:      "order-notifications",
		ContractsShare:         "contracts",
		PaymentsDirectory:      "payments",
	}
}

// NamesFromEnv returns DefaultNames with any environment overrides applied.
func NamesFromEnv() Names {
	names := DefaultNames()
	overrides := []struct {
		env string
		dst *string
	}{
		{"CUSTOMERS_TABLE", &names.CustomersTable},
		{"PRODUCTS_TABLE", &names.ProductsTable},
		{"ORDERS_TABLE", &names.OrdersTable},
		{"PRODUCT_IMAGES_CONTAINER", &names.ProductImagesContainer},
		{"PAYMENT_PROOFS_CONTAINER", &names.PaymentProofsContainer},
		{"NOTIFICATION_QUEUE", &names.NotificationQueue},
		{"CONTRACTS_SHARE", &names.ContractsShare},
		{"PAYMENTS_DIRECTORY", &names.PaymentsDirectory},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
	return names
}

// Storage composes the four storage clients behind one facade.
type Storage struct {
	Tables *Tables
	Blobs  *Blobs
	Queues *Queues
	Files  *Files

	names Names
}

// New creates a Storage instance from the given connection string.
func New(connStr string, names Names) (*Storage, error) {
	retry := policy.RetryOptions{
		MaxRetries:    3,
		TryTimeout:    time.Minute * 3,
		RetryDelay:    time.Second * 1,
		MaxRetryDelay: time.Second * 15,
		StatusCodes:   []int{408, 429, 500, 502, 503, 504},
	}

	tsvc, err := aztables.NewServiceClientFromConnectionString(connStr, &aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{Retry: retry},
	})
	if err != nil {
		return nil, err
	}
	bsvc, err := azblob.NewClientFromConnectionString(connStr, &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{Retry: retry},
	})
	if err != nil {
		return nil, err
	}
	qsvc, err := azqueue.NewServiceClientFromConnectionString(connStr, &azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{Retry: retry},
	})
	if err != nil {
		return nil, err
	}
	fsvc, err := service.NewClientFromConnectionString(connStr, &service.ClientOptions{
		ClientOptions: azcore.ClientOptions{Retry: retry},
	})
	if err != nil {
		return nil, err
	}

	return &Storage{
		Tables: NewTables(tsvc),
		Blobs:  NewBlobs(bsvc),
		Queues: NewQueues(qsvc),
		Files:  NewFiles(fsvc),
		names:  names,
	}, nil
}

// Init provisions every table, container, queue and share the facade uses.
// Safe to run repeatedly.
func (s *Storage) Init(ctx context.Context) error {
	for _, table := range []string{s.names.CustomersTable, s.names.ProductsTable, s.names.OrdersTable} {
		if err := s.Tables.Ensure(ctx, table); err != nil {
			return err
		}
	}
	for _, c := range []string{s.names.ProductImagesContainer, s.names.PaymentProofsContainer} {
		if err := s.Blobs.EnsureContainer(ctx, c, true); err != nil {
			return err
		}
	}
	if err := s.Queues.Ensure(ctx, s.names.NotificationQueue); err != nil {
		return err
	}
	if err := s.Files.EnsureShare(ctx, s.names.ContractsShare); err != nil {
		return err
	}
	return s.Files.EnsureDirectory(ctx, s.names.ContractsShare, s.names.PaymentsDirectory)
}
