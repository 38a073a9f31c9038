// Package api is the thin HTTP surface over the storage facade and the
// order workflow. It owns routing and status mapping only; every business
// rule lives below it.
package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/ChihavaJoy/ABCRetailers/domain"
	"github.com/ChihavaJoy/ABCRetailers/storage"
	"github.com/ChihavaJoy/ABCRetailers/workflow"
)

// Store is the slice of the storage facade the handlers consume.
type Store interface {
	Customers(ctx context.Context) ([]*domain.Customer, error)
	Customer(ctx context.Context, province domain.Province, id string) (*domain.Customer, error)
	AddCustomer(ctx context.Context, c *domain.Customer) error
	UpdateCustomer(ctx context.Context, c *domain.Customer) error
	DeleteCustomer(ctx context.Context, province domain.Province, id string) error
	MoveCustomer(ctx context.Context, c *domain.Customer, to domain.Province) error

	Products(ctx context.Context) ([]*domain.Product, error)
	Product(ctx context.Context, category domain.Category, id string) (*domain.Product, error)
	AddProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, category domain.Category, id string) error
	MoveProduct(ctx context.Context, p *domain.Product, to domain.Category) error

	Orders(ctx context.Context) ([]*domain.Order, error)
	Order(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, o *domain.Order) error
	DeleteOrder(ctx context.Context, id string) error

	UploadProductImage(ctx context.Context, content io.Reader, originalName string) (string, error)
	UploadPaymentProof(ctx context.Context, content []byte, fileName string) (string, error)
	PaymentArchive(ctx context.Context) ([]string, error)
	DownloadPaymentArchive(ctx context.Context, fileName string, dst io.Writer) error
}

// Placer runs order submissions.
type Placer interface {
	Place(ctx context.Context, req workflow.Request) (*domain.Order, error)
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Store, placer Placer, logger *log.Logger) {
	e.GET("/api/customers", listCustomers(store))
	e.POST("/api/customers", createCustomer(store))
	e.GET("/api/customers/:province/:id", getCustomer(store))
	e.PUT("/api/customers/:province/:id", updateCustomer(store))
	e.DELETE("/api/customers/:province/:id", deleteCustomer(store))

	e.GET("/api/products", listProducts(store))
	e.POST("/api/products", createProduct(store))
	e.GET("/api/products/:category/:id", getProduct(store))
	e.PUT("/api/products/:category/:id", updateProduct(store))
	e.DELETE("/api/products/:category/:id", deleteProduct(store))
	e.POST("/api/products/:category/:id/image", uploadProductImage(store))

	e.GET("/api/orders", listOrders(store))
	e.POST("/api/orders", placeOrder(placer))
	e.GET("/api/orders/:id", getOrder(store))
	e.PUT("/api/orders/:id/status", updateOrderStatus(store))
	e.DELETE("/api/orders/:id", deleteOrder(store))

	e.POST("/api/uploads/payment-proof", uploadPaymentProof(store, logger))
	e.GET("/api/uploads/payment-proof", listPaymentArchive(store))
	e.GET("/api/uploads/payment-proof/:name", downloadPaymentArchive(store))

	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// writeError maps the storage and workflow taxonomy onto HTTP statuses.
func writeError(c echo.Context, err error) error {
	var vErr *workflow.ValidationError
	var pErr *workflow.PartialFailureError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.JSON(http.StatusNotFound, errBody(err))
	case errors.Is(err, storage.ErrConflict), errors.Is(err, workflow.ErrDuplicateOrder):
		return c.JSON(http.StatusConflict, errBody(err))
	case errors.Is(err, storage.ErrPreconditionFailed):
		return c.JSON(http.StatusPreconditionFailed, errBody(err))
	case errors.As(err, &vErr):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": vErr.Error(), "reason": vErr.Reason})
	case errors.As(err, &pErr):
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errBody(err))
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func errBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

type customerInput struct {
	Name            string          `json:"name"`
	Surname         string          `json:"surname"`
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	ShippingAddress string          `json:"shippingAddress"`
	Province        domain.Province `json:"province"`
}

func listCustomers(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		customers, err := store.Customers(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		sort.Slice(customers, func(i, j int) bool { return customers[i].Name < customers[j].Name })
		return c.JSON(http.StatusOK, customers)
	}
}

func createCustomer(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in customerInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, errBody(err))
		}
		if !in.Province.Known() {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown province"})
		}
		customer := domain.NewCustomer(in.Province)
		applyCustomerInput(customer, in)
		if err := store.AddCustomer(c.Request().Context(), customer); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, customer)
	}
}

func getCustomer(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		customer, err := store.Customer(c.Request().Context(), domain.Province(c.Param("province")), c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, customer)
	}
}

func updateCustomer(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		customer, err := store.Customer(ctx, domain.Province(c.Param("province")), c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		var in customerInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, errBody(err))
		}
		if !in.Province.Known() {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown province"})
		}
		applyCustomerInput(customer, in)
		// A province change re-partitions the row; a plain update would
		// silently desynchronize the partition key from the field.
		if in.Province != domain.Province(customer.PartitionKey) {
			if err := store.MoveCustomer(ctx, customer, in.Province); err != nil {
				return writeError(c, err)
			}
			return c.JSON(http.StatusOK, customer)
		}
		if err := store.UpdateCustomer(ctx, customer); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, customer)
	}
}

func deleteCustomer(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := store.DeleteCustomer(c.Request().Context(), domain.Province(c.Param("province")), c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func applyCustomerInput(customer *domain.Customer, in customerInput) {
	customer.Name = in.Name
	customer.Surname = in.Surname
	customer.Username = in.Username
	customer.Email = in.Email
	customer.ShippingAddress = in.ShippingAddress
}

type productInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       float64         `json:"price"`
	Stock       int             `json:"stock"`
	Category    domain.Category `json:"category"`
}

func listProducts(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		products, err := store.Products(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
		return c.JSON(http.StatusOK, products)
	}
}

func createProduct(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in productInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, errBody(err))
		}
		if msg := validateProductInput(in); msg != "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
		}
		product := domain.NewProduct(in.Category)
		applyProductInput(product, in)
		if err := store.AddProduct(c.Request().Context(), product); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, product)
	}
}

func getProduct(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		product, err := store.Product(c.Request().Context(), domain.Category(c.Param("category")), c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, product)
	}
}

func updateProduct(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		product, err := store.Product(ctx, domain.Category(c.Param("category")), c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		var in productInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, errBody(err))
		}
		if msg := validateProductInput(in); msg != "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
		}
		applyProductInput(product, in)
		if in.Category != domain.Category(product.PartitionKey) {
			if err := store.MoveProduct(ctx, product, in.Category); err != nil {
				return writeError(c, err)
			}
			return c.JSON(http.StatusOK, product)
		}
		if err := store.UpdateProduct(ctx, product); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, product)
	}
}

func deleteProduct(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := store.DeleteProduct(c.Request().Context(), domain.Category(c.Param("category")), c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func uploadProductImage(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		product, err := store.Product(ctx, domain.Category(c.Param("category")), c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		fh, err := c.FormFile("image")
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "image file is required"})
		}
		src, err := fh.Open()
		if err != nil {
			return writeError(c, err)
		}
		defer src.Close()
		url, err := store.UploadProductImage(ctx, src, fh.Filename)
		if err != nil {
			return writeError(c, err)
		}
		product.ImageURL = url
		if err := store.UpdateProduct(ctx, product); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, product)
	}
}

func validateProductInput(in productInput) string {
	if in.Price <= 0 {
		return "price must be greater than 0"
	}
	if in.Stock < 0 {
		return "stock must not be negative"
	}
	if !in.Category.Known() {
		return "unknown category"
	}
	return ""
}

func applyProductInput(product *domain.Product, in productInput) {
	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Stock = in.Stock
}

type orderInput struct {
	CustomerID string `json:"customerId"`
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
}

func listOrders(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		orders, err := store.Orders(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		sort.Slice(orders, func(i, j int) bool { return orders[i].OrderDate.After(orders[j].OrderDate) })
		return c.JSON(http.StatusOK, orders)
	}
}

func placeOrder(placer Placer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in orderInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, errBody(err))
		}
		if in.Quantity <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "quantity must be greater than 0"})
		}
		order, err := placer.Place(c.Request().Context(), workflow.Request{
			CustomerID:     in.CustomerID,
			ProductID:      in.ProductID,
			Quantity:       in.Quantity,
			IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
		})
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, order)
	}
}

func getOrder(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		order, err := store.Order(c.Request().Context(), c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, order)
	}
}

func updateOrderStatus(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var in struct {
			Status domain.OrderStatus `json:"status"`
		}
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, errBody(err))
		}
		switch in.Status {
		case domain.OrderPending, domain.OrderProcessing, domain.OrderCompleted, domain.OrderCancelled:
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown status"})
		}
		order, err := store.Order(ctx, c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		order.Status = in.Status
		if err := store.UpdateOrder(ctx, order); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, order)
	}
}

func deleteOrder(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.DeleteOrder(c.Request().Context(), c.Param("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func uploadPaymentProof(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "file is required"})
		}
		src, err := fh.Open()
		if err != nil {
			return writeError(c, err)
		}
		defer src.Close()
		content, err := io.ReadAll(src)
		if err != nil {
			return writeError(c, err)
		}
		start := time.Now()
		url, err := store.UploadPaymentProof(c.Request().Context(), content, fh.Filename)
		if err != nil {
			return writeError(c, err)
		}
		logger.WithFields(log.Fields{
			"file":     fh.Filename,
			"bytes":    len(content),
			"duration": time.Since(start),
		}).Info("payment proof stored")
		return c.JSON(http.StatusCreated, map[string]string{"url": url})
	}
}

func listPaymentArchive(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		names, err := store.PaymentArchive(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, names)
	}
}

func downloadPaymentArchive(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var buf bytes.Buffer
		if err := store.DownloadPaymentArchive(c.Request().Context(), c.Param("name"), &buf); err != nil {
			return writeError(c, err)
		}
		return c.Blob(http.StatusOK, echo.MIMEOctetStream, buf.Bytes())
	}
}
