package domain

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// OrderPartition groups all orders under one partition key. Orders have no
// natural partitioning dimension, so the table holds a single partition.
const OrderPartition = "Orders"

// OrderStatus is the closed set of order states. The workflow only ever
// writes Pending; later transitions come from back-office edits.
type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderCompleted  OrderStatus = "Completed"
	OrderCancelled  OrderStatus = "Cancelled"
)

// Order records a single purchase of one product by one customer.
type Order struct {
	Entity
	CustomerID  string      `json:"CustomerId"`
	Username    string      `json:"Username"`
	ProductID   string      `json:"ProductId"`
	ProductName string      `json:"ProductName"`
	OrderDate   time.Time   `json:"OrderDate"`
	Quantity    int         `json:"Quantity"`
	UnitPrice   float64     `json:"UnitPrice"`
	Status      OrderStatus `json:"Status"`
}

// NewOrder assigns a fresh row key under the shared order partition.
func NewOrder() *Order {
	return &Order{
		Entity: Entity{PartitionKey: OrderPartition, RowKey: uuid.NewString()},
		Status: OrderPending,
	}
}

// TotalPrice is derived, never stored.
func (o *Order) TotalPrice() float64 {
	return o.UnitPrice * float64(o.Quantity)
}

// OrderNotification is the payload sent on the notification queue after an
// order commits.
type OrderNotification struct {
	OrderID      string      `json:"orderId"`
	CustomerID   string      `json:"customerId"`
	CustomerName string      `json:"customerName"`
	ProductName  string      `json:"productName"`
	Quantity     int         `json:"quantity"`
	TotalPrice   float64     `json:"totalPrice"`
	OrderDate    time.Time   `json:"orderDate"`
	Status       OrderStatus `json:"status"`
}

// Encode serializes the notification for the queue.
func (n OrderNotification) Encode() (string, error) {
	data, err := sonic.Marshal(n)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeOrderNotification parses a queue payload.
func DecodeOrderNotification(payload string) (OrderNotification, error) {
	var n OrderNotification
	err := sonic.Unmarshal([]byte(payload), &n)
	return n, err
}
