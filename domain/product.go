package domain

import "github.com/google/uuid"

// Category is the partitioning dimension for products.
type Category string

const (
	Sneakers    Category = "Sneakers"
	Apparel     Category = "Apparel"
	Accessories Category = "Accessories"
	Equipment   Category = "Equipment"
)

// Categories lists every valid product category.
var Categories = []Category{Sneakers, Apparel, Accessories, Equipment}

// Known reports whether c is one of the fixed category set.
func (c Category) Known() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Product is partitioned by category. The partition key always equals the
// Category field.
type Product struct {
	Entity
	Name        string   `json:"ProductName"`
	Description string   `json:"Description"`
	Price       float64  `json:"Price"`
	Stock       int      `json:"StockAvailable"`
	ImageURL    string   `json:"ImageUrl"`
	Category    Category `json:"Category"`
}

// NewProduct assigns a fresh row key and ties the partition key to the
// category.
func NewProduct(category Category) *Product {
	return &Product{
		Entity:   Entity{PartitionKey: string(category), RowKey: uuid.NewString()},
		Category: category,
	}
}

// StockValue is derived, never stored.
func (p *Product) StockValue() float64 {
	return p.Price * float64(p.Stock)
}
