package domain

import "testing"

func TestNewProductTiesPartitionToCategory(t *testing.T) {
	p := NewProduct(Apparel)
	if p.PartitionKey != string(Apparel) {
		t.Fatalf("partition = %q, want %q", p.PartitionKey, Apparel)
	}
	if p.Category != Apparel {
		t.Fatalf("category = %q", p.Category)
	}
}

func TestCategoryKnown(t *testing.T) {
	for _, c := range Categories {
		if !c.Known() {
			t.Fatalf("%q should be known", c)
		}
	}
	if Category("Groceries").Known() {
		t.Fatal("unknown category accepted")
	}
}

func TestStockValueIsDerived(t *testing.T) {
	p := &Product{Price: 249.50, Stock: 4}
	if got := p.StockValue(); got != 998 {
		t.Fatalf("stock value = %v, want 998", got)
	}
	p.Stock = 0
	if got := p.StockValue(); got != 0 {
		t.Fatalf("stock value = %v, want 0", got)
	}
}
