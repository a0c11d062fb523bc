package products

import (
	"strings"
	"time"
)

// SizeQuantity is the stock held for one size. A product may list the same
// size more than once; entries are kept exactly as created.
type SizeQuantity struct {
	Size     string `json:"size" dynamodbav:"size" bson:"size"`
	Quantity int    `json:"quantity" dynamodbav:"quantity" bson:"quantity"`
}

// Product is the catalog document.
type Product struct {
	ID        string         `json:"id" dynamodbav:"product_id" bson:"_id"` // assigned by the store
	Name      string         `json:"name" dynamodbav:"name" bson:"name"`
	Price     float64        `json:"price" dynamodbav:"price" bson:"price"`
	Sizes     []SizeQuantity `json:"sizes" dynamodbav:"sizes" bson:"sizes"`
	CreatedAt time.Time      `json:"created_at" dynamodbav:"created_at" bson:"created_at"`
}

// Summary is the list projection of a product.
type Summary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Summary projects p to its list view.
func (p Product) Summary() Summary {
	return Summary{ID: p.ID, Name: p.Name, Price: p.Price}
}

// Filter narrows a product listing. Zero values disable a criterion; set
// criteria are AND-combined.
type Filter struct {
	// Name matches case-insensitively anywhere in the product name.
	Name string
	// Size matches when any sizes entry has exactly this size.
	Size string
}

// Matches evaluates the filter in process. Backends that cannot push the
// filter down to the store use it directly.
func (f Filter) Matches(p Product) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Size != "" && !p.HasSize(f.Size) {
		return false
	}
	return true
}

// HasSize reports whether any sizes entry equals size exactly.
func (p Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s.Size == size {
			return true
		}
	}
	return false
}
