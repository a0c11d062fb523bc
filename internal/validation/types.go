package validation

// SizeQuantity is one stock entry of a product. Duplicate sizes are allowed.
type SizeQuantity struct {
	Size     string `json:"size" validate:"notblank"`
	Quantity *int   `json:"quantity" validate:"required,gte=0"`
}

// CreateProductRequest is the payload for POST /products
type CreateProductRequest struct {
	Name  string         `json:"name" validate:"notblank"`
	Price *float64       `json:"price" validate:"required,gte=0"` // pointer so a missing price is not read as 0
	Sizes []SizeQuantity `json:"sizes" validate:"dive"`
}

// OrderItem references a product by id. Existence is not checked here.
type OrderItem struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"` // must be >= 1
}

// CreateOrderRequest is the payload for POST /orders
type CreateOrderRequest struct {
	UserID string      `json:"user_id" validate:"notblank"`
	Items  []OrderItem `json:"items" validate:"required,min=1,dive"` // at least one item
}
