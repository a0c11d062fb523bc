package orders

import (
	"time"

	"github.com/imrishuroy/go-catalog-orders/internal/products"
)

// Item is a stored order line. ProductID is a weak reference: the product may
// have been removed, or never existed, by the time the order is read.
type Item struct {
	ProductID string `json:"product_id" dynamodbav:"product_id" bson:"product_id"`
	Quantity  int    `json:"quantity" dynamodbav:"quantity" bson:"quantity"`
}

// Order is the stored order document. Orders are immutable once created.
type Order struct {
	ID        string    `json:"id" dynamodbav:"order_id" bson:"_id"` // PK, assigned by the store
	UserID    string    `json:"user_id" dynamodbav:"user_id" bson:"user_id"`
	Items     []Item    `json:"items" dynamodbav:"items" bson:"items"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at" bson:"created_at"` // stamped by the service
}

// EnrichedItem is an order line joined with the current catalog entry.
type EnrichedItem struct {
	ProductDetails products.Summary `json:"productDetails"`
	Qty            int              `json:"qty"`
}

// EnrichedOrder is the read view of an order. Lines whose product could not be
// found are left out of Items and contribute nothing to Total.
type EnrichedOrder struct {
	ID     string         `json:"id"`
	UserID string         `json:"user_id"`
	Items  []EnrichedItem `json:"items"`
	Total  float64        `json:"total"`
}

// Resolution is the outcome of joining one order against the catalog.
type Resolution struct {
	Order EnrichedOrder
	// Dangling lists, in item order, the product ids that did not resolve.
	Dangling []string
}

// EventOrderCreated is the type attribute of messages published after an insert.
const EventOrderCreated = "order.created"

// OrderCreatedEvent is published once an order has been persisted.
type OrderCreatedEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}
