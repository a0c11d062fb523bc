package orders

import (
	"context"

	"github.com/imrishuroy/go-catalog-orders/internal/products"
)

// Store persists orders. Implementations live under internal/storage.
type Store interface {
	// Insert assigns the order an id and persists it. A zero CreatedAt is set
	// to the insertion time.
	Insert(ctx context.Context, o *Order) (string, error)
	Count(ctx context.Context, userID string) (int, error)
	// FindWindow returns the user's orders [offset, offset+limit), oldest first.
	FindWindow(ctx context.Context, userID string, offset, limit int) ([]Order, error)
	// FindByID returns (nil, nil) when no order has the id.
	FindByID(ctx context.Context, id string) (*Order, error)
}

// Catalog resolves product references. products.Store satisfies it.
type Catalog interface {
	// FindByID returns (nil, nil) when the product does not exist.
	FindByID(ctx context.Context, id string) (*products.Product, error)
}

// Publisher announces created orders. Delivery is best effort.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, ev OrderCreatedEvent) error
}

// Recorder observes how order lines resolved against the catalog.
type Recorder interface {
	ObserveResolution(resolved, dangling int)
}
