package products

import "context"

// Store is the catalog persistence the services depend on. Implementations
// live under internal/storage and wrap their failures as *storage.Error.
type Store interface {
	// Insert assigns the product an id and creation time and persists it.
	Insert(ctx context.Context, p *Product) (string, error)
	Count(ctx context.Context, f Filter) (int, error)
	// FindWindow returns matches [offset, offset+limit) in a stable store order.
	FindWindow(ctx context.Context, f Filter, offset, limit int) ([]Product, error)
	// FindByID returns (nil, nil) when no product has the id.
	FindByID(ctx context.Context, id string) (*Product, error)
}
