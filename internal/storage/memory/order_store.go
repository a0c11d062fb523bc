package memory

import (
	"context"
	"sync"

	"github.com/imrishuroy/go-catalog-orders/internal/orders"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
)

// OrderStore is a mutex-guarded orders.Store.
type OrderStore struct {
	mu    sync.RWMutex
	items []orders.Order
	byID  map[string]int
	cfg   settings
}

// NewOrderStore returns an empty order store.
func NewOrderStore(opts ...Option) *OrderStore {
	return &OrderStore{
		byID: make(map[string]int),
		cfg:  newSettings(opts),
	}
}

func (s *OrderStore) Insert(ctx context.Context, o *orders.Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", storage.Wrap("orders.insert", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o.ID = s.cfg.newID()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.cfg.nowFunc().UTC()
	}
	s.byID[o.ID] = len(s.items)
	s.items = append(s.items, cloneOrder(*o))
	return o.ID, nil
}

func (s *OrderStore) Count(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, storage.Wrap("orders.count", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, o := range s.items {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *OrderStore) FindWindow(ctx context.Context, userID string, offset, limit int) ([]orders.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Wrap("orders.find", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]orders.Order, 0)
	for _, o := range s.items {
		if o.UserID == userID {
			matched = append(matched, o)
		}
	}
	from, to := window(len(matched), offset, limit)
	out := make([]orders.Order, 0, to-from)
	for _, o := range matched[from:to] {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (s *OrderStore) FindByID(ctx context.Context, id string) (*orders.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Wrap("orders.find_by_id", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	o := cloneOrder(s.items[i])
	return &o, nil
}

func cloneOrder(o orders.Order) orders.Order {
	if o.Items != nil {
		o.Items = append([]orders.Item(nil), o.Items...)
	}
	return o
}

var _ orders.Store = (*OrderStore)(nil)
