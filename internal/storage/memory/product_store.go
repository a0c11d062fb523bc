package memory

import (
	"context"
	"sync"

	"github.com/imrishuroy/go-catalog-orders/internal/products"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
)

// ProductStore is a mutex-guarded products.Store.
type ProductStore struct {
	mu    sync.RWMutex
	items []products.Product
	byID  map[string]int
	cfg   settings
}

// NewProductStore returns an empty catalog.
func NewProductStore(opts ...Option) *ProductStore {
	return &ProductStore{
		byID: make(map[string]int),
		cfg:  newSettings(opts),
	}
}

func (s *ProductStore) Insert(ctx context.Context, p *products.Product) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", storage.Wrap("products.insert", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.cfg.newID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.cfg.nowFunc().UTC()
	}
	// store a copy so later mutations by the caller are not visible
	s.byID[p.ID] = len(s.items)
	s.items = append(s.items, cloneProduct(*p))
	return p.ID, nil
}

func (s *ProductStore) Count(ctx context.Context, f products.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, storage.Wrap("products.count", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.items {
		if f.Matches(p) {
			n++
		}
	}
	return n, nil
}

func (s *ProductStore) FindWindow(ctx context.Context, f products.Filter, offset, limit int) ([]products.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Wrap("products.find", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]products.Product, 0, len(s.items))
	for _, p := range s.items {
		if f.Matches(p) {
			matched = append(matched, p)
		}
	}
	from, to := window(len(matched), offset, limit)
	out := make([]products.Product, 0, to-from)
	for _, p := range matched[from:to] {
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

func (s *ProductStore) FindByID(ctx context.Context, id string) (*products.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Wrap("products.find_by_id", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	p := cloneProduct(s.items[i])
	return &p, nil
}

func cloneProduct(p products.Product) products.Product {
	if p.Sizes != nil {
		p.Sizes = append([]products.SizeQuantity(nil), p.Sizes...)
	}
	return p
}

var _ products.Store = (*ProductStore)(nil)
