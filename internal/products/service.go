// Package products implements the catalog: product creation and filtered,
// paginated listing.
package products

import (
	"context"

	validatorv10 "github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-catalog-orders/internal/pagination"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
	"github.com/imrishuroy/go-catalog-orders/internal/validation"
)

// Query is a product listing request.
type Query struct {
	Filter
	Page pagination.Params
}

// Service filters and paginates products.
type Service struct {
	store    Store
	validate *validatorv10.Validate
	maxLimit int
	logger   *log.Entry
}

// Option customises a Service.
type Option func(*Service)

// WithMaxLimit bounds the page size clients may request. n <= 0 removes the bound.
func WithMaxLimit(n int) Option {
	return func(s *Service) { s.maxLimit = n }
}

// NewService wires the catalog service to its store.
func NewService(store Store, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	s := &Service{
		store:    store,
		validate: validation.New(),
		logger:   logger.WithField("component", "products"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates req, persists the product and returns its id.
func (s *Service) Create(ctx context.Context, req validation.CreateProductRequest) (string, error) {
	if err := validation.Check(s.validate, req); err != nil {
		return "", err
	}

	p := &Product{
		Name:  req.Name,
		Price: *req.Price,
		Sizes: make([]SizeQuantity, 0, len(req.Sizes)),
	}
	for _, sq := range req.Sizes {
		p.Sizes = append(p.Sizes, SizeQuantity{Size: sq.Size, Quantity: *sq.Quantity})
	}

	s.logger.WithField("name", p.Name).Info("creating product")
	id, err := s.store.Insert(ctx, p)
	if err != nil {
		s.logger.WithError(err).Error("failed to create product")
		return "", storage.Wrap("products.insert", err)
	}
	s.logger.WithField("product_id", id).Info("product created")
	return id, nil
}

// List counts the products matching q, then fetches and projects the
// requested window.
func (s *Service) List(ctx context.Context, q Query) (pagination.Envelope[Summary], error) {
	var empty pagination.Envelope[Summary]
	if err := q.Page.Validate(s.maxLimit); err != nil {
		return empty, err
	}

	entry := s.logger.WithFields(log.Fields{"name": q.Name, "size": q.Size, "limit": q.Page.Limit, "offset": q.Page.Offset})
	entry.Debug("listing products")

	total, err := s.store.Count(ctx, q.Filter)
	if err != nil {
		entry.WithError(err).Error("failed to count products")
		return empty, storage.Wrap("products.count", err)
	}

	found, err := s.store.FindWindow(ctx, q.Filter, q.Page.Offset, q.Page.Limit)
	if err != nil {
		entry.WithError(err).Error("failed to fetch products")
		return empty, storage.Wrap("products.find", err)
	}

	data := make([]Summary, 0, len(found))
	for _, p := range found {
		data = append(data, p.Summary())
	}

	entry.WithFields(log.Fields{"total": total, "returned": len(data)}).Info("products listed")
	return pagination.NewEnvelope(data, total, q.Page), nil
}
