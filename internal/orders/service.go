// Package orders implements order creation and the paginated, catalog-enriched
// order listing.
package orders

import (
	"context"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/go-catalog-orders/internal/pagination"
	"github.com/imrishuroy/go-catalog-orders/internal/products"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
	"github.com/imrishuroy/go-catalog-orders/internal/validation"
)

// DefaultLookupConcurrency bounds the product lookups in flight per order.
const DefaultLookupConcurrency = 8

// Service creates orders and lists them joined against the catalog.
type Service struct {
	store       Store
	catalog     Catalog
	publisher   Publisher
	recorder    Recorder
	validate    *validatorv10.Validate
	maxLimit    int
	concurrency int
	nowFunc     func() time.Time
	logger      *log.Entry
}

// Option customises a Service.
type Option func(*Service)

// WithMaxLimit bounds the page size clients may request. n <= 0 removes the bound.
func WithMaxLimit(n int) Option {
	return func(s *Service) { s.maxLimit = n }
}

// WithLookupConcurrency sets how many product lookups run at once per order.
func WithLookupConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithPublisher announces every created order through p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRecorder reports resolution outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides the clock used to stamp created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.nowFunc = now }
}

// NewService wires the order service to its store and the catalog it joins against.
func NewService(store Store, catalog Catalog, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	s := &Service{
		store:       store,
		catalog:     catalog,
		validate:    validation.New(),
		concurrency: DefaultLookupConcurrency,
		nowFunc:     time.Now,
		logger:      logger.WithField("component", "orders"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates req and persists the order. Product ids are only checked
// for syntax; whether they exist is decided when the order is read.
func (s *Service) Create(ctx context.Context, req validation.CreateOrderRequest) (string, error) {
	if err := validation.Check(s.validate, req); err != nil {
		return "", err
	}

	o := &Order{
		UserID:    req.UserID,
		Items:     make([]Item, 0, len(req.Items)),
		CreatedAt: s.nowFunc().UTC(),
	}
	for _, it := range req.Items {
		o.Items = append(o.Items, Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	entry := s.logger.WithField("user_id", o.UserID)
	entry.Info("creating order")
	id, err := s.store.Insert(ctx, o)
	if err != nil {
		entry.WithError(err).Error("failed to create order")
		return "", storage.Wrap("orders.insert", err)
	}
	entry = entry.WithField("order_id", id)
	entry.Info("order created")

	if s.publisher != nil {
		ev := OrderCreatedEvent{OrderID: id, UserID: o.UserID, ItemCount: len(o.Items), CreatedAt: o.CreatedAt}
		// the order is already durable; a lost event must not fail the request
		if err := s.publisher.PublishOrderCreated(ctx, ev); err != nil {
			entry.WithError(err).Warn("failed to publish order created event")
		}
	}
	return id, nil
}

// List returns a window of the user's orders, each joined against the catalog.
// Either every order in the window is fully enriched or an error is returned.
func (s *Service) List(ctx context.Context, userID string, page pagination.Params) (pagination.Envelope[EnrichedOrder], error) {
	var empty pagination.Envelope[EnrichedOrder]
	if err := page.Validate(s.maxLimit); err != nil {
		return empty, err
	}

	entry := s.logger.WithFields(log.Fields{"user_id": userID, "limit": page.Limit, "offset": page.Offset})
	entry.Debug("listing orders")

	total, err := s.store.Count(ctx, userID)
	if err != nil {
		entry.WithError(err).Error("failed to count orders")
		return empty, storage.Wrap("orders.count", err)
	}

	found, err := s.store.FindWindow(ctx, userID, page.Offset, page.Limit)
	if err != nil {
		entry.WithError(err).Error("failed to fetch orders")
		return empty, storage.Wrap("orders.find", err)
	}

	data := make([]EnrichedOrder, 0, len(found))
	dangling := 0
	for _, o := range found {
		res, err := s.Resolve(ctx, o)
		if err != nil {
			entry.WithError(err).WithField("order_id", o.ID).Error("failed to enrich order")
			return empty, err
		}
		dangling += len(res.Dangling)
		data = append(data, res.Order)
	}

	entry.WithFields(log.Fields{"total": total, "returned": len(data), "dangling": dangling}).Info("orders listed")
	return pagination.NewEnvelope(data, total, page), nil
}

// lookup is the outcome of resolving one order line.
type lookup struct {
	product *products.Product
	found   bool
}

// Resolve joins o against the catalog. Lines whose product is missing are
// dropped and reported in Resolution.Dangling. A store failure or cancelled
// context fails the whole order.
func (s *Service) Resolve(ctx context.Context, o Order) (Resolution, error) {
	results := make([]lookup, len(o.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, it := range o.Items {
		g.Go(func() error {
			p, err := s.catalog.FindByID(gctx, it.ProductID)
			if err != nil {
				return storage.Wrap("products.find_by_id", err)
			}
			results[i] = lookup{product: p, found: p != nil}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Resolution{}, err
	}
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	res := fold(o, results)
	if s.recorder != nil {
		s.recorder.ObserveResolution(len(res.Order.Items), len(res.Dangling))
	}
	return res, nil
}

// fold walks the lines in their stored order, so the output order never
// depends on which lookup finished first. The total is summed exactly and
// rounded to cents once, after the last line.
func fold(o Order, results []lookup) Resolution {
	items := make([]EnrichedItem, 0, len(o.Items))
	var dangling []string
	total := decimal.Zero

	for i, it := range o.Items {
		r := results[i]
		if !r.found {
			dangling = append(dangling, it.ProductID)
			continue
		}
		items = append(items, EnrichedItem{ProductDetails: r.product.Summary(), Qty: it.Quantity})
		line := decimal.NewFromFloat(r.product.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(line)
	}

	return Resolution{
		Order: EnrichedOrder{
			ID:     o.ID,
			UserID: o.UserID,
			Items:  items,
			Total:  total.Round(2).InexactFloat64(),
		},
		Dangling: dangling,
	}
}
