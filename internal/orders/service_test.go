package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-catalog-orders/internal/orders"
	"github.com/imrishuroy/go-catalog-orders/internal/pagination"
	"github.com/imrishuroy/go-catalog-orders/internal/products"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
	"github.com/imrishuroy/go-catalog-orders/internal/storage/memory"
	"github.com/imrishuroy/go-catalog-orders/internal/validation"
)

// fixedIDs hands out the given ids in order.
func fixedIDs(ids ...string) func() string {
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return id
	}
}

func addProduct(t *testing.T, store *memory.ProductStore, name string, price float64) string {
	t.Helper()
	id, err := store.Insert(context.Background(), &products.Product{Name: name, Price: price})
	require.NoError(t, err)
	return id
}

func addOrder(t *testing.T, store *memory.OrderStore, userID string, items ...orders.Item) string {
	t.Helper()
	id, err := store.Insert(context.Background(), &orders.Order{UserID: userID, Items: items})
	require.NoError(t, err)
	return id
}

func TestList_DropsDanglingReferences(t *testing.T) {
	catalog := memory.NewProductStore(memory.WithIDs(fixedIDs("P1")))
	addProduct(t, catalog, "Blue Shirt", 10.0)
	store := memory.NewOrderStore()
	orderID := addOrder(t, store, "u1",
		orders.Item{ProductID: "missing", Quantity: 2},
		orders.Item{ProductID: "P1", Quantity: 1},
	)

	svc := orders.NewService(store, catalog, nil)
	env, err := svc.List(context.Background(), "u1", pagination.Default())
	require.NoError(t, err)
	require.Len(t, env.Data, 1)

	got := env.Data[0]
	assert.Equal(t, orderID, got.ID)
	assert.Equal(t, "u1", got.UserID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, orders.EnrichedItem{ProductDetails: products.Summary{ID: "P1", Name: "Blue Shirt", Price: 10.0}, Qty: 1}, got.Items[0])
	assert.Equal(t, 10.0, got.Total)
}

func TestList_TotalRoundedOnceAtTheEnd(t *testing.T) {
	catalog := memory.NewProductStore(memory.WithIDs(fixedIDs("P1", "P2")))
	addProduct(t, catalog, "Sticker", 1.005)
	addProduct(t, catalog, "Pin", 2.0)
	store := memory.NewOrderStore()
	addOrder(t, store, "u1", orders.Item{ProductID: "P1", Quantity: 3}, orders.Item{ProductID: "P2", Quantity: 1})

	env, err := orders.NewService(store, catalog, nil).List(context.Background(), "u1", pagination.Default())
	require.NoError(t, err)
	require.Len(t, env.Data, 1)
	assert.Equal(t, 5.02, env.Data[0].Total)
}

func TestList_AllItemsDangling(t *testing.T) {
	store := memory.NewOrderStore()
	addOrder(t, store, "u1", orders.Item{ProductID: "gone", Quantity: 4})

	env, err := orders.NewService(store, memory.NewProductStore(), nil).List(context.Background(), "u1", pagination.Default())
	require.NoError(t, err)
	require.Len(t, env.Data, 1)
	assert.NotNil(t, env.Data[0].Items)
	assert.Empty(t, env.Data[0].Items)
	assert.Equal(t, 0.0, env.Data[0].Total)
}

func TestList_FiltersByUserAndPaginates(t *testing.T) {
	catalog := memory.NewProductStore(memory.WithIDs(fixedIDs("P1")))
	addProduct(t, catalog, "Shirt", 5)
	store := memory.NewOrderStore()
	var mine []string
	for i := 0; i < 5; i++ {
		mine = append(mine, addOrder(t, store, "u1", orders.Item{ProductID: "P1", Quantity: i + 1}))
		addOrder(t, store, "u2", orders.Item{ProductID: "P1", Quantity: 1})
	}

	svc := orders.NewService(store, catalog, nil)
	env, err := svc.List(context.Background(), "u1", pagination.Params{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, env.Data, 2)
	assert.Equal(t, mine[2], env.Data[0].ID)
	assert.Equal(t, mine[3], env.Data[1].ID)
	assert.Equal(t, 15.0, env.Data[0].Total)
	assert.Equal(t, pagination.Page{Next: 4, Limit: 2, Previous: 0}, env.Page)

	empty, err := svc.List(context.Background(), "u1", pagination.Params{Limit: 10, Offset: 40})
	require.NoError(t, err)
	assert.Empty(t, empty.Data)
	assert.Equal(t, -1, empty.Page.Next)

	none, err := svc.List(context.Background(), "nobody", pagination.Default())
	require.NoError(t, err)
	assert.Empty(t, none.Data)
	assert.Equal(t, pagination.Page{Next: -1, Limit: 10, Previous: -1}, none.Page)
}

func TestList_RejectsInvalidWindow(t *testing.T) {
	svc := orders.NewService(memory.NewOrderStore(), memory.NewProductStore(), nil)

	_, err := svc.List(context.Background(), "u1", pagination.Params{Limit: 0})
	var ve *validation.Error
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	assert.Contains(t, ve.Fields, "limit")
}

// slowCatalog answers lookups with per-product delays so they complete out of order.
type slowCatalog struct {
	products map[string]products.Product
	delays   map[string]time.Duration
	err      error
}

func (c *slowCatalog) FindByID(ctx context.Context, id string) (*products.Product, error) {
	select {
	case <-time.After(c.delays[id]):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func TestResolve_PreservesItemOrder(t *testing.T) {
	catalog := &slowCatalog{
		products: map[string]products.Product{
			"A": {ID: "A", Name: "a", Price: 1},
			"B": {ID: "B", Name: "b", Price: 2},
			"C": {ID: "C", Name: "c", Price: 3},
		},
		delays: map[string]time.Duration{"A": 30 * time.Millisecond, "B": 15 * time.Millisecond},
	}
	svc := orders.NewService(memory.NewOrderStore(), catalog, nil, orders.WithLookupConcurrency(4))

	res, err := svc.Resolve(context.Background(), orders.Order{
		ID:     "o1",
		UserID: "u1",
		Items: []orders.Item{
			{ProductID: "A", Quantity: 1},
			{ProductID: "X", Quantity: 9},
			{ProductID: "B", Quantity: 1},
			{ProductID: "C", Quantity: 1},
		},
	})
	require.NoError(t, err)

	ids := make([]string, 0, len(res.Order.Items))
	for _, it := range res.Order.Items {
		ids = append(ids, it.ProductDetails.ID)
	}
	assert.Equal(t, []string{"A", "B", "C"}, ids)
	assert.Equal(t, []string{"X"}, res.Dangling)
	assert.Equal(t, 6.0, res.Order.Total)
}

func TestResolve_LookupFailureFailsTheOrder(t *testing.T) {
	catalog := &slowCatalog{err: errors.New("throttled")}
	svc := orders.NewService(memory.NewOrderStore(), catalog, nil)

	_, err := svc.Resolve(context.Background(), orders.Order{ID: "o1", Items: []orders.Item{{ProductID: "A", Quantity: 1}}})
	require.Error(t, err)
	assert.True(t, storage.IsStorageError(err))
}

func TestList_CancelledContextReturnsNoPartialResult(t *testing.T) {
	catalog := &slowCatalog{
		products: map[string]products.Product{"A": {ID: "A", Price: 1}},
		delays:   map[string]time.Duration{"A": time.Second},
	}
	store := memory.NewOrderStore()
	addOrder(t, store, "u1", orders.Item{ProductID: "A", Quantity: 1})
	svc := orders.NewService(store, catalog, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	env, err := svc.List(ctx, "u1", pagination.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Empty(t, env.Data)
}

type recordingPublisher struct {
	events []orders.OrderCreatedEvent
	err    error
}

func (p *recordingPublisher) PublishOrderCreated(ctx context.Context, ev orders.OrderCreatedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func TestCreate_StampsCreatedAtAndPublishes(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	store := memory.NewOrderStore()
	pub := &recordingPublisher{}
	svc := orders.NewService(store, memory.NewProductStore(), nil,
		orders.WithClock(func() time.Time { return now }),
		orders.WithPublisher(pub),
	)

	id, err := svc.Create(context.Background(), validation.CreateOrderRequest{
		UserID: "u1",
		Items:  []validation.OrderItem{{ProductID: "6f1c2a9e-3b4d-4e5f-8a7b-9c0d1e2f3a4b", Quantity: 2}},
	})
	require.NoError(t, err)

	stored, err := store.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.CreatedAt.Equal(now))
	assert.Equal(t, []orders.Item{{ProductID: "6f1c2a9e-3b4d-4e5f-8a7b-9c0d1e2f3a4b", Quantity: 2}}, stored.Items)

	require.Len(t, pub.events, 1)
	assert.Equal(t, orders.OrderCreatedEvent{OrderID: id, UserID: "u1", ItemCount: 1, CreatedAt: now}, pub.events[0])
}

func TestCreate_PublishFailureDoesNotFailRequest(t *testing.T) {
	store := memory.NewOrderStore()
	svc := orders.NewService(store, memory.NewProductStore(), nil, orders.WithPublisher(&recordingPublisher{err: errors.New("queue down")}))

	id, err := svc.Create(context.Background(), validation.CreateOrderRequest{
		UserID: "u1",
		Items:  []validation.OrderItem{{ProductID: "6f1c2a9e-3b4d-4e5f-8a7b-9c0d1e2f3a4b", Quantity: 1}},
	})
	require.NoError(t, err)
	n, err := store.Count(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotEmpty(t, id)
}

func TestCreate_DoesNotCheckProductExistence(t *testing.T) {
	svc := orders.NewService(memory.NewOrderStore(), memory.NewProductStore(), nil)

	_, err := svc.Create(context.Background(), validation.CreateOrderRequest{
		UserID: "u1",
		Items:  []validation.OrderItem{{ProductID: "00000000-0000-4000-8000-000000000000", Quantity: 1}},
	})
	require.NoError(t, err)
}

func TestCreate_ValidationError(t *testing.T) {
	svc := orders.NewService(memory.NewOrderStore(), memory.NewProductStore(), nil)

	_, err := svc.Create(context.Background(), validation.CreateOrderRequest{UserID: "u1"})
	var ve *validation.Error
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	assert.Contains(t, ve.Fields, "items")
}

type countingRecorder struct{ resolved, dangling int }

func (r *countingRecorder) ObserveResolution(resolved, dangling int) {
	r.resolved += resolved
	r.dangling += dangling
}

func TestList_RecordsResolutionOutcomes(t *testing.T) {
	catalog := memory.NewProductStore(memory.WithIDs(fixedIDs("P1")))
	addProduct(t, catalog, "Shirt", 1)
	store := memory.NewOrderStore()
	addOrder(t, store, "u1", orders.Item{ProductID: "P1", Quantity: 1}, orders.Item{ProductID: "gone", Quantity: 1})
	addOrder(t, store, "u1", orders.Item{ProductID: "gone", Quantity: 1})

	rec := &countingRecorder{}
	_, err := orders.NewService(store, catalog, nil, orders.WithRecorder(rec)).List(context.Background(), "u1", pagination.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, rec.resolved)
	assert.Equal(t, 2, rec.dangling)
}
