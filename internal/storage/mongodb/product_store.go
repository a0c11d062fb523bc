package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/imrishuroy/go-catalog-orders/internal/products"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
)

// ProductStore is a products.Store over one collection.
type ProductStore struct {
	coll    *mongo.Collection
	newID   func() string
	nowFunc func() time.Time
}

func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{
		coll:    db.Collection(ProductsCollection),
		newID:   uuid.NewString,
		nowFunc: time.Now,
	}
}

func (s *ProductStore) Insert(ctx context.Context, p *products.Product) (string, error) {
	p.ID = s.newID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.nowFunc().UTC()
	}
	if p.Sizes == nil {
		p.Sizes = []products.SizeQuantity{}
	}
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return "", storage.Wrap("products.insert", err)
	}
	return p.ID, nil
}

func (s *ProductStore) Count(ctx context.Context, f products.Filter) (int, error) {
	n, err := s.coll.CountDocuments(ctx, productFilter(f))
	if err != nil {
		return 0, storage.Wrap("products.count", err)
	}
	return int(n), nil
}

func (s *ProductStore) FindWindow(ctx context.Context, f products.Filter, offset, limit int) ([]products.Product, error) {
	cur, err := s.coll.Find(ctx, productFilter(f), windowOptions(offset, limit))
	if err != nil {
		return nil, storage.Wrap("products.find", err)
	}
	out, err := decodeAll[products.Product](ctx, cur)
	if err != nil {
		return nil, storage.Wrap("products.find", err)
	}
	return out, nil
}

// FindByID returns (nil, nil) when no document has the id.
func (s *ProductStore) FindByID(ctx context.Context, id string) (*products.Product, error) {
	var p products.Product
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Wrap("products.find_by_id", err)
	}
	return &p, nil
}

var _ products.Store = (*ProductStore)(nil)
