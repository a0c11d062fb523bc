package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/imrishuroy/go-catalog-orders/internal/orders"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
)

// OrderStore is an orders.Store over one collection.
type OrderStore struct {
	coll    *mongo.Collection
	newID   func() string
	nowFunc func() time.Time
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{
		coll:    db.Collection(OrdersCollection),
		newID:   uuid.NewString,
		nowFunc: time.Now,
	}
}

// EnsureIndexes creates the (user_id, created_at) index the listing sorts on.
func (s *OrderStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName("user_id_created_at"),
	})
	return storage.Wrap("orders.ensure_indexes", err)
}

func (s *OrderStore) Insert(ctx context.Context, o *orders.Order) (string, error) {
	o.ID = s.newID()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.nowFunc().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, o); err != nil {
		return "", storage.Wrap("orders.insert", err)
	}
	return o.ID, nil
}

func (s *OrderStore) Count(ctx context.Context, userID string) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, storage.Wrap("orders.count", err)
	}
	return int(n), nil
}

func (s *OrderStore) FindWindow(ctx context.Context, userID string, offset, limit int) ([]orders.Order, error) {
	cur, err := s.coll.Find(ctx, bson.M{"user_id": userID}, windowOptions(offset, limit))
	if err != nil {
		return nil, storage.Wrap("orders.find", err)
	}
	out, err := decodeAll[orders.Order](ctx, cur)
	if err != nil {
		return nil, storage.Wrap("orders.find", err)
	}
	return out, nil
}

// FindByID returns (nil, nil) when no document has the id.
func (s *OrderStore) FindByID(ctx context.Context, id string) (*orders.Order, error) {
	var o orders.Order
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Wrap("orders.find_by_id", err)
	}
	return &o, nil
}

var _ orders.Store = (*OrderStore)(nil)
