// Package mongodb stores products and orders in MongoDB collections.
// Document ids are UUID strings held in _id.
package mongodb

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/imrishuroy/go-catalog-orders/internal/products"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
)

const (
	DefaultDatabase        = "ecommerce"
	ProductsCollection     = "products"
	OrdersCollection       = "orders"
	defaultApplicationName = "catalog-orders"
)

// Connect dials uri and verifies the deployment answers a ping before
// returning. The caller owns the client and must Disconnect it.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri).SetAppName(defaultApplicationName)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, storage.Wrap("mongodb.connect", err)
	}
	if err := Ping(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Ping checks the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return storage.Wrap("mongodb.ping", err)
	}
	return nil
}

// productFilter translates f into a query document. The name criterion is a
// literal, case-insensitive substring match.
func productFilter(f products.Filter) bson.M {
	q := bson.M{}
	if f.Name != "" {
		q["name"] = bson.M{"$regex": regexp.QuoteMeta(f.Name), "$options": "i"}
	}
	if f.Size != "" {
		q["sizes.size"] = f.Size
	}
	return q
}

// windowOptions sorts by insertion time with _id as tie breaker so repeated
// reads over unchanged data return the same window.
func windowOptions(offset, limit int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	defer cur.Close(ctx)
	out := make([]T, 0)
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		out = append(out, v)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	return out, nil
}
