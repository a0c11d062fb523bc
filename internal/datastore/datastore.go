// Package datastore opens the product and order stores named by a connection
// string.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-catalog-orders/internal/aws"
	"github.com/imrishuroy/go-catalog-orders/internal/orders"
	"github.com/imrishuroy/go-catalog-orders/internal/products"
	"github.com/imrishuroy/go-catalog-orders/internal/storage/dynamo"
	"github.com/imrishuroy/go-catalog-orders/internal/storage/memory"
	"github.com/imrishuroy/go-catalog-orders/internal/storage/mongodb"
)

// Supported backends.
const (
	BackendMemory   = "memory"
	BackendMongoDB  = "mongodb"
	BackendDynamoDB = "dynamodb"
)

var ErrMissingURL = errors.New("store url is empty")

// Target is a parsed connection string.
type Target struct {
	Backend string
	URI     string // as given; the mongo driver parses it itself

	Database string // mongodb

	Region        string // dynamodb
	Endpoint      string
	ProductsTable string
	OrdersTable   string
}

// ParseURL validates raw and extracts the backend settings.
//
//	mongodb://host/db, mongodb+srv://host/db
//	dynamodb://us-east-1?endpoint=http://localhost:4566&products_table=p&orders_table=o
//	memory://
func ParseURL(raw string) (Target, error) {
	if strings.TrimSpace(raw) == "" {
		return Target{}, ErrMissingURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse store url: %w", err)
	}

	switch u.Scheme {
	case "memory":
		return Target{Backend: BackendMemory, URI: raw}, nil
	case "mongodb", "mongodb+srv":
		db := strings.Trim(u.Path, "/")
		if db == "" {
			db = mongodb.DefaultDatabase
		}
		return Target{Backend: BackendMongoDB, URI: raw, Database: db}, nil
	case "dynamodb":
		q := u.Query()
		t := Target{
			Backend:       BackendDynamoDB,
			URI:           raw,
			Region:        u.Host,
			Endpoint:      q.Get("endpoint"),
			ProductsTable: q.Get("products_table"),
			OrdersTable:   q.Get("orders_table"),
		}
		if t.ProductsTable == "" {
			t.ProductsTable = dynamo.DefaultProductsTable
		}
		if t.OrdersTable == "" {
			t.OrdersTable = dynamo.DefaultOrdersTable
		}
		return t, nil
	case "":
		return Target{}, fmt.Errorf("store url %q has no scheme", redact(u))
	default:
		return Target{}, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

// Stores bundles the opened stores with the handle they share.
type Stores struct {
	Backend  string
	Products products.Store
	Orders   orders.Store

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks the backend is still reachable.
func (s *Stores) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backend connection.
func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the backend named by rawURL and pings it once. Any failure
// is returned so the caller can abort startup.
func Open(ctx context.Context, rawURL string, logger *log.Entry) (*Stores, error) {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	t, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	logger = logger.WithFields(log.Fields{"component": "datastore", "backend": t.Backend})

	var stores *Stores
	switch t.Backend {
	case BackendMemory:
		stores = openMemory()
	case BackendMongoDB:
		stores, err = openMongo(ctx, t)
	case BackendDynamoDB:
		stores, err = openDynamo(ctx, t)
	}
	if err != nil {
		logger.WithError(err).Error("failed to open store")
		return nil, err
	}

	logger.Info("store connected")
	return stores, nil
}

func openMemory() *Stores {
	return &Stores{
		Backend:  BackendMemory,
		Products: memory.NewProductStore(),
		Orders:   memory.NewOrderStore(),
	}
}

func openMongo(ctx context.Context, t Target) (*Stores, error) {
	client, err := mongodb.Connect(ctx, t.URI)
	if err != nil {
		return nil, err
	}
	db := client.Database(t.Database)

	orderStore := mongodb.NewOrderStore(db)
	if err := orderStore.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Stores{
		Backend:  BackendMongoDB,
		Products: mongodb.NewProductStore(db),
		Orders:   orderStore,
		ping:     func(ctx context.Context) error { return mongodb.Ping(ctx, client) },
		close:    client.Disconnect,
	}, nil
}

func openDynamo(ctx context.Context, t Target) (*Stores, error) {
	cfg, err := aws.LoadAWSConfigWith(ctx, aws.ConfigOptions{Region: t.Region, Endpoint: t.Endpoint})
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(cfg)
	return openDynamoWith(ctx, client, t)
}

func openDynamoWith(ctx context.Context, client aws.DynamoDBAPI, t Target) (*Stores, error) {
	ping := func(ctx context.Context) error {
		return dynamo.Ping(ctx, client, t.ProductsTable, t.OrdersTable)
	}
	if err := ping(ctx); err != nil {
		return nil, err
	}
	return &Stores{
		Backend:  BackendDynamoDB,
		Products: dynamo.NewProductStore(client, t.ProductsTable),
		Orders:   dynamo.NewOrderStore(client, t.OrdersTable),
		ping:     ping,
	}, nil
}

// redact strips credentials so the url can be logged or returned.
func redact(u *url.URL) string {
	if u.User == nil {
		return u.String()
	}
	c := *u
	c.User = url.User("xxxxx")
	return c.String()
}
