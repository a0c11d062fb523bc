package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-catalog-orders/internal/aws"
	"github.com/imrishuroy/go-catalog-orders/internal/orders"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
)

// OrderStore encapsulates operations on the orders table.
type OrderStore struct {
	client    aws.DynamoDBAPI
	tableName string
	indexName string
	newID     func() string
	nowFunc   func() time.Time
}

// NewOrderStore creates an orders.Store backed by tableName and its
// UserOrdersIndex.
func NewOrderStore(client aws.DynamoDBAPI, tableName string) *OrderStore {
	return &OrderStore{
		client:    client,
		tableName: tableName,
		indexName: UserOrdersIndex,
		newID:     uuid.NewString,
		nowFunc:   time.Now,
	}
}

// Insert writes the order plus created_seq, the numeric sort key of the user index.
func (s *OrderStore) Insert(ctx context.Context, o *orders.Order) (string, error) {
	o.ID = s.newID()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.nowFunc().UTC()
	}

	it, err := attributevalue.MarshalMap(o)
	if err != nil {
		return "", storage.Wrap("orders.insert", fmt.Errorf("marshal order: %w", err))
	}
	it["created_seq"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(o.CreatedAt.UnixNano(), 10)}

	if err := putNew(ctx, s.client, s.tableName, "order_id", it); err != nil {
		return "", storage.Wrap("orders.insert", err)
	}
	return o.ID, nil
}

func (s *OrderStore) Count(ctx context.Context, userID string) (int, error) {
	n, err := countAll(ctx, s.query(userID, types.SelectCount))
	if err != nil {
		return 0, storage.Wrap("orders.count", err)
	}
	return n, nil
}

func (s *OrderStore) FindWindow(ctx context.Context, userID string, offset, limit int) ([]orders.Order, error) {
	items, err := collectWindow(ctx, s.query(userID, types.SelectAllProjectedAttributes), offset, limit)
	if err != nil {
		return nil, storage.Wrap("orders.find", err)
	}

	out := make([]orders.Order, 0, len(items))
	for _, it := range items {
		var o orders.Order
		if err := attributevalue.UnmarshalMap(it, &o); err != nil {
			return nil, storage.Wrap("orders.find", fmt.Errorf("unmarshal order: %w", err))
		}
		out = append(out, o)
	}
	return out, nil
}

// FindByID fetches an order by order_id. Returns (nil, nil) if not found.
func (s *OrderStore) FindByID(ctx context.Context, id string) (*orders.Order, error) {
	it, err := getByKey(ctx, s.client, s.tableName, "order_id", id)
	if err != nil {
		return nil, storage.Wrap("orders.find_by_id", err)
	}
	if it == nil {
		return nil, nil
	}
	var o orders.Order
	if err := attributevalue.UnmarshalMap(it, &o); err != nil {
		return nil, storage.Wrap("orders.find_by_id", fmt.Errorf("unmarshal order: %w", err))
	}
	return &o, nil
}

// query walks the user index in ascending created_seq order. The index must
// project all attributes.
func (s *OrderStore) query(userID string, sel types.Select) pageFunc {
	return func(ctx context.Context, start item) ([]item, int, item, error) {
		out, err := s.client.Query(ctx, &dyn.QueryInput{
			TableName:              &s.tableName,
			IndexName:              &s.indexName,
			KeyConditionExpression: sdkaws.String("user_id = :uid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: userID},
			},
			ScanIndexForward:  sdkaws.Bool(true),
			Select:            sel,
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, 0, nil, fmt.Errorf("query: %w", err)
		}
		return out.Items, int(out.Count), out.LastEvaluatedKey, nil
	}
}

var _ orders.Store = (*OrderStore)(nil)
