package dynamo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-catalog-orders/internal/aws"
	"github.com/imrishuroy/go-catalog-orders/internal/products"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
)

// ProductStore encapsulates operations on the products table.
type ProductStore struct {
	client    aws.DynamoDBAPI
	tableName string
	newID     func() string
	nowFunc   func() time.Time
}

// NewProductStore creates a products.Store backed by tableName.
func NewProductStore(client aws.DynamoDBAPI, tableName string) *ProductStore {
	return &ProductStore{
		client:    client,
		tableName: tableName,
		newID:     uuid.NewString,
		nowFunc:   time.Now,
	}
}

// Insert writes the product with its derived filter attributes.
func (s *ProductStore) Insert(ctx context.Context, p *products.Product) (string, error) {
	p.ID = s.newID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.nowFunc().UTC()
	}

	it, err := attributevalue.MarshalMap(p)
	if err != nil {
		return "", storage.Wrap("products.insert", fmt.Errorf("marshal product: %w", err))
	}
	it["name_lower"] = &types.AttributeValueMemberS{Value: strings.ToLower(p.Name)}
	if len(p.Sizes) > 0 {
		sizes := make([]types.AttributeValue, 0, len(p.Sizes))
		for _, sq := range p.Sizes {
			sizes = append(sizes, &types.AttributeValueMemberS{Value: sq.Size})
		}
		it["size_index"] = &types.AttributeValueMemberL{Value: sizes}
	}

	if err := putNew(ctx, s.client, s.tableName, "product_id", it); err != nil {
		return "", storage.Wrap("products.insert", err)
	}
	return p.ID, nil
}

func (s *ProductStore) Count(ctx context.Context, f products.Filter) (int, error) {
	n, err := countAll(ctx, s.scan(f, types.SelectCount))
	if err != nil {
		return 0, storage.Wrap("products.count", err)
	}
	return n, nil
}

// FindWindow pages through a consistent Scan. Scan order is fixed for
// unchanged table contents, which keeps windows stable between calls.
func (s *ProductStore) FindWindow(ctx context.Context, f products.Filter, offset, limit int) ([]products.Product, error) {
	items, err := collectWindow(ctx, s.scan(f, types.SelectAllAttributes), offset, limit)
	if err != nil {
		return nil, storage.Wrap("products.find", err)
	}

	out := make([]products.Product, 0, len(items))
	for _, it := range items {
		var p products.Product
		if err := attributevalue.UnmarshalMap(it, &p); err != nil {
			return nil, storage.Wrap("products.find", fmt.Errorf("unmarshal product: %w", err))
		}
		out = append(out, p)
	}
	return out, nil
}

// FindByID fetches a product by product_id. Returns (nil, nil) if not found.
func (s *ProductStore) FindByID(ctx context.Context, id string) (*products.Product, error) {
	it, err := getByKey(ctx, s.client, s.tableName, "product_id", id)
	if err != nil {
		return nil, storage.Wrap("products.find_by_id", err)
	}
	if it == nil {
		return nil, nil
	}
	var p products.Product
	if err := attributevalue.UnmarshalMap(it, &p); err != nil {
		return nil, storage.Wrap("products.find_by_id", fmt.Errorf("unmarshal product: %w", err))
	}
	return &p, nil
}

func (s *ProductStore) scan(f products.Filter, sel types.Select) pageFunc {
	filter, values := productFilter(f)
	return func(ctx context.Context, start item) ([]item, int, item, error) {
		out, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:                 &s.tableName,
			FilterExpression:          filter,
			ExpressionAttributeValues: values,
			Select:                    sel,
			ConsistentRead:            sdkaws.Bool(true),
			ExclusiveStartKey:         start,
		})
		if err != nil {
			return nil, 0, nil, fmt.Errorf("scan: %w", err)
		}
		return out.Items, int(out.Count), out.LastEvaluatedKey, nil
	}
}

// productFilter builds the Scan filter for f. Both results are nil when f is
// empty because DynamoDB rejects empty expressions.
func productFilter(f products.Filter) (*string, map[string]types.AttributeValue) {
	var parts []string
	values := map[string]types.AttributeValue{}
	if f.Name != "" {
		parts = append(parts, "contains(name_lower, :name)")
		values[":name"] = &types.AttributeValueMemberS{Value: strings.ToLower(f.Name)}
	}
	if f.Size != "" {
		parts = append(parts, "contains(size_index, :size)")
		values[":size"] = &types.AttributeValueMemberS{Value: f.Size}
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return sdkaws.String(strings.Join(parts, " AND ")), values
}

var _ products.Store = (*ProductStore)(nil)
