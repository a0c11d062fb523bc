// Package dynamo stores products and orders in DynamoDB.
//
// Products live in a table keyed by product_id. Two derived attributes,
// name_lower and size_index, let list filters run as Scan filter expressions.
// Orders live in a table keyed by order_id with a global secondary index on
// (user_id, created_seq) so a user's orders come back oldest first.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-catalog-orders/internal/aws"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
)

const (
	DefaultProductsTable = "products"
	DefaultOrdersTable   = "orders"

	// UserOrdersIndex is the GSI the order listing queries.
	UserOrdersIndex = "user_id-created_seq-index"
)

// ErrDuplicateID is returned when a generated id already exists.
var ErrDuplicateID = errors.New("document id already exists")

type item = map[string]types.AttributeValue

// maxPrealloc caps the window slice capacity; limit is client controlled.
const maxPrealloc = 1024

// pageFunc fetches one page starting after start. count is the number of
// matches in the page, which is all a COUNT select returns.
type pageFunc func(ctx context.Context, start item) (items []item, count int, next item, err error)

// countAll sums match counts over every page.
func countAll(ctx context.Context, fetch pageFunc) (int, error) {
	total := 0
	var start item
	for {
		_, n, next, err := fetch(ctx, start)
		if err != nil {
			return 0, err
		}
		total += n
		if len(next) == 0 {
			return total, nil
		}
		start = next
	}
}

// collectWindow pages through matches, skips the first offset and keeps at
// most limit. DynamoDB has no native skip, so skipped items are still read.
func collectWindow(ctx context.Context, fetch pageFunc, offset, limit int) ([]item, error) {
	out := make([]item, 0, min(limit, maxPrealloc))
	skipped := 0
	var start item
	for {
		items, _, next, err := fetch(ctx, start)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if skipped < offset {
				skipped++
				continue
			}
			out = append(out, it)
			if len(out) == limit {
				return out, nil
			}
		}
		if len(next) == 0 {
			return out, nil
		}
		start = next
	}
}

// Ping checks that every table exists and is reachable.
func Ping(ctx context.Context, client aws.DynamoDBAPI, tables ...string) error {
	for _, table := range tables {
		_, err := client.DescribeTable(ctx, &dyn.DescribeTableInput{TableName: &table})
		if err == nil {
			continue
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
			return storage.Wrap("dynamodb.ping", fmt.Errorf("table %q does not exist", table))
		}
		return storage.Wrap("dynamodb.ping", fmt.Errorf("describe table %s: %w", table, err))
	}
	return nil
}

// putNew writes it unless an item with the same key attribute exists.
func putNew(ctx context.Context, client aws.DynamoDBAPI, table, keyAttr string, it item) error {
	cond := fmt.Sprintf("attribute_not_exists(%s)", keyAttr)
	_, err := client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &table,
		Item:                it,
		ConditionExpression: &cond,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrDuplicateID
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// getByKey returns (nil, nil) if the item does not exist.
func getByKey(ctx context.Context, client aws.DynamoDBAPI, table, keyAttr, id string) (item, error) {
	out, err := client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &table,
		Key:            item{keyAttr: &types.AttributeValueMemberS{Value: id}},
		ConsistentRead: sdkaws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}
