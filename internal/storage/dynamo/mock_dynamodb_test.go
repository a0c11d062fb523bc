package dynamo

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is an in-memory fake that understands only the expressions the
// stores generate. Tables keep items in insertion order; pageSize > 0 splits
// Scan and Query results into pages to exercise LastEvaluatedKey handling.
type mockDynamo struct {
	mu       sync.Mutex
	keys     map[string]string // table -> key attribute
	tables   map[string][]item
	pageSize int
	failOn   map[string]error // operation -> error to return
	calls    map[string]int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		keys: map[string]string{
			"products": "product_id",
			"orders":   "order_id",
		},
		tables: map[string][]item{},
		failOn: map[string]error{},
		calls:  map[string]int{},
	}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (m *mockDynamo) enter(op string) error {
	m.calls[op]++
	return m.failOn[op]
}

func (m *mockDynamo) find(table, id string) int {
	for i, it := range m.tables[table] {
		if str(it[m.keys[table]]) == id {
			return i
		}
	}
	return -1
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("PutItem"); err != nil {
		return nil, err
	}
	table := *params.TableName
	keyAttr, ok := m.keys[table]
	if !ok {
		return nil, &types.ResourceNotFoundException{}
	}
	id := str(params.Item[keyAttr])
	if id == "" {
		return nil, errors.New("no primary key in put item")
	}
	exists := m.find(table, id) >= 0
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists("+keyAttr+")" && exists {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if exists {
		m.tables[table][m.find(table, id)] = params.Item
	} else {
		m.tables[table] = append(m.tables[table], params.Item)
	}
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetItem"); err != nil {
		return nil, err
	}
	table := *params.TableName
	i := m.find(table, str(params.Key[m.keys[table]]))
	if i < 0 {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: m.tables[table][i]}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Scan"); err != nil {
		return nil, err
	}
	table := *params.TableName
	var matched []item
	for _, it := range m.tables[table] {
		if matchesFilter(it, params.FilterExpression, params.ExpressionAttributeValues) {
			matched = append(matched, it)
		}
	}
	page, next := m.page(table, matched, params.ExclusiveStartKey)
	out := &dyn.ScanOutput{Count: int32(len(page)), LastEvaluatedKey: next}
	if params.Select != types.SelectCount {
		out.Items = page
	}
	return out, nil
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Query"); err != nil {
		return nil, err
	}
	if params.IndexName == nil || *params.IndexName != UserOrdersIndex {
		return nil, errors.New("query without the user index")
	}
	if *params.KeyConditionExpression != "user_id = :uid" {
		return nil, errors.New("unsupported key condition")
	}
	table := *params.TableName
	uid := str(params.ExpressionAttributeValues[":uid"])
	var matched []item
	for _, it := range m.tables[table] {
		if str(it["user_id"]) == uid {
			matched = append(matched, it)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, _ := strconv.ParseInt(matched[i]["created_seq"].(*types.AttributeValueMemberN).Value, 10, 64)
		b, _ := strconv.ParseInt(matched[j]["created_seq"].(*types.AttributeValueMemberN).Value, 10, 64)
		if params.ScanIndexForward != nil && !*params.ScanIndexForward {
			return a > b
		}
		return a < b
	})
	page, next := m.page(table, matched, params.ExclusiveStartKey)
	out := &dyn.QueryOutput{Count: int32(len(page)), LastEvaluatedKey: next}
	if params.Select != types.SelectCount {
		out.Items = page
	}
	return out, nil
}

func (m *mockDynamo) DescribeTable(ctx context.Context, params *dyn.DescribeTableInput, optFns ...func(*dyn.Options)) (*dyn.DescribeTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DescribeTable"); err != nil {
		return nil, err
	}
	if _, ok := m.keys[*params.TableName]; !ok {
		return nil, &types.ResourceNotFoundException{Message: params.TableName}
	}
	return &dyn.DescribeTableOutput{Table: &types.TableDescription{TableName: params.TableName}}, nil
}

// page returns the slice after start (by key) and the key to resume from.
func (m *mockDynamo) page(table string, matched []item, start item) ([]item, item) {
	keyAttr := m.keys[table]
	from := 0
	if start != nil {
		for i, it := range matched {
			if str(it[keyAttr]) == str(start[keyAttr]) {
				from = i + 1
				break
			}
		}
	}
	rest := matched[from:]
	if m.pageSize <= 0 || len(rest) <= m.pageSize {
		return rest, nil
	}
	page := rest[:m.pageSize]
	last := page[len(page)-1]
	return page, item{keyAttr: last[keyAttr]}
}

func matchesFilter(it item, expr *string, values map[string]types.AttributeValue) bool {
	if expr == nil {
		return true
	}
	if strings.Contains(*expr, "contains(name_lower, :name)") {
		if !strings.Contains(str(it["name_lower"]), str(values[":name"])) {
			return false
		}
	}
	if strings.Contains(*expr, "contains(size_index, :size)") {
		list, ok := it["size_index"].(*types.AttributeValueMemberL)
		if !ok {
			return false
		}
		found := false
		for _, v := range list.Value {
			if str(v) == str(values[":size"]) {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}
