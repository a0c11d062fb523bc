package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-catalog-orders/internal/products"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
)

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestProductStore(mock *mockDynamo) *ProductStore {
	s := NewProductStore(mock, DefaultProductsTable)
	s.newID = seqIDs("p")
	s.nowFunc = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func seedProducts(t *testing.T, s *ProductStore) {
	t.Helper()
	ctx := context.Background()
	for _, p := range []products.Product{
		{Name: "Blue Shirt", Price: 10, Sizes: []products.SizeQuantity{{Size: "M", Quantity: 1}}},
		{Name: "Red shirt", Price: 12, Sizes: []products.SizeQuantity{{Size: "L", Quantity: 0}, {Size: "L", Quantity: 2}}},
		{Name: "Cap", Price: 5},
		{Name: "SHIRT dress", Price: 30, Sizes: []products.SizeQuantity{{Size: "M", Quantity: 4}}},
	} {
		p := p
		if _, err := s.Insert(ctx, &p); err != nil {
			t.Fatalf("Insert error: %v", err)
		}
	}
}

func TestProductStore_InsertAndFindByID(t *testing.T) {
	mock := newMockDynamo()
	s := newTestProductStore(mock)
	ctx := context.Background()

	p := &products.Product{Name: "Blue Shirt", Price: 19.99, Sizes: []products.SizeQuantity{{Size: "M", Quantity: 3}}}
	id, err := s.Insert(ctx, p)
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if id != "p-1" || p.ID != id {
		t.Fatalf("unexpected id %q (product %q)", id, p.ID)
	}

	raw := mock.tables[DefaultProductsTable][0]
	if got := str(raw["name_lower"]); got != "blue shirt" {
		t.Fatalf("expected name_lower to be stored, got %q", got)
	}
	if _, ok := raw["size_index"].(*types.AttributeValueMemberL); !ok {
		t.Fatalf("expected size_index list attribute")
	}

	got, err := s.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if got == nil {
		t.Fatalf("expected product, got nil")
	}
	if got.Name != "Blue Shirt" || got.Price != 19.99 || len(got.Sizes) != 1 || got.Sizes[0].Quantity != 3 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("created_at mismatch: %v", got.CreatedAt)
	}
}

func TestProductStore_FindByIDMissing(t *testing.T) {
	s := newTestProductStore(newMockDynamo())

	got, err := s.FindByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing product, got %+v", got)
	}
}

func TestProductStore_InsertDuplicateID(t *testing.T) {
	mock := newMockDynamo()
	s := newTestProductStore(mock)
	s.newID = func() string { return "same" }
	ctx := context.Background()

	if _, err := s.Insert(ctx, &products.Product{Name: "a"}); err != nil {
		t.Fatalf("first Insert error: %v", err)
	}
	_, err := s.Insert(ctx, &products.Product{Name: "b"})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if !storage.IsStorageError(err) {
		t.Fatalf("expected storage error, got %T", err)
	}
}

func TestProductStore_CountAndWindowWithFilters(t *testing.T) {
	mock := newMockDynamo()
	mock.pageSize = 1 // force LastEvaluatedKey paging
	s := newTestProductStore(mock)
	seedProducts(t, s)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter products.Filter
		want   []string
	}{
		{"no filter", products.Filter{}, []string{"Blue Shirt", "Red shirt", "Cap", "SHIRT dress"}},
		{"name is case insensitive", products.Filter{Name: "shirt"}, []string{"Blue Shirt", "Red shirt", "SHIRT dress"}},
		{"size exact", products.Filter{Size: "M"}, []string{"Blue Shirt", "SHIRT dress"}},
		{"both", products.Filter{Name: "RED", Size: "L"}, []string{"Red shirt"}},
		{"none", products.Filter{Size: "XL"}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, err := s.Count(ctx, tc.filter)
			if err != nil {
				t.Fatalf("Count error: %v", err)
			}
			if n != len(tc.want) {
				t.Fatalf("expected count %d, got %d", len(tc.want), n)
			}

			got, err := s.FindWindow(ctx, tc.filter, 0, 10)
			if err != nil {
				t.Fatalf("FindWindow error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d products, got %d", len(tc.want), len(got))
			}
			for i, name := range tc.want {
				if got[i].Name != name {
					t.Fatalf("position %d: expected %s, got %s", i, name, got[i].Name)
				}
			}
		})
	}
}

func TestProductStore_WindowSkipsAcrossPages(t *testing.T) {
	mock := newMockDynamo()
	mock.pageSize = 3
	s := newTestProductStore(mock)
	seedProducts(t, s)

	got, err := s.FindWindow(context.Background(), products.Filter{}, 2, 1)
	if err != nil {
		t.Fatalf("FindWindow error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Cap" {
		t.Fatalf("expected [Cap], got %+v", got)
	}

	got, err = s.FindWindow(context.Background(), products.Filter{}, 1, math.MaxInt)
	if err != nil {
		t.Fatalf("FindWindow with unbounded limit error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 products after offset 1, got %d", len(got))
	}

	got, err = s.FindWindow(context.Background(), products.Filter{}, 10, 5)
	if err != nil {
		t.Fatalf("FindWindow error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty window past the end, got %d", len(got))
	}
}

func TestProductStore_ScanErrorIsStorageError(t *testing.T) {
	mock := newMockDynamo()
	mock.failOn["Scan"] = errors.New("throttled")
	s := newTestProductStore(mock)

	_, err := s.Count(context.Background(), products.Filter{})
	var se *storage.Error
	if !errors.As(err, &se) || se.Op != "products.count" {
		t.Fatalf("expected products.count storage error, got %v", err)
	}
}

func TestProductFilter_EmptyHasNoExpression(t *testing.T) {
	expr, values := productFilter(products.Filter{})
	if expr != nil || values != nil {
		t.Fatalf("expected nil expression and values, got %v %v", expr, values)
	}

	expr, values = productFilter(products.Filter{Name: "Shirt", Size: "M"})
	if expr == nil || *expr != "contains(name_lower, :name) AND contains(size_index, :size)" {
		t.Fatalf("unexpected expression: %v", expr)
	}
	if str(values[":name"]) != "shirt" || str(values[":size"]) != "M" {
		t.Fatalf("unexpected values: %v", values)
	}
}

func TestPing(t *testing.T) {
	mock := newMockDynamo()
	ctx := context.Background()

	if err := Ping(ctx, mock, DefaultProductsTable, DefaultOrdersTable); err != nil {
		t.Fatalf("Ping error: %v", err)
	}

	err := Ping(ctx, mock, DefaultProductsTable, "missing")
	if err == nil || !storage.IsStorageError(err) {
		t.Fatalf("expected storage error for a missing table, got %v", err)
	}

	mock.failOn["DescribeTable"] = errors.New("connection refused")
	if err := Ping(ctx, mock, DefaultProductsTable); err == nil {
		t.Fatalf("expected error when DescribeTable fails")
	}
}
