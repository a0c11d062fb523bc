package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-catalog-orders/internal/orders"
	"github.com/imrishuroy/go-catalog-orders/internal/storage"
)

func newTestOrderStore(mock *mockDynamo) *OrderStore {
	s := NewOrderStore(mock, DefaultOrdersTable)
	s.newID = seqIDs("o")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	s.nowFunc = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return s
}

func TestOrderStore_InsertAndFindByID(t *testing.T) {
	mock := newMockDynamo()
	s := newTestOrderStore(mock)
	ctx := context.Background()

	o := &orders.Order{UserID: "u1", Items: []orders.Item{{ProductID: "p-1", Quantity: 2}}}
	id, err := s.Insert(ctx, o)
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if id != "o-1" {
		t.Fatalf("unexpected id %q", id)
	}
	if _, ok := mock.tables[DefaultOrdersTable][0]["created_seq"].(*types.AttributeValueMemberN); !ok {
		t.Fatalf("expected numeric created_seq attribute")
	}

	got, err := s.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if got == nil || got.UserID != "u1" || len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	missing, err := s.FindByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for a missing order, got %+v, %v", missing, err)
	}
}

func TestOrderStore_KeepsProvidedCreatedAt(t *testing.T) {
	s := newTestOrderStore(newMockDynamo())
	at := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	o := &orders.Order{UserID: "u1", Items: []orders.Item{{ProductID: "p", Quantity: 1}}, CreatedAt: at}
	if _, err := s.Insert(context.Background(), o); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if !o.CreatedAt.Equal(at) {
		t.Fatalf("expected created_at to be kept, got %v", o.CreatedAt)
	}
}

func TestOrderStore_UserWindowOldestFirst(t *testing.T) {
	mock := newMockDynamo()
	mock.pageSize = 2
	s := newTestOrderStore(mock)
	ctx := context.Background()

	for _, uid := range []string{"u1", "u2", "u1", "u1", "u2", "u1"} {
		o := &orders.Order{UserID: uid, Items: []orders.Item{{ProductID: "p", Quantity: 1}}}
		if _, err := s.Insert(ctx, o); err != nil {
			t.Fatalf("Insert error: %v", err)
		}
	}

	n, err := s.Count(ctx, "u1")
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 orders for u1, got %d", n)
	}

	got, err := s.FindWindow(ctx, "u1", 1, 2)
	if err != nil {
		t.Fatalf("FindWindow error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "o-3" || got[1].ID != "o-4" {
		t.Fatalf("unexpected window: %+v", got)
	}

	none, err := s.Count(ctx, "nobody")
	if err != nil || none != 0 {
		t.Fatalf("expected 0 orders for unknown user, got %d, %v", none, err)
	}
}

func TestOrderStore_QueryErrorIsStorageError(t *testing.T) {
	mock := newMockDynamo()
	mock.failOn["Query"] = errors.New("throttled")
	s := newTestOrderStore(mock)

	_, err := s.FindWindow(context.Background(), "u1", 0, 10)
	var se *storage.Error
	if !errors.As(err, &se) || se.Op != "orders.find" {
		t.Fatalf("expected orders.find storage error, got %v", err)
	}
}
