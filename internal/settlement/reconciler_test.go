package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/nalepka/internal/db"
	"github.com/erazemk/nalepka/internal/fulfillment"
	"github.com/erazemk/nalepka/internal/model"
	"github.com/erazemk/nalepka/internal/store"
)

// fakeFulfiller records requests and returns a scripted result.
type fakeFulfiller struct {
	requests []fulfillment.Request
	err      error
}

func (f *fakeFulfiller) Fulfill(_ context.Context, req fulfillment.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return "ext-42", nil
}

func seedBuyer(t *testing.T, r *Reconciler) int64 {
	t.Helper()
	user, err := store.CreateUser(context.Background(), r.DB, "alice", "alice@example.com", "hash", "user")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user.ID
}

func paidEvent(userID int64) Event {
	return Event{
		SessionID: "cs_123",
		UserID:    userID,
		Email:     "alice@example.com",
		Items: []LineItem{
			{ProductRef: "pack-10", Quantity: 2, UnitPriceCents: 500},
		},
		Shipping: &model.ShippingAddress{
			Name: "Alice", Line1: "Main St 1", City: "Ljubljana", PostalCode: "1000", Country: "SI",
		},
	}
}

func TestSettle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	fake := &fakeFulfiller{}
	r := &Reconciler{DB: database, Fulfiller: fake}
	userID := seedBuyer(t, r)

	order, err := r.Settle(ctx, paidEvent(userID))
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	// The total is recomputed from the lines, 2 × 500.
	if order.TotalCents != 1000 {
		t.Errorf("expected total 1000, got %d", order.TotalCents)
	}
	if order.Status != model.OrderStatusProcessing {
		t.Errorf("expected status 'processing' after fulfillment, got %q", order.Status)
	}
	if order.FulfillmentOrderID != "ext-42" {
		t.Errorf("expected external id 'ext-42', got %q", order.FulfillmentOrderID)
	}

	items, _ := store.ListOrderItems(ctx, database, order.ID)
	if len(items) != 1 || items[0].TotalCents != 1000 {
		t.Errorf("unexpected line items %+v", items)
	}
	addr, _ := store.GetShippingAddress(ctx, database, order.ID)
	if addr == nil || addr.City != "Ljubljana" {
		t.Errorf("expected shipping address recorded, got %+v", addr)
	}

	if len(fake.requests) != 1 {
		t.Fatalf("expected 1 fulfillment request, got %d", len(fake.requests))
	}
	req := fake.requests[0]
	if req.OrderID != order.ID || req.IdempotencyKey == "" || req.Address == nil {
		t.Errorf("unexpected fulfillment request %+v", req)
	}
}

func TestSettleMalformedEvent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	r := &Reconciler{DB: database, Fulfiller: &fakeFulfiller{}}
	userID := seedBuyer(t, r)

	bad := []Event{
		{},
		{SessionID: "cs_1", UserID: userID, Email: "a@b.c"},
		{SessionID: "cs_1", UserID: userID, Email: "a@b.c", Items: []LineItem{{ProductRef: "p", Quantity: 0, UnitPriceCents: 1}}},
		{SessionID: "cs_1", UserID: userID, Email: "a@b.c", Items: []LineItem{{ProductRef: "", Quantity: 1, UnitPriceCents: 1}}},
	}
	for _, ev := range bad {
		if _, err := r.Settle(ctx, ev); !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("expected ErrMalformedEvent for %+v, got %v", ev, err)
		}
	}

	// Nothing was written.
	orders, _ := store.ListOrdersForUser(ctx, database, userID)
	if len(orders) != 0 {
		t.Errorf("malformed events must create no orders, got %d", len(orders))
	}
}

func TestSettleDuplicateSession(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	fake := &fakeFulfiller{}
	r := &Reconciler{DB: database, Fulfiller: fake}
	userID := seedBuyer(t, r)

	first, err := r.Settle(ctx, paidEvent(userID))
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	second, err := r.Settle(ctx, paidEvent(userID))
	if err != nil {
		t.Fatalf("redelivered Settle: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected the existing order back, got %d and %d", first.ID, second.ID)
	}
	if len(fake.requests) != 1 {
		t.Errorf("redelivery must not re-submit fulfillment, got %d requests", len(fake.requests))
	}

	orders, _ := store.ListOrdersForUser(ctx, database, userID)
	if len(orders) != 1 {
		t.Errorf("expected exactly 1 order, got %d", len(orders))
	}
}

func TestSettleWithoutShipping(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// No fulfillment provider configured; the order settles but stays paid.
	r := &Reconciler{DB: database}
	userID := seedBuyer(t, r)

	ev := paidEvent(userID)
	ev.Shipping = nil

	order, err := r.Settle(ctx, ev)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if order.TotalCents != 1000 || order.Status != model.OrderStatusPaid {
		t.Errorf("expected paid order totalling 1000, got %+v", order)
	}
	items, _ := store.ListOrderItems(ctx, database, order.ID)
	if len(items) != 1 || items[0].TotalCents != 1000 {
		t.Errorf("unexpected line items %+v", items)
	}
	addr, _ := store.GetShippingAddress(ctx, database, order.ID)
	if addr != nil {
		t.Errorf("expected no shipping address, got %+v", addr)
	}
}

func TestSettleLineItemFailureCompensates(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	r := &Reconciler{DB: database, Fulfiller: &fakeFulfiller{}}
	userID := seedBuyer(t, r)

	// Break line-item insertion after the order insert will have succeeded.
	if _, err := database.Exec(`DROP TABLE order_items`); err != nil {
		t.Fatalf("dropping order_items: %v", err)
	}

	if _, err := r.Settle(ctx, paidEvent(userID)); err == nil {
		t.Fatal("expected settlement to fail without line items")
	}

	// The compensating delete removed the order; no orphan survives.
	orphan, _ := store.GetOrderBySessionID(ctx, database, "cs_123")
	if orphan != nil {
		t.Errorf("expected no orphan order, got %+v", orphan)
	}
}

func TestSettleShippingFailureNonFatal(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	r := &Reconciler{DB: database, Fulfiller: &fakeFulfiller{}}
	userID := seedBuyer(t, r)

	if _, err := database.Exec(`DROP TABLE shipping_addresses`); err != nil {
		t.Fatalf("dropping shipping_addresses: %v", err)
	}

	order, err := r.Settle(ctx, paidEvent(userID))
	if err != nil {
		t.Fatalf("shipping failure must not fail settlement: %v", err)
	}

	items, _ := store.ListOrderItems(ctx, database, order.ID)
	if len(items) != 1 {
		t.Errorf("expected line items intact, got %d", len(items))
	}
}

func TestSettleFulfillmentFailure(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	fake := &fakeFulfiller{err: errors.New("print api unreachable")}
	r := &Reconciler{DB: database, Fulfiller: fake}
	userID := seedBuyer(t, r)

	order, err := r.Settle(ctx, paidEvent(userID))
	if err != nil {
		t.Fatalf("fulfillment failure must not fail settlement: %v", err)
	}

	// The order survives as paid, with the failure recorded for the
	// operator.
	if order.Status != model.OrderStatusPaid {
		t.Errorf("expected status 'paid', got %q", order.Status)
	}
	if order.FulfillmentError != "print api unreachable" {
		t.Errorf("expected error annotation, got %q", order.FulfillmentError)
	}

	unfulfilled, _ := store.ListUnfulfilledOrders(ctx, database)
	if len(unfulfilled) != 1 {
		t.Errorf("expected order in the diagnostics view, got %d", len(unfulfilled))
	}
}

func TestSettleCartCleared(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	r := &Reconciler{DB: database, Fulfiller: &fakeFulfiller{}}
	userID := seedBuyer(t, r)

	pack, _ := store.CreateProduct(ctx, database, "Sticker pack (10)", "", 500, 10)
	store.SetCartItem(ctx, database, userID, pack.ID, 2)

	if _, err := r.Settle(ctx, paidEvent(userID)); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	cart, _ := store.GetCart(ctx, database, userID)
	if len(cart) != 0 {
		t.Errorf("expected cart cleared after settlement, got %d lines", len(cart))
	}
}

func TestRetryFulfillment(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	fake := &fakeFulfiller{err: errors.New("print api unreachable")}
	r := &Reconciler{DB: database, Fulfiller: fake}
	userID := seedBuyer(t, r)

	order, _ := r.Settle(ctx, paidEvent(userID))
	if order.Status != model.OrderStatusPaid {
		t.Fatalf("expected failed fulfillment to leave order paid, got %q", order.Status)
	}

	// The provider recovers; the operator retries.
	fake.err = nil
	retried, err := r.RetryFulfillment(ctx, order.ID)
	if err != nil {
		t.Fatalf("RetryFulfillment: %v", err)
	}
	if retried.Status != model.OrderStatusProcessing {
		t.Errorf("expected status 'processing' after retry, got %q", retried.Status)
	}
	if retried.FulfillmentError != "" {
		t.Errorf("expected error annotation cleared, got %q", retried.FulfillmentError)
	}

	// A second retry must not reach the provider again.
	if _, err := r.RetryFulfillment(ctx, order.ID); !errors.Is(err, ErrAlreadyProcessing) {
		t.Errorf("expected ErrAlreadyProcessing, got %v", err)
	}
	if len(fake.requests) != 2 {
		t.Errorf("expected 2 provider calls total, got %d", len(fake.requests))
	}

	// The retry reused the order's idempotency key.
	if fake.requests[0].IdempotencyKey != fake.requests[1].IdempotencyKey {
		t.Error("retry must reuse the original idempotency key")
	}
}
