package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/erazemk/nalepka/internal/fulfillment"
	"github.com/erazemk/nalepka/internal/model"
	"github.com/erazemk/nalepka/internal/store"
)

// Reconciler settles payment events. Its steps are sequential, not one
// transaction, and each failure has a fixed policy:
//
//   - malformed event: abort, write nothing
//   - order insert fails: abort
//   - shipping address fails: keep the order, log (recoverable by hand)
//   - line items fail: delete the order (compensating delete) and abort
//   - fulfillment fails: keep the order paid, annotate the error
//   - cart clear fails: log only
//
// Payment has already been captured upstream; once the order row exists the
// reconciler never undoes it except for the line-item case, where an order
// with no lines cannot justify its total.
type Reconciler struct {
	DB        *sql.DB
	Fulfiller fulfillment.Client
}

// Settle processes one payment-completed event and returns the resulting
// order. Redelivered events (same checkout session) return the existing
// order untouched.
func (r *Reconciler) Settle(ctx context.Context, ev Event) (*model.Order, error) {
	// Step 1: hard preconditions.
	if err := ev.validate(); err != nil {
		slog.Error("rejecting payment event", "session", ev.SessionID, "error", err)
		return nil, err
	}

	// Processors redeliver webhooks; the session id makes that harmless.
	if existing, err := store.GetOrderBySessionID(ctx, r.DB, ev.SessionID); err != nil {
		return nil, err
	} else if existing != nil {
		slog.Info("duplicate payment event ignored", "session", ev.SessionID, "order", existing.ID)
		return existing, nil
	}

	// Step 2: the total is always recomputed, never trusted from the payload.
	total := ev.total()

	// Step 3: the order row. Failure here aborts everything downstream.
	order, err := store.CreateOrder(ctx, r.DB, ev.UserID, ev.Email, ev.SessionID, total, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("creating order for session %s: %w", ev.SessionID, err)
	}

	// Step 4: shipping address, non-fatal. The payment is captured and an
	// order without an address can be fixed by an operator.
	if ev.Shipping != nil {
		if err := store.CreateShippingAddress(ctx, r.DB, order.ID, *ev.Shipping); err != nil {
			slog.Error("shipping address not recorded", "order", order.ID, "error", err)
		}
	}

	// Step 5: line-item snapshots, fatal. An order with no lines is
	// meaningless, so compensate by deleting the order.
	items := make([]model.OrderItem, 0, len(ev.Items))
	for _, li := range ev.Items {
		items = append(items, model.OrderItem{
			OrderID:        order.ID,
			ProductRef:     li.ProductRef,
			Quantity:       li.Quantity,
			UnitPriceCents: li.UnitPriceCents,
			TotalCents:     li.UnitPriceCents * int64(li.Quantity),
		})
	}
	if err := store.CreateOrderItems(ctx, r.DB, order.ID, items); err != nil {
		slog.Error("line items not recorded, deleting order", "order", order.ID, "error", err)
		if delErr := store.DeleteOrder(ctx, r.DB, order.ID); delErr != nil {
			slog.Error("compensating delete failed", "order", order.ID, "error", delErr)
		}
		return nil, fmt.Errorf("creating line items for order %d: %w", order.ID, err)
	}

	// Step 6: fulfillment. Failure is annotated on the order, never fatal.
	r.submit(ctx, order)

	// Step 7: the cart is stale now; clearing it is cosmetic.
	if err := store.ClearCart(ctx, r.DB, ev.UserID); err != nil {
		slog.Warn("cart not cleared", "user", ev.UserID, "error", err)
	}

	return store.GetOrder(ctx, r.DB, order.ID)
}

// RetryFulfillment re-submits an order to the fulfillment service. This is
// the explicit operator action for orders stuck with a fulfillment error;
// orders already submitted are refused.
func (r *Reconciler) RetryFulfillment(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := store.GetOrder(ctx, r.DB, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %d not found", orderID)
	}
	if order.Status == model.OrderStatusProcessing {
		return nil, ErrAlreadyProcessing
	}

	r.submit(ctx, order)
	return store.GetOrder(ctx, r.DB, orderID)
}

// submit invokes the fulfillment collaborator and records the outcome.
// Success moves the order to processing and clears any prior error; failure
// leaves status untouched and stores the message for the diagnostics view.
func (r *Reconciler) submit(ctx context.Context, order *model.Order) {
	if order.Status == model.OrderStatusProcessing {
		// Already submitted; a duplicate call must not reach the print API.
		return
	}

	externalID, err := r.dispatch(ctx, order)
	if err != nil {
		slog.Error("fulfillment failed", "order", order.ID, "error", err)
		if annErr := store.SetOrderFulfillmentError(ctx, r.DB, order.ID, err.Error()); annErr != nil {
			slog.Error("fulfillment error not recorded", "order", order.ID, "error", annErr)
		}
		return
	}

	if err := store.SetOrderFulfilled(ctx, r.DB, order.ID, externalID); err != nil {
		slog.Error("fulfillment result not recorded", "order", order.ID, "error", err)
		return
	}
	slog.Info("order submitted for fulfillment", "order", order.ID, "external_id", externalID)
}

// dispatch assembles the request from the stored rows and calls the service.
func (r *Reconciler) dispatch(ctx context.Context, order *model.Order) (string, error) {
	if r.Fulfiller == nil {
		return "", fmt.Errorf("no fulfillment provider configured")
	}

	items, err := store.ListOrderItems(ctx, r.DB, order.ID)
	if err != nil {
		return "", err
	}
	address, err := store.GetShippingAddress(ctx, r.DB, order.ID)
	if err != nil {
		return "", err
	}

	return r.Fulfiller.Fulfill(ctx, fulfillment.Request{
		OrderID:        order.ID,
		IdempotencyKey: order.IdempotencyKey,
		Email:          order.Email,
		Items:          items,
		Address:        address,
	})
}
