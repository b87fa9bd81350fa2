package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/nalepka/internal/model"
)

// CreateOrder inserts a paid order. checkout_session_id is unique, so a
// redelivered payment event fails here instead of creating a duplicate.
func CreateOrder(ctx context.Context, db *sql.DB, userID int64, email, sessionID string, totalCents int64, idempotencyKey string) (*model.Order, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO orders (user_id, email, checkout_session_id, total_cents, idempotency_key)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, email, sessionID, totalCents, idempotencyKey,
	)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting order id: %w", err)
	}

	return GetOrder(ctx, db, id)
}

// GetOrder returns an order by ID.
func GetOrder(ctx context.Context, db *sql.DB, id int64) (*model.Order, error) {
	return scanOrder(db.QueryRowContext(ctx,
		`SELECT id, user_id, email, checkout_session_id, status, total_cents,
		        fulfillment_error, fulfillment_order_id, idempotency_key, created_at
		 FROM orders WHERE id = ?`, id,
	))
}

// GetOrderBySessionID returns the order created for a checkout session, if any.
func GetOrderBySessionID(ctx context.Context, db *sql.DB, sessionID string) (*model.Order, error) {
	return scanOrder(db.QueryRowContext(ctx,
		`SELECT id, user_id, email, checkout_session_id, status, total_cents,
		        fulfillment_error, fulfillment_order_id, idempotency_key, created_at
		 FROM orders WHERE checkout_session_id = ?`, sessionID,
	))
}

func scanOrder(row *sql.Row) (*model.Order, error) {
	o := &model.Order{}
	var fulfillErr, fulfillID sql.NullString
	err := row.Scan(&o.ID, &o.UserID, &o.Email, &o.CheckoutSessionID, &o.Status, &o.TotalCents,
		&fulfillErr, &fulfillID, &o.IdempotencyKey, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	o.FulfillmentError = fulfillErr.String
	o.FulfillmentOrderID = fulfillID.String
	return o, nil
}

// ListOrdersForUser returns a user's orders, newest first.
func ListOrdersForUser(ctx context.Context, db *sql.DB, userID int64) ([]model.Order, error) {
	return listOrders(ctx, db,
		`SELECT id, user_id, email, checkout_session_id, status, total_cents,
		        fulfillment_error, fulfillment_order_id, idempotency_key, created_at
		 FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// ListUnfulfilledOrders returns orders with a recorded fulfillment error,
// for the operator diagnostics view.
func ListUnfulfilledOrders(ctx context.Context, db *sql.DB) ([]model.Order, error) {
	return listOrders(ctx, db,
		`SELECT id, user_id, email, checkout_session_id, status, total_cents,
		        fulfillment_error, fulfillment_order_id, idempotency_key, created_at
		 FROM orders WHERE fulfillment_error IS NOT NULL ORDER BY created_at DESC`)
}

func listOrders(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Order, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var fulfillErr, fulfillID sql.NullString
		if err := rows.Scan(&o.ID, &o.UserID, &o.Email, &o.CheckoutSessionID, &o.Status, &o.TotalCents,
			&fulfillErr, &fulfillID, &o.IdempotencyKey, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		o.FulfillmentError = fulfillErr.String
		o.FulfillmentOrderID = fulfillID.String
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// DeleteOrder hard-deletes an order and (via cascade) its line items and
// shipping address. Used only as the compensating action when line-item
// creation fails.
func DeleteOrder(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	return nil
}

// CreateOrderItems inserts all line-item snapshots for an order in one
// transaction; either all lines land or none do.
func CreateOrderItems(ctx context.Context, db *sql.DB, orderID int64, items []model.OrderItem) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_ref, quantity, unit_price_cents, total_cents)
			 VALUES (?, ?, ?, ?, ?)`,
			orderID, item.ProductRef, item.Quantity, item.UnitPriceCents, item.TotalCents,
		)
		if err != nil {
			return fmt.Errorf("creating order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order items: %w", err)
	}
	return nil
}

// ListOrderItems returns an order's line items.
func ListOrderItems(ctx context.Context, db *sql.DB, orderID int64) ([]model.OrderItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, product_ref, quantity, unit_price_cents, total_cents
		 FROM order_items WHERE order_id = ? ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductRef, &item.Quantity,
			&item.UnitPriceCents, &item.TotalCents); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreateShippingAddress records the delivery address for an order.
func CreateShippingAddress(ctx context.Context, db *sql.DB, orderID int64, a model.ShippingAddress) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO shipping_addresses (order_id, name, line1, line2, city, postal_code, country)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		orderID, a.Name, a.Line1, a.Line2, a.City, a.PostalCode, a.Country,
	)
	if err != nil {
		return fmt.Errorf("creating shipping address: %w", err)
	}
	return nil
}

// GetShippingAddress returns an order's shipping address, if recorded.
func GetShippingAddress(ctx context.Context, db *sql.DB, orderID int64) (*model.ShippingAddress, error) {
	a := &model.ShippingAddress{}
	var line2 sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, order_id, name, line1, line2, city, postal_code, country
		 FROM shipping_addresses WHERE order_id = ?`, orderID,
	).Scan(&a.ID, &a.OrderID, &a.Name, &a.Line1, &line2, &a.City, &a.PostalCode, &a.Country)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting shipping address: %w", err)
	}
	a.Line2 = line2.String
	return a, nil
}

// SetOrderFulfillmentError annotates an order with a fulfillment failure.
// Status stays as-is: payment truth survives fulfillment failure.
func SetOrderFulfillmentError(ctx context.Context, db *sql.DB, id int64, message string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE orders SET fulfillment_error = ? WHERE id = ?`,
		message, id,
	)
	if err != nil {
		return fmt.Errorf("setting fulfillment error: %w", err)
	}
	return nil
}

// SetOrderFulfilled marks an order as submitted for fulfillment, storing the
// external order reference and clearing any prior error annotation.
func SetOrderFulfilled(ctx context.Context, db *sql.DB, id int64, externalOrderID string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE orders SET status = ?, fulfillment_order_id = ?, fulfillment_error = NULL
		 WHERE id = ?`,
		model.OrderStatusProcessing, externalOrderID, id,
	)
	if err != nil {
		return fmt.Errorf("marking order fulfilled: %w", err)
	}
	return nil
}
