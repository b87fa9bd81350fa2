package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/nalepka/internal/model"
)

// SetCartItem sets a product's quantity in a user's cart. A quantity of zero
// or less removes the line.
func SetCartItem(ctx context.Context, db *sql.DB, userID, productID int64, quantity int) error {
	if quantity <= 0 {
		_, err := db.ExecContext(ctx,
			`DELETE FROM cart_items WHERE user_id = ? AND product_id = ?`,
			userID, productID,
		)
		if err != nil {
			return fmt.Errorf("removing cart item: %w", err)
		}
		return nil
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = excluded.quantity`,
		userID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("setting cart item: %w", err)
	}
	return nil
}

// GetCart returns a user's cart lines with product details joined.
func GetCart(ctx context.Context, db *sql.DB, userID int64) ([]model.CartItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT c.user_id, c.product_id, c.quantity, p.name, p.price_cents
		 FROM cart_items c
		 JOIN products p ON p.id = c.product_id
		 WHERE c.user_id = ?
		 ORDER BY c.product_id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting cart: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var c model.CartItem
		if err := rows.Scan(&c.UserID, &c.ProductID, &c.Quantity, &c.ProductName, &c.PriceCents); err != nil {
			return nil, fmt.Errorf("scanning cart item: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// ClearCart removes all of a user's cart lines.
func ClearCart(ctx context.Context, db *sql.DB, userID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = ?`, userID,
	)
	if err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}
