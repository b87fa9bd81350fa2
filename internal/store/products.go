package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/nalepka/internal/model"
)

// CreateProduct adds a sticker pack to the catalog.
func CreateProduct(ctx context.Context, db *sql.DB, name, description string, priceCents int64, stickerCount int) (*model.Product, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO products (name, description, price_cents, sticker_count) VALUES (?, ?, ?, ?)`,
		name, description, priceCents, stickerCount,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting product id: %w", err)
	}

	return GetProduct(ctx, db, id)
}

// GetProduct returns a product by ID.
func GetProduct(ctx context.Context, db *sql.DB, id int64) (*model.Product, error) {
	p := &model.Product{}
	var description sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, description, price_cents, sticker_count, active, created_at
		 FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &description, &p.PriceCents, &p.StickerCount, &p.Active, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	p.Description = description.String
	return p, nil
}

// ListProducts returns the catalog, optionally only active products.
func ListProducts(ctx context.Context, db *sql.DB, activeOnly bool) ([]model.Product, error) {
	query := `SELECT id, name, description, price_cents, sticker_count, active, created_at
	          FROM products`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY price_cents`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.PriceCents, &p.StickerCount, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		p.Description = description.String
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct updates a product's catalog entry.
func UpdateProduct(ctx context.Context, db *sql.DB, id int64, name, description string, priceCents int64, stickerCount int, active bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, price_cents = ?, sticker_count = ?, active = ?
		 WHERE id = ?`,
		name, description, priceCents, stickerCount, active, id,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	return nil
}
