package model

import "time"

// Product is a sticker-pack offering in the shop catalog.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	PriceCents   int64     `json:"price_cents"`
	StickerCount int       `json:"sticker_count"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// CartItem is a product queued for checkout by a user.
type CartItem struct {
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`

	// Joined fields (not always populated).
	ProductName string `json:"product_name,omitempty"`
	PriceCents  int64  `json:"price_cents,omitempty"`
}
