package model

import "time"

// Order represents a completed checkout. Status never reverts once paid:
// a fulfillment failure is recorded as a sticky annotation, not a status.
type Order struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	Email              string    `json:"email"`
	CheckoutSessionID  string    `json:"checkout_session_id"`
	Status             string    `json:"status"`
	TotalCents         int64     `json:"total_cents"`
	FulfillmentError   string    `json:"fulfillment_error,omitempty"`
	FulfillmentOrderID string    `json:"fulfillment_order_id,omitempty"`
	IdempotencyKey     string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}

// Order statuses.
const (
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
)

// OrderItem is a line-item snapshot taken at purchase time. Prices are
// never recalculated from the catalog afterwards.
type OrderItem struct {
	ID             int64  `json:"id"`
	OrderID        int64  `json:"order_id"`
	ProductRef     string `json:"product_ref"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	TotalCents     int64  `json:"total_cents"`
}

// ShippingAddress is the delivery address recorded for an order.
type ShippingAddress struct {
	ID         int64  `json:"id"`
	OrderID    int64  `json:"order_id"`
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}
