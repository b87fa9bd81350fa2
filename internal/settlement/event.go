// Package settlement turns verified payment-completed events into durable
// order records and hands them to fulfillment.
package settlement

import (
	"errors"

	"github.com/erazemk/nalepka/internal/model"
)

// Event is a payment-completed notification from the payment processor.
// Signature verification happens before an Event is constructed; the
// reconciler trusts the payload but never the arithmetic: totals are
// recomputed from the line items.
type Event struct {
	SessionID string     `json:"session_id"`
	UserID    int64      `json:"user_id"`
	Email     string     `json:"email"`
	Items     []LineItem `json:"items"`

	// Shipping is present only for physical delivery.
	Shipping *model.ShippingAddress `json:"shipping,omitempty"`
}

// LineItem is one purchased product in the event payload. Prices are in
// cents, the processor's convention.
type LineItem struct {
	ProductRef     string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"price"`
}

// ErrMalformedEvent means the event is missing the user, email, or items it
// must carry. No order is created for a malformed event: no order is better
// than a wrong one.
var ErrMalformedEvent = errors.New("malformed payment event")

// ErrAlreadyProcessing means the order was already submitted for fulfillment
// and will not be submitted again.
var ErrAlreadyProcessing = errors.New("order already submitted for fulfillment")

// validate checks the hard preconditions of settlement.
func (e *Event) validate() error {
	if e.SessionID == "" || e.UserID <= 0 || e.Email == "" || len(e.Items) == 0 {
		return ErrMalformedEvent
	}
	for _, item := range e.Items {
		if item.ProductRef == "" || item.Quantity <= 0 || item.UnitPriceCents < 0 {
			return ErrMalformedEvent
		}
	}
	return nil
}

// total recomputes the order total server-side from the line items.
func (e *Event) total() int64 {
	var sum int64
	for _, item := range e.Items {
		sum += item.UnitPriceCents * int64(item.Quantity)
	}
	return sum
}
