package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/erazemk/nalepka/internal/model"
	"github.com/erazemk/nalepka/internal/settlement"
	"github.com/erazemk/nalepka/internal/store"
)

// OrdersHandler exposes customers' own orders plus the operator diagnostics
// and retry surface. Fulfillment errors are never shown to customers; from
// their side a paid order is simply on its way.
type OrdersHandler struct {
	DB         *sql.DB
	Reconciler *settlement.Reconciler
}

// customerOrder strips operator-only fields from an order.
type customerOrder struct {
	ID         int64  `json:"id"`
	Status     string `json:"status"`
	TotalCents int64  `json:"total_cents"`
	CreatedAt  string `json:"created_at"`
}

func toCustomerOrder(o model.Order) customerOrder {
	return customerOrder{
		ID:         o.ID,
		Status:     o.Status,
		TotalCents: o.TotalCents,
		CreatedAt:  o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// List handles GET /api/orders: the authenticated user's own orders.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	orders, err := store.ListOrdersForUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	visible := make([]customerOrder, 0, len(orders))
	for _, o := range orders {
		visible = append(visible, toCustomerOrder(o))
	}
	jsonResponse(w, http.StatusOK, visible)
}

// Get handles GET /api/orders/{id}: one order with its line items.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	if order == nil || order.UserID != claims.UserID {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}

	items, err := store.ListOrderItems(r.Context(), h.DB, order.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get order items")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"order": toCustomerOrder(*order),
		"items": items,
	})
}

// ListUnfulfilled handles GET /api/admin/orders/unfulfilled: the operator
// diagnostics view of orders stuck with a fulfillment error.
func (h *OrdersHandler) ListUnfulfilled(w http.ResponseWriter, r *http.Request) {
	orders, err := store.ListUnfulfilledOrders(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// RetryFulfillment handles POST /api/admin/orders/{id}/fulfill: the explicit
// operator retry for stuck orders.
func (h *OrdersHandler) RetryFulfillment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.Reconciler.RetryFulfillment(r.Context(), id)
	if err != nil {
		if errors.Is(err, settlement.ErrAlreadyProcessing) {
			jsonError(w, http.StatusConflict, err.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, order)
}
