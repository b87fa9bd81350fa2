package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/nalepka/internal/model"
	"github.com/erazemk/nalepka/internal/store"
)

// ShopHandler handles the sticker-pack catalog and per-user carts.
type ShopHandler struct {
	DB *sql.DB
}

type productRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	PriceCents   int64  `json:"price_cents"`
	StickerCount int    `json:"sticker_count"`
	Active       *bool  `json:"active"`
}

type cartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// ListProducts handles GET /api/products. Customers see only active packs.
func (h *ShopHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	activeOnly := claims == nil || !model.RoleAtLeast(claims.Role, model.RoleAdmin)

	products, err := store.ListProducts(r.Context(), h.DB, activeOnly)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

// CreateProduct handles POST /api/products (admin).
func (h *ShopHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.PriceCents < 0 || req.StickerCount <= 0 {
		jsonError(w, http.StatusBadRequest, "name, price_cents and sticker_count required")
		return
	}

	product, err := store.CreateProduct(r.Context(), h.DB, req.Name, req.Description, req.PriceCents, req.StickerCount)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	jsonResponse(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/{id} (admin).
func (h *ShopHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	active := product.Active
	if req.Active != nil {
		active = *req.Active
	}

	if err := store.UpdateProduct(r.Context(), h.DB, id, req.Name, req.Description, req.PriceCents, req.StickerCount, active); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	updated, _ := store.GetProduct(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, updated)
}

// GetCart handles GET /api/cart.
func (h *ShopHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	items, err := store.GetCart(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get cart")
		return
	}
	if items == nil {
		items = []model.CartItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// SetCartItem handles PUT /api/cart: set one product's quantity; zero
// removes the line.
func (h *ShopHandler) SetCartItem(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Quantity > 0 {
		product, err := store.GetProduct(r.Context(), h.DB, req.ProductID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to get product")
			return
		}
		if product == nil || !product.Active {
			jsonError(w, http.StatusNotFound, "product not found")
			return
		}
	}

	if err := store.SetCartItem(r.Context(), h.DB, claims.UserID, req.ProductID, req.Quantity); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	items, _ := store.GetCart(r.Context(), h.DB, claims.UserID)
	if items == nil {
		items = []model.CartItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// ClearCart handles DELETE /api/cart.
func (h *ShopHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if err := store.ClearCart(r.Context(), h.DB, claims.UserID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
