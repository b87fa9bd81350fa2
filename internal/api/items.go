package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/nalepka/internal/imaging"
	"github.com/erazemk/nalepka/internal/model"
	"github.com/erazemk/nalepka/internal/store"
)

// ItemsHandler handles item CRUD endpoints. Every operation is scoped to the
// authenticated user's own items.
type ItemsHandler struct {
	DB *sql.DB
}

type createItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// itemID parses the path id and verifies ownership, writing the error
// response itself when it returns nil.
func (h *ItemsHandler) itemID(w http.ResponseWriter, r *http.Request) *model.Item {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return nil
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return nil
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil
	}

	claims := GetClaims(r.Context())
	if claims == nil || item.UserID != claims.UserID {
		// Another user's item is indistinguishable from a missing one.
		jsonError(w, http.StatusNotFound, "item not found")
		return nil
	}
	return item
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	items, err := store.ListItemsForUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID, req.Name, req.Description)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item := h.itemID(w, r)
	if item == nil {
		return
	}

	tasks, err := store.ListTasksForItem(r.Context(), h.DB, item.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item tasks")
		return
	}
	if tasks == nil {
		tasks = []model.MaintenanceTask{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item":  item,
		"tasks": tasks,
	})
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	item := h.itemID(w, r)
	if item == nil {
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	claims := GetClaims(r.Context())
	if err := store.UpdateItem(r.Context(), h.DB, item.ID, claims.UserID, req.Name, req.Description); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	updated, _ := store.GetItem(r.Context(), h.DB, item.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}. Deleting an item releases its
// claimed code back to the unclaimed pool.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	item := h.itemID(w, r)
	if item == nil {
		return
	}

	claims := GetClaims(r.Context())
	if err := store.DeleteItem(r.Context(), h.DB, item.ID, claims.UserID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	item := h.itemID(w, r)
	if item == nil {
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := imaging.ProcessPhoto(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, item.ID, result.Data, result.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	item := h.itemID(w, r)
	if item == nil {
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, item.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
