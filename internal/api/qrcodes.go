package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/erazemk/nalepka/internal/imaging"
	"github.com/erazemk/nalepka/internal/qr"
	"github.com/erazemk/nalepka/internal/store"
)

// QRCodesHandler handles administrative sticker-code endpoints: batch
// generation, listing, sticker images, and purging.
type QRCodesHandler struct {
	DB *sql.DB

	// PublicBaseURL is the address encoded into stickers, e.g.
	// "https://nalepka.example".
	PublicBaseURL string
}

type batchRequest struct {
	Count int `json:"count"`
}

// maxBatchSize bounds one generation request.
const maxBatchSize = 1000

// CreateBatch handles POST /api/qrcodes/batch: register a batch of fresh
// unclaimed codes.
func (h *QRCodesHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Count <= 0 || req.Count > maxBatchSize {
		jsonError(w, http.StatusBadRequest, "count must be between 1 and 1000")
		return
	}

	keys := make([]string, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		key, err := qr.GenerateKey()
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to generate keys")
			return
		}
		keys = append(keys, key)
	}

	batchID := uuid.NewString()
	codes, err := store.CreateQRCodeBatch(r.Context(), h.DB, batchID, keys)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to register batch")
		return
	}

	slog.Info("qr code batch generated", "batch", batchID, "count", len(codes))
	jsonResponse(w, http.StatusCreated, map[string]any{
		"batch_id": batchID,
		"codes":    codes,
	})
}

// List handles GET /api/qrcodes, optionally filtered by batch.
func (h *QRCodesHandler) List(w http.ResponseWriter, r *http.Request) {
	codes, err := store.ListQRCodes(r.Context(), h.DB, r.URL.Query().Get("batch"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list qr codes")
		return
	}
	jsonResponse(w, http.StatusOK, codes)
}

// GetImage handles GET /api/qrcodes/{key}/image. The sticker is rendered on
// first request and cached in the database; later requests serve the blob.
func (h *QRCodesHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	key := qr.Normalize(r.PathValue("key"))
	if key == "" {
		jsonError(w, http.StatusBadRequest, "invalid code")
		return
	}

	image, err := store.GetQRCodeImage(r.Context(), h.DB, key)
	if errors.Is(err, store.ErrCodeNotFound) {
		jsonError(w, http.StatusNotFound, "qr code not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get sticker image")
		return
	}

	if image == nil {
		image, err = imaging.RenderSticker(h.PublicBaseURL + "/qr/" + key)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to render sticker")
			return
		}
		if err := store.SetQRCodeImage(r.Context(), h.DB, key, image); err != nil {
			// Serve the render anyway; the cache write can be retried.
			slog.Warn("sticker image not cached", "key", key, "error", err)
		}
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(image)
}

// Delete handles DELETE /api/qrcodes/{key}: the explicit admin purge. Any
// claim on the code disappears with it.
func (h *QRCodesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := qr.Normalize(r.PathValue("key"))
	if key == "" {
		jsonError(w, http.StatusBadRequest, "invalid code")
		return
	}

	if err := store.DeleteQRCode(r.Context(), h.DB, key); err != nil {
		if errors.Is(err, store.ErrCodeNotFound) {
			jsonError(w, http.StatusNotFound, "qr code not found")
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to delete qr code")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "qr code purged"})
}
