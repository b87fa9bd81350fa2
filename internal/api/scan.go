package api

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/nalepka/internal/claim"
	"github.com/erazemk/nalepka/internal/model"
	"github.com/erazemk/nalepka/internal/qr"
	"github.com/erazemk/nalepka/internal/store"
)

// ScanHandler handles sticker scanning, claiming, and unclaiming.
type ScanHandler struct {
	DB     *sql.DB
	Claims *claim.Service
}

type scanRequest struct {
	Code string `json:"code"`
}

type linkRequest struct {
	Code string `json:"code"`
	// Exactly one of ItemID and NewItem picks the flow branch.
	ItemID  int64 `json:"item_id,omitempty"`
	NewItem *struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"new_item,omitempty"`
}

type linkResponse struct {
	State  claim.State       `json:"state"`
	ItemID int64             `json:"item_id,omitempty"`
	Result *claim.Resolution `json:"result,omitempty"`
}

// storeItemCreator adapts the store to the flow's item-creation collaborator.
type storeItemCreator struct {
	db *sql.DB
}

func (c storeItemCreator) CreateItem(ctx context.Context, userID int64, name, description string) (*model.Item, error) {
	return store.CreateItem(ctx, c.db, userID, name, description)
}

// Resolve handles POST /api/scan: normalize the scanned input and report the
// code's claim state without mutating anything.
func (h *ScanHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := qr.Normalize(req.Code)
	result, err := h.Claims.Resolve(r.Context(), key, claims.UserID)
	if err != nil {
		claimError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, result)
}

// Link handles POST /api/scan/link: one full pass of the association flow.
// The scanned code is resolved; if it is free, it is claimed onto the given
// existing item or a freshly created one.
func (h *ScanHandler) Link(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req linkRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID != 0 && req.NewItem != nil {
		jsonError(w, http.StatusBadRequest, "item_id and new_item are mutually exclusive")
		return
	}

	session := claim.NewSession(h.Claims, storeItemCreator{h.DB}, claims.UserID)

	state, err := session.Scan(r.Context(), req.Code)
	if err != nil {
		claimError(w, err)
		return
	}

	if state == claim.StateUnlinked {
		switch {
		case req.NewItem != nil:
			if req.NewItem.Name == "" {
				jsonError(w, http.StatusBadRequest, "name required")
				return
			}
			state, err = session.CreateItem(r.Context(), req.NewItem.Name, req.NewItem.Description)
		case req.ItemID != 0:
			state, err = session.SelectItem(r.Context(), req.ItemID)
		default:
			// No branch chosen: report the unlinked state so the client
			// can prompt. Abandoning here costs nothing.
			jsonResponse(w, http.StatusOK, linkResponse{State: state, Result: session.Resolution()})
			return
		}
		if err != nil {
			claimError(w, err)
			return
		}
	}

	jsonResponse(w, http.StatusOK, linkResponse{
		State:  state,
		ItemID: session.ItemID(),
		Result: session.Resolution(),
	})
}

// Claim handles POST /api/items/{id}/claim: bind a scanned code to an
// existing item directly.
func (h *ScanHandler) Claim(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := qr.Normalize(req.Code)
	if err := h.Claims.Claim(r.Context(), key, id, claims.UserID); err != nil {
		claimError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"canonical_key": key, "item_id": id})
}

// Unclaim handles DELETE /api/items/{id}/claim: release the item's code
// back to the unclaimed pool.
func (h *ScanHandler) Unclaim(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.Claims.Unclaim(r.Context(), id, claims.UserID); err != nil {
		claimError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "code released"})
}
