package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/erazemk/nalepka/internal/claim"
	"github.com/erazemk/nalepka/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("error encoding response: %v", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// claimError maps the claim error taxonomy to HTTP responses. Unknown errors
// pass their message through verbatim; swallowing them hides diagnostics.
func claimError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, claim.ErrInvalidCode):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, claim.ErrUnauthenticated):
		jsonError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrCodeNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrOwnershipMismatch):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrAlreadyClaimed), errors.Is(err, store.ErrItemAlreadyLinked):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		jsonError(w, http.StatusInternalServerError, err.Error())
	}
}
