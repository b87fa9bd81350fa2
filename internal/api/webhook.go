package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/erazemk/nalepka/internal/settlement"
)

// WebhookHandler receives payment-completed events from the payment
// processor. The signature check is the trust boundary; the reconciler
// behind it assumes a verified event.
type WebhookHandler struct {
	Reconciler *settlement.Reconciler

	// Secret is the shared webhook signing secret. Empty disables
	// verification (local development only).
	Secret string
}

// maxEventSize bounds a webhook body.
const maxEventSize = 1 << 20

// PaymentCompleted handles POST /api/webhooks/payment.
func (h *WebhookHandler) PaymentCompleted(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventSize))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	r.Body.Close()

	if h.Secret != "" && !h.verify(body, r.Header.Get("X-Webhook-Signature")) {
		slog.Warn("webhook signature rejected", "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var ev settlement.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	order, err := h.Reconciler.Settle(r.Context(), ev)
	if err != nil {
		if errors.Is(err, settlement.ErrMalformedEvent) {
			// A malformed event will never become valid; tell the
			// processor not to redeliver it.
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Transient failure: a non-2xx response makes the processor
		// retry, and the session id keeps the retry idempotent.
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"order_id": order.ID})
}

// verify checks the hex HMAC-SHA256 signature over the raw body.
func (h *WebhookHandler) verify(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.Secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
