// Package fulfillment talks to the print-on-demand service that produces
// and ships sticker packs.
package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/erazemk/nalepka/internal/model"
)

// Request is one order submitted for printing. The idempotency key is
// generated once per order, so resubmitting the same order cannot produce a
// second shipment even if the previous call's outcome was lost.
type Request struct {
	OrderID        int64                  `json:"external_id"`
	IdempotencyKey string                 `json:"idempotency_key"`
	Email          string                 `json:"email"`
	Items          []model.OrderItem      `json:"items"`
	Address        *model.ShippingAddress `json:"address,omitempty"`
}

// Client submits orders to the fulfillment service. Implementations return
// the service's order reference on success.
type Client interface {
	Fulfill(ctx context.Context, req Request) (externalOrderID string, err error)
}

// HTTPClient is the production Client, speaking JSON over HTTPS.
type HTTPClient struct {
	BaseURL string
	APIKey  string

	// HTTP defaults to a client with a 30s timeout.
	HTTP *http.Client
}

type fulfillResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// Fulfill submits the order. Any non-2xx response is an error carrying the
// service's message verbatim.
func (c *HTTPClient) Fulfill(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding fulfillment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building fulfillment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling fulfillment service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading fulfillment response: %w", err)
	}

	var parsed fulfillResponse
	if err := json.Unmarshal(data, &parsed); err != nil && resp.StatusCode < 300 {
		return "", fmt.Errorf("decoding fulfillment response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := parsed.Error
		if msg == "" {
			msg = string(data)
		}
		return "", fmt.Errorf("fulfillment service returned %d: %s", resp.StatusCode, msg)
	}

	if parsed.ID == "" {
		return "", fmt.Errorf("fulfillment service returned no order id")
	}
	return parsed.ID, nil
}
