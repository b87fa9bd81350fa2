package model

import "time"

// QRCode represents a physical sticker's unique identity. A code is either
// fully claimed (both claim fields set) or fully unclaimed (both null);
// the schema CHECK rejects partial claims.
type QRCode struct {
	ID            int64     `json:"id"`
	CanonicalKey  string    `json:"canonical_key"`
	ClaimedItemID *int64    `json:"claimed_item_id,omitempty"`
	ClaimedUserID *int64    `json:"claimed_user_id,omitempty"`
	BatchID       string    `json:"batch_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Claimed reports whether the code is bound to an item.
func (c *QRCode) Claimed() bool {
	return c.ClaimedItemID != nil
}
