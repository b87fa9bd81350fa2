package model

import "time"

// Item represents a physical object tracked by a single owner.
type Item struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ImageMime   string     `json:"image_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	// CanonicalKey is the key of the QR code currently claimed onto this
	// item, if any (joined, not always populated).
	CanonicalKey string `json:"canonical_key,omitempty"`
}

// ItemSummary is the minimal item view returned by claim resolution.
// It deliberately carries nothing beyond id and name so that resolution
// results can be shown without leaking item details.
type ItemSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
