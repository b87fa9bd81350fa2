// Package claim binds QR codes to items: read-only resolution, the claim and
// unclaim mutations, and the scan-session flow that drives them.
//
// Exclusivity of claims is not enforced here. The store's conditional write
// is the single authority on who wins a claim race; this package only
// classifies and surfaces the outcome.
package claim

import (
	"context"
	"database/sql"

	"github.com/erazemk/nalepka/internal/model"
	"github.com/erazemk/nalepka/internal/store"
)

// Status is the outcome of resolving a canonical key for a user.
type Status string

const (
	// StatusUnclaimed means the code is free to claim.
	StatusUnclaimed Status = "unclaimed"
	// StatusClaimedBySelf means the acting user already owns the claim.
	StatusClaimedBySelf Status = "claimed_by_self"
	// StatusClaimedByOther means someone else holds the claim. No item
	// detail accompanies this status.
	StatusClaimedByOther Status = "claimed_by_other"
)

// Resolution is the result of a read-only claim lookup. Item is populated
// only for StatusClaimedBySelf; another user's item is never exposed.
type Resolution struct {
	Status Status             `json:"status"`
	Item   *model.ItemSummary `json:"item,omitempty"`
}

// Service resolves and mutates claims against the database.
type Service struct {
	DB *sql.DB

	// AllowUnregistered lets unknown canonical keys be claimed on first
	// scan, registering them on the fly. When false, unknown keys resolve
	// to store.ErrCodeNotFound.
	AllowUnregistered bool
}

// Resolve looks up the claim state of a canonical key. Read-only.
func (s *Service) Resolve(ctx context.Context, key string, userID int64) (*Resolution, error) {
	if key == "" {
		return nil, ErrInvalidCode
	}
	if userID <= 0 {
		return nil, ErrUnauthenticated
	}

	code, err := store.GetQRCode(ctx, s.DB, key)
	if err != nil {
		return nil, err
	}
	if code == nil {
		if !s.AllowUnregistered {
			return nil, store.ErrCodeNotFound
		}
		// Unknown codes are claimable on first scan.
		return &Resolution{Status: StatusUnclaimed}, nil
	}

	if !code.Claimed() {
		return &Resolution{Status: StatusUnclaimed}, nil
	}

	if *code.ClaimedUserID != userID {
		return &Resolution{Status: StatusClaimedByOther}, nil
	}

	item, err := store.GetItemSummary(ctx, s.DB, *code.ClaimedItemID)
	if err != nil {
		return nil, err
	}
	return &Resolution{Status: StatusClaimedBySelf, Item: item}, nil
}

// Claim binds a canonical key to an item owned by the user. Exactly one of
// two concurrent claims on the same key succeeds; the loser gets
// store.ErrAlreadyClaimed and should re-resolve, not retry.
func (s *Service) Claim(ctx context.Context, key string, itemID, userID int64) error {
	if key == "" {
		return ErrInvalidCode
	}
	if userID <= 0 {
		return ErrUnauthenticated
	}
	return store.ClaimQRCode(ctx, s.DB, key, itemID, userID, s.AllowUnregistered)
}

// Unclaim releases the code claimed onto an item, returning it to the
// unclaimed pool where anyone may reclaim it.
func (s *Service) Unclaim(ctx context.Context, itemID, userID int64) error {
	if userID <= 0 {
		return ErrUnauthenticated
	}
	return store.ReleaseItemClaim(ctx, s.DB, itemID, userID)
}
