package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/nalepka/internal/db"
)

func TestCreateQRCodeBatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	codes, err := CreateQRCodeBatch(ctx, database, "batch-1", []string{"AAAA2222", "BBBB3333"})
	if err != nil {
		t.Fatalf("CreateQRCodeBatch: %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("expected 2 codes, got %d", len(codes))
	}

	// Duplicate keys fail the whole batch.
	_, err = CreateQRCodeBatch(ctx, database, "batch-2", []string{"CCCC4444", "AAAA2222"})
	if err == nil {
		t.Fatal("expected duplicate key to fail the batch")
	}
	listed, _ := ListQRCodes(ctx, database, "batch-2")
	if len(listed) != 0 {
		t.Errorf("expected no codes from failed batch, got %d", len(listed))
	}
}

func TestClaimQRCode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database, "alice")
	item := seedItem(t, database, user.ID, "Bike")
	CreateQRCodeBatch(ctx, database, "b", []string{"KEY11111"})

	if err := ClaimQRCode(ctx, database, "KEY11111", item.ID, user.ID, false); err != nil {
		t.Fatalf("ClaimQRCode: %v", err)
	}

	code, err := GetQRCode(ctx, database, "KEY11111")
	if err != nil {
		t.Fatalf("GetQRCode: %v", err)
	}
	if !code.Claimed() || *code.ClaimedItemID != item.ID || *code.ClaimedUserID != user.ID {
		t.Errorf("expected code claimed by item %d / user %d, got %+v", item.ID, user.ID, code)
	}
}

func TestClaimQRCodeExclusive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")
	aliceItem := seedItem(t, database, alice.ID, "Bike")
	bobItem := seedItem(t, database, bob.ID, "Kettle")
	CreateQRCodeBatch(ctx, database, "b", []string{"KEY11111"})

	if err := ClaimQRCode(ctx, database, "KEY11111", aliceItem.ID, alice.ID, false); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	// The second claim on the same key loses, whoever makes it.
	err := ClaimQRCode(ctx, database, "KEY11111", bobItem.ID, bob.ID, false)
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("expected ErrAlreadyClaimed, got %v", err)
	}

	code, _ := GetQRCode(ctx, database, "KEY11111")
	if *code.ClaimedItemID != aliceItem.ID {
		t.Errorf("losing claim must not overwrite the winner, claimed_item_id = %d", *code.ClaimedItemID)
	}
}

func TestClaimQRCodeIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database, "alice")
	item := seedItem(t, database, user.ID, "Bike")
	CreateQRCodeBatch(ctx, database, "b", []string{"KEY11111"})

	ClaimQRCode(ctx, database, "KEY11111", item.ID, user.ID, false)

	// A retried claim of the same key onto the same item is a no-op.
	if err := ClaimQRCode(ctx, database, "KEY11111", item.ID, user.ID, false); err != nil {
		t.Errorf("retried claim should succeed, got %v", err)
	}
}

func TestClaimQRCodeOneClaimPerItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database, "alice")
	item := seedItem(t, database, user.ID, "Bike")
	CreateQRCodeBatch(ctx, database, "b", []string{"KEY11111", "KEY22222"})

	ClaimQRCode(ctx, database, "KEY11111", item.ID, user.ID, false)

	err := ClaimQRCode(ctx, database, "KEY22222", item.ID, user.ID, false)
	if !errors.Is(err, ErrItemAlreadyLinked) {
		t.Errorf("expected ErrItemAlreadyLinked, got %v", err)
	}
}

func TestClaimQRCodeOwnership(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")
	item := seedItem(t, database, alice.ID, "Bike")
	CreateQRCodeBatch(ctx, database, "b", []string{"KEY11111"})

	err := ClaimQRCode(ctx, database, "KEY11111", item.ID, bob.ID, false)
	if !errors.Is(err, ErrOwnershipMismatch) {
		t.Errorf("expected ErrOwnershipMismatch claiming onto another user's item, got %v", err)
	}

	err = ClaimQRCode(ctx, database, "KEY11111", 9999, alice.ID, false)
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestClaimQRCodeUnregistered(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database, "alice")
	item := seedItem(t, database, user.ID, "Bike")

	// Registration off: unknown keys are rejected.
	err := ClaimQRCode(ctx, database, "UNKNOWN1", item.ID, user.ID, false)
	if !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("expected ErrCodeNotFound, got %v", err)
	}

	// Registration on: the key is registered and claimed in one step.
	if err := ClaimQRCode(ctx, database, "UNKNOWN1", item.ID, user.ID, true); err != nil {
		t.Fatalf("claim with registration: %v", err)
	}
	code, _ := GetQRCode(ctx, database, "UNKNOWN1")
	if code == nil || !code.Claimed() {
		t.Error("expected unknown key to be registered and claimed")
	}
}

func TestReleaseItemClaim(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")
	aliceItem := seedItem(t, database, alice.ID, "Bike")
	bobItem := seedItem(t, database, bob.ID, "Kettle")
	CreateQRCodeBatch(ctx, database, "b", []string{"KEY11111"})

	ClaimQRCode(ctx, database, "KEY11111", aliceItem.ID, alice.ID, false)

	// Only the holder may release.
	if err := ReleaseItemClaim(ctx, database, aliceItem.ID, bob.ID); !errors.Is(err, ErrOwnershipMismatch) {
		t.Errorf("expected ErrOwnershipMismatch, got %v", err)
	}

	if err := ReleaseItemClaim(ctx, database, aliceItem.ID, alice.ID); err != nil {
		t.Fatalf("ReleaseItemClaim: %v", err)
	}

	// The released code is back in the pool; anyone may reclaim it.
	if err := ClaimQRCode(ctx, database, "KEY11111", bobItem.ID, bob.ID, false); err != nil {
		t.Errorf("reclaim after release: %v", err)
	}
}

func TestGetItemClaim(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database, "alice")
	item := seedItem(t, database, user.ID, "Bike")
	CreateQRCodeBatch(ctx, database, "b", []string{"KEY11111"})

	code, _ := GetItemClaim(ctx, database, item.ID)
	if code != nil {
		t.Errorf("expected no claim, got %+v", code)
	}

	ClaimQRCode(ctx, database, "KEY11111", item.ID, user.ID, false)

	code, err := GetItemClaim(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItemClaim: %v", err)
	}
	if code == nil || code.CanonicalKey != "KEY11111" {
		t.Errorf("expected claim on KEY11111, got %+v", code)
	}
}

func TestQRCodeImageCache(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateQRCodeBatch(ctx, database, "b", []string{"KEY11111"})

	image, err := GetQRCodeImage(ctx, database, "KEY11111")
	if err != nil {
		t.Fatalf("GetQRCodeImage: %v", err)
	}
	if image != nil {
		t.Errorf("expected no cached image, got %d bytes", len(image))
	}

	SetQRCodeImage(ctx, database, "KEY11111", []byte("fake png"))

	image, _ = GetQRCodeImage(ctx, database, "KEY11111")
	if string(image) != "fake png" {
		t.Errorf("expected cached image, got %q", string(image))
	}

	if _, err := GetQRCodeImage(ctx, database, "MISSING1"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("expected ErrCodeNotFound for unknown key, got %v", err)
	}
}

func TestDeleteQRCode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateQRCodeBatch(ctx, database, "b", []string{"KEY11111"})

	if err := DeleteQRCode(ctx, database, "KEY11111"); err != nil {
		t.Fatalf("DeleteQRCode: %v", err)
	}
	if err := DeleteQRCode(ctx, database, "KEY11111"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("expected ErrCodeNotFound on double delete, got %v", err)
	}
}

func TestListQRCodesByBatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateQRCodeBatch(ctx, database, "batch-1", []string{"AAAA2222"})
	CreateQRCodeBatch(ctx, database, "batch-2", []string{"BBBB3333", "CCCC4444"})

	all, _ := ListQRCodes(ctx, database, "")
	if len(all) != 3 {
		t.Errorf("expected 3 codes, got %d", len(all))
	}

	second, _ := ListQRCodes(ctx, database, "batch-2")
	if len(second) != 2 {
		t.Errorf("expected 2 codes in batch-2, got %d", len(second))
	}
}
