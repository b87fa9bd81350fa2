package store

import (
	"context"
	"testing"

	"github.com/erazemk/nalepka/internal/db"
)

func TestCart(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database, "alice")
	pack, _ := CreateProduct(ctx, database, "Sticker pack (10)", "", 500, 10)

	if err := SetCartItem(ctx, database, user.ID, pack.ID, 1); err != nil {
		t.Fatalf("SetCartItem: %v", err)
	}

	// Setting again replaces the quantity, it does not add a row.
	SetCartItem(ctx, database, user.ID, pack.ID, 3)

	cart, err := GetCart(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart) != 1 {
		t.Fatalf("expected 1 cart line, got %d", len(cart))
	}
	if cart[0].Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", cart[0].Quantity)
	}
	if cart[0].ProductName != "Sticker pack (10)" || cart[0].PriceCents != 500 {
		t.Errorf("expected joined product fields, got %+v", cart[0])
	}
}

func TestSetCartItemZeroRemoves(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database, "alice")
	pack, _ := CreateProduct(ctx, database, "Sticker pack (10)", "", 500, 10)

	SetCartItem(ctx, database, user.ID, pack.ID, 2)
	SetCartItem(ctx, database, user.ID, pack.ID, 0)

	cart, _ := GetCart(ctx, database, user.ID)
	if len(cart) != 0 {
		t.Errorf("expected empty cart after zero quantity, got %d lines", len(cart))
	}
}

func TestClearCart(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")
	pack, _ := CreateProduct(ctx, database, "Sticker pack (10)", "", 500, 10)

	SetCartItem(ctx, database, alice.ID, pack.ID, 2)
	SetCartItem(ctx, database, bob.ID, pack.ID, 1)

	if err := ClearCart(ctx, database, alice.ID); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}

	aliceCart, _ := GetCart(ctx, database, alice.ID)
	if len(aliceCart) != 0 {
		t.Errorf("expected alice's cart cleared, got %d lines", len(aliceCart))
	}
	bobCart, _ := GetCart(ctx, database, bob.ID)
	if len(bobCart) != 1 {
		t.Errorf("expected bob's cart untouched, got %d lines", len(bobCart))
	}
}

func TestListProductsActiveOnly(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	active, _ := CreateProduct(ctx, database, "Sticker pack (10)", "", 500, 10)
	retired, _ := CreateProduct(ctx, database, "Old pack", "", 300, 5)
	UpdateProduct(ctx, database, retired.ID, "Old pack", "", 300, 5, false)

	all, _ := ListProducts(ctx, database, false)
	if len(all) != 2 {
		t.Errorf("expected 2 products, got %d", len(all))
	}

	visible, _ := ListProducts(ctx, database, true)
	if len(visible) != 1 || visible[0].ID != active.ID {
		t.Errorf("expected only the active product, got %+v", visible)
	}
}
