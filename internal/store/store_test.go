package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erazemk/nalepka/internal/model"
)

// seedUser creates a user for tests that need an owner row.
func seedUser(t *testing.T, db *sql.DB, username string) *model.User {
	t.Helper()
	user, err := CreateUser(context.Background(), db, username, username+"@example.com", "hash", "user")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return user
}

// seedItem creates an item owned by the given user.
func seedItem(t *testing.T, db *sql.DB, userID int64, name string) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), db, userID, name, "")
	if err != nil {
		t.Fatalf("CreateItem(%s): %v", name, err)
	}
	return item
}
