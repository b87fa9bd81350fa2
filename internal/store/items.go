package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/nalepka/internal/model"
)

// CreateItem creates a new item owned by a user.
func CreateItem(ctx context.Context, db *sql.DB, userID int64, name, description string) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (user_id, name, description) VALUES (?, ?, ?)`,
		userID, name, description,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, including its claimed code key if any.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	var description, imageMime, key sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT i.id, i.user_id, i.name, i.description, i.image_mime,
		        i.created_at, i.updated_at, i.deleted_at, q.canonical_key
		 FROM items i
		 LEFT JOIN qr_codes q ON q.claimed_item_id = i.id
		 WHERE i.id = ?`, id,
	).Scan(&item.ID, &item.UserID, &item.Name, &description, &imageMime,
		&item.CreatedAt, &item.UpdatedAt, &item.DeletedAt, &key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Description = description.String
	item.ImageMime = imageMime.String
	item.CanonicalKey = key.String
	return item, nil
}

// GetItemSummary returns the minimal item view used in claim resolution.
func GetItemSummary(ctx context.Context, db *sql.DB, id int64) (*model.ItemSummary, error) {
	s := &model.ItemSummary{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name FROM items WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item summary: %w", err)
	}
	return s, nil
}

// ListItemsForUser returns a user's non-deleted items.
func ListItemsForUser(ctx context.Context, db *sql.DB, userID int64) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT i.id, i.user_id, i.name, i.description, i.image_mime,
		        i.created_at, i.updated_at, i.deleted_at, q.canonical_key
		 FROM items i
		 LEFT JOIN qr_codes q ON q.claimed_item_id = i.id
		 WHERE i.user_id = ? AND i.deleted_at IS NULL
		 ORDER BY i.name`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var description, imageMime, key sql.NullString
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &description, &imageMime,
			&item.CreatedAt, &item.UpdatedAt, &item.DeletedAt, &key); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Description = description.String
		item.ImageMime = imageMime.String
		item.CanonicalKey = key.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's metadata. Only the owner's rows match.
func UpdateItem(ctx context.Context, db *sql.DB, id, userID int64, name, description string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		name, description, id, userID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item and releases any claim it holds, so the
// code returns to the unclaimed pool.
func DeleteItem(ctx context.Context, db *sql.DB, id, userID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE qr_codes SET claimed_item_id = NULL, claimed_user_id = NULL
		 WHERE claimed_item_id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("releasing item claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item delete: %w", err)
	}
	return nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}
