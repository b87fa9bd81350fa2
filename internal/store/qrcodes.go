package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/nalepka/internal/model"
)

// CreateQRCodeBatch registers a batch of fresh, unclaimed codes. Keys must
// already be canonical. Duplicate keys fail the whole batch.
func CreateQRCodeBatch(ctx context.Context, db *sql.DB, batchID string, keys []string) ([]model.QRCode, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var codes []model.QRCode
	for _, key := range keys {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO qr_codes (canonical_key, batch_id) VALUES (?, ?)`,
			key, batchID,
		)
		if err != nil {
			return nil, fmt.Errorf("registering code %q: %w", key, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting code id: %w", err)
		}
		codes = append(codes, model.QRCode{ID: id, CanonicalKey: key, BatchID: batchID})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch: %w", err)
	}
	return codes, nil
}

// GetQRCode returns a code by canonical key.
func GetQRCode(ctx context.Context, db *sql.DB, key string) (*model.QRCode, error) {
	c := &model.QRCode{}
	var itemID, userID sql.NullInt64
	var batchID sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, canonical_key, claimed_item_id, claimed_user_id, batch_id, created_at
		 FROM qr_codes WHERE canonical_key = ?`, key,
	).Scan(&c.ID, &c.CanonicalKey, &itemID, &userID, &batchID, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting qr code: %w", err)
	}
	if itemID.Valid {
		c.ClaimedItemID = &itemID.Int64
	}
	if userID.Valid {
		c.ClaimedUserID = &userID.Int64
	}
	c.BatchID = batchID.String
	return c, nil
}

// GetItemClaim returns the code currently claimed onto an item, if any.
func GetItemClaim(ctx context.Context, db *sql.DB, itemID int64) (*model.QRCode, error) {
	var key string
	err := db.QueryRowContext(ctx,
		`SELECT canonical_key FROM qr_codes WHERE claimed_item_id = ?`, itemID,
	).Scan(&key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item claim: %w", err)
	}
	return GetQRCode(ctx, db, key)
}

// ClaimQRCode binds a code to an item. Exclusivity lives here: the claim is a
// single conditional write on canonical_key guarded by claimed_item_id IS
// NULL, so of two concurrent claims exactly one sees a row change and the
// other gets ErrAlreadyClaimed. Re-claiming a key already bound to the same
// item by the same user succeeds (idempotent under retry).
//
// With allowUnregistered set, an unknown key is registered and claimed in the
// same statement; otherwise it yields ErrCodeNotFound.
func ClaimQRCode(ctx context.Context, db *sql.DB, key string, itemID, userID int64, allowUnregistered bool) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// The item must exist and belong to the acting user.
	var ownerID int64
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM items WHERE id = ? AND deleted_at IS NULL`, itemID,
	).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("checking item: %w", err)
	}
	if ownerID != userID {
		return ErrOwnershipMismatch
	}

	// One active claim per item.
	var existingKey string
	err = tx.QueryRowContext(ctx,
		`SELECT canonical_key FROM qr_codes WHERE claimed_item_id = ?`, itemID,
	).Scan(&existingKey)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("checking existing claim: %w", err)
	}
	if err == nil {
		if existingKey == key {
			// Retried claim; nothing to do.
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("committing claim: %w", err)
			}
			return nil
		}
		return ErrItemAlreadyLinked
	}

	var result sql.Result
	if allowUnregistered {
		result, err = tx.ExecContext(ctx,
			`INSERT INTO qr_codes (canonical_key, claimed_item_id, claimed_user_id)
			 VALUES (?, ?, ?)
			 ON CONFLICT (canonical_key) DO UPDATE
			     SET claimed_item_id = excluded.claimed_item_id,
			         claimed_user_id = excluded.claimed_user_id
			     WHERE qr_codes.claimed_item_id IS NULL`,
			key, itemID, userID,
		)
	} else {
		result, err = tx.ExecContext(ctx,
			`UPDATE qr_codes SET claimed_item_id = ?, claimed_user_id = ?
			 WHERE canonical_key = ? AND claimed_item_id IS NULL`,
			itemID, userID, key,
		)
	}
	if err != nil {
		return fmt.Errorf("claiming qr code: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking claim result: %w", err)
	}
	if affected == 0 {
		// The conditional write matched nothing: either the code is held
		// by another item, or it doesn't exist and registration is off.
		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM qr_codes WHERE canonical_key = ?`, key,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("classifying claim failure: %w", err)
		}
		if exists == 0 {
			return ErrCodeNotFound
		}
		return ErrAlreadyClaimed
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing claim: %w", err)
	}
	return nil
}

// ReleaseItemClaim unclaims whatever code the item holds, returning it to the
// unclaimed pool. Only the claim holder may release it.
func ReleaseItemClaim(ctx context.Context, db *sql.DB, itemID, userID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var holderID int64
	err = tx.QueryRowContext(ctx,
		`SELECT claimed_user_id FROM qr_codes WHERE claimed_item_id = ?`, itemID,
	).Scan(&holderID)
	if err == sql.ErrNoRows {
		return ErrCodeNotFound
	}
	if err != nil {
		return fmt.Errorf("checking claim holder: %w", err)
	}
	if holderID != userID {
		return ErrOwnershipMismatch
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE qr_codes SET claimed_item_id = NULL, claimed_user_id = NULL
		 WHERE claimed_item_id = ? AND claimed_user_id = ?`,
		itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("releasing claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing release: %w", err)
	}
	return nil
}

// SetQRCodeImage stores the rendered sticker image for a code.
func SetQRCodeImage(ctx context.Context, db *sql.DB, key string, image []byte) error {
	_, err := db.ExecContext(ctx,
		`UPDATE qr_codes SET image = ? WHERE canonical_key = ?`,
		image, key,
	)
	if err != nil {
		return fmt.Errorf("setting qr code image: %w", err)
	}
	return nil
}

// GetQRCodeImage returns the cached sticker image for a code, or nil if it
// hasn't been rendered yet.
func GetQRCodeImage(ctx context.Context, db *sql.DB, key string) ([]byte, error) {
	var image []byte
	err := db.QueryRowContext(ctx,
		`SELECT image FROM qr_codes WHERE canonical_key = ?`, key,
	).Scan(&image)
	if err == sql.ErrNoRows {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting qr code image: %w", err)
	}
	return image, nil
}

// ListQRCodes returns codes, optionally filtered by batch.
func ListQRCodes(ctx context.Context, db *sql.DB, batchID string) ([]model.QRCode, error) {
	query := `SELECT id, canonical_key, claimed_item_id, claimed_user_id, batch_id, created_at
	          FROM qr_codes`
	var args []any
	if batchID != "" {
		query += ` WHERE batch_id = ?`
		args = append(args, batchID)
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing qr codes: %w", err)
	}
	defer rows.Close()

	var codes []model.QRCode
	for rows.Next() {
		var c model.QRCode
		var itemID, userID sql.NullInt64
		var batch sql.NullString
		if err := rows.Scan(&c.ID, &c.CanonicalKey, &itemID, &userID, &batch, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning qr code: %w", err)
		}
		if itemID.Valid {
			c.ClaimedItemID = &itemID.Int64
		}
		if userID.Valid {
			c.ClaimedUserID = &userID.Int64
		}
		c.BatchID = batch.String
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// DeleteQRCode hard-deletes a code (admin purge). Claimed codes are released
// implicitly by the delete.
func DeleteQRCode(ctx context.Context, db *sql.DB, key string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM qr_codes WHERE canonical_key = ?`, key,
	)
	if err != nil {
		return fmt.Errorf("deleting qr code: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrCodeNotFound
	}
	return nil
}
