package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopmall-be/internal/db"
	"shopmall-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	FindByOwner(ctx context.Context, owner Owner) (*Cart, error)
	Create(ctx context.Context, owner Owner) (*Cart, error)
	ReplaceItems(ctx context.Context, cartID int64, items []CartItem) error
	Delete(ctx context.Context, cartID int64) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// FindByOwner loads the owner's cart with its items, locking the cart row
// when called inside a transaction. Returns ErrCartNotFound on a miss.
func (r *repository) FindByOwner(ctx context.Context, owner Owner) (*Cart, error) {
	log := logger.For(ctx, "repository", "FindByOwner")
	conn := db.Conn(ctx, r.db)

	query := `SELECT id, member_id, cookie_id, created_at, updated_at FROM carts WHERE `
	var arg any
	if owner.IsMember() {
		query += `member_id = $1`
		arg = owner.MemberID
	} else {
		query += `cookie_id = $1`
		arg = owner.CookieID
	}
	if db.InTx(ctx) {
		query += ` FOR UPDATE`
	}

	var (
		c        Cart
		memberID sql.NullInt64
		cookieID sql.NullString
	)
	err := conn.QueryRowContext(ctx, query, arg).Scan(&c.ID, &memberID, &cookieID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		log.Error("failed to query cart", zap.Error(err))
		return nil, err
	}
	if memberID.Valid {
		c.MemberID = &memberID.Int64
	}
	if cookieID.Valid {
		c.CookieID = &cookieID.String
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT id, cart_id, item_id, quantity, size_label
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id
	`, c.ID)
	if err != nil {
		log.Error("failed to query cart items", zap.Int64("cart_id", c.ID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ci CartItem
		if err := rows.Scan(&ci.ID, &ci.CartID, &ci.ItemID, &ci.Quantity, &ci.Size); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, ci)
	}

	return &c, rows.Err()
}

// Create inserts an empty cart. A concurrent create for the same owner
// surfaces as the existing cart.
func (r *repository) Create(ctx context.Context, owner Owner) (*Cart, error) {
	var memberID, cookieID any
	if owner.IsMember() {
		memberID = owner.MemberID
	} else {
		cookieID = owner.CookieID
	}

	var c Cart
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO carts (member_id, cookie_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
		RETURNING id, created_at, updated_at
	`, memberID, cookieID).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return r.FindByOwner(ctx, owner)
	}
	if err != nil {
		logger.For(ctx, "repository", "Create").Error("failed to create cart", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFailedSaveCart, err)
	}

	if owner.IsMember() {
		c.MemberID = &owner.MemberID
	} else {
		c.CookieID = &owner.CookieID
	}
	return &c, nil
}

// ReplaceItems swaps the cart's whole item set for items.
func (r *repository) ReplaceItems(ctx context.Context, cartID int64, items []CartItem) error {
	log := logger.For(ctx, "repository", "ReplaceItems").With(zap.Int64("cart_id", cartID))
	conn := db.Conn(ctx, r.db)

	if _, err := conn.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		log.Error("failed to clear cart items", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrFailedSaveCart, err)
	}

	if len(items) > 0 {
		itemIDs := make([]int64, len(items))
		quantities := make([]int64, len(items))
		sizes := make([]string, len(items))
		for i, ci := range items {
			itemIDs[i] = ci.ItemID
			quantities[i] = ci.Quantity
			sizes[i] = ci.Size
		}

		if _, err := conn.ExecContext(ctx, `
			INSERT INTO cart_items (cart_id, item_id, quantity, size_label)
			SELECT $1, t.item_id, t.quantity, t.size_label
			FROM unnest($2::bigint[], $3::bigint[], $4::text[]) AS t(item_id, quantity, size_label)
		`, cartID, pq.Array(itemIDs), pq.Array(quantities), pq.Array(sizes)); err != nil {
			log.Error("failed to insert cart items", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrFailedSaveCart, err)
		}
	}

	if _, err := conn.ExecContext(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedSaveCart, err)
	}

	return nil
}

// Delete removes the cart; its items go with it.
func (r *repository) Delete(ctx context.Context, cartID int64) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	if err != nil {
		logger.For(ctx, "repository", "Delete").Error("failed to delete cart",
			zap.Int64("cart_id", cartID),
			zap.Error(err),
		)
	}
	return err
}
