package catalog

import (
	"context"
	"database/sql"
	"errors"

	"shopmall-be/internal/db"
	"shopmall-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Repository is the read-only item catalog the checkout flow resolves
// item ids against. Item management lives elsewhere.
type Repository interface {
	FindItem(ctx context.Context, id int64) (*Item, error)
	FindItems(ctx context.Context, ids []int64) (map[int64]*Item, error)
	FindSizedVariant(ctx context.Context, itemID int64, sizeLabel string) (*SizeVariant, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindItem(ctx context.Context, id int64) (*Item, error) {
	var item Item
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, name, price, kind
		FROM items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Price, &item.Kind)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		logger.For(ctx, "repository", "FindItem").Error("failed to query item",
			zap.Int64("item_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	return &item, nil
}

// FindItems loads several items at once. Ids that do not exist are simply
// missing from the result.
func (r *repository) FindItems(ctx context.Context, ids []int64) (map[int64]*Item, error) {
	items := make(map[int64]*Item, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	rows, err := db.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT id, name, price, kind
		FROM items
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		logger.For(ctx, "repository", "FindItems").Error("failed to query items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.Kind); err != nil {
			return nil, err
		}
		items[item.ID] = &item
	}

	return items, rows.Err()
}

func (r *repository) FindSizedVariant(ctx context.Context, itemID int64, sizeLabel string) (*SizeVariant, error) {
	var v SizeVariant
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, item_id, size_label
		FROM item_sizes
		WHERE item_id = $1 AND size_label = $2
	`, itemID, sizeLabel).Scan(&v.ID, &v.ItemID, &v.SizeLabel)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSizeNotFound
	}
	if err != nil {
		logger.For(ctx, "repository", "FindSizedVariant").Error("failed to query item size",
			zap.Int64("item_id", itemID),
			zap.String("size", sizeLabel),
			zap.Error(err),
		)
		return nil, err
	}

	return &v, nil
}
