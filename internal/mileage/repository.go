package mileage

import (
	"context"
	"database/sql"
	"errors"

	"shopmall-be/internal/db"
	"shopmall-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Insert(ctx context.Context, e Entry) (bool, error)
	DeleteByOrderNum(ctx context.Context, orderNum string) (int64, error)
	FindPoint(ctx context.Context, orderNum string, content Content) (int64, error)
	SumByAuthID(ctx context.Context, authID string) (int64, error)
	ListByOrderNum(ctx context.Context, orderNum string) ([]Entry, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Insert appends an entry. It reports false when an entry with the same
// (order_num, content) already exists, leaving the stored one untouched.
func (r *repository) Insert(ctx context.Context, e Entry) (bool, error) {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO mileages (order_num, auth_id, point, content)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_num, content) DO NOTHING
	`, e.OrderNum, e.AuthID, e.Point, e.Content)
	if err != nil {
		logger.For(ctx, "repository", "Insert").Error("failed to insert mileage",
			zap.String("order_num", e.OrderNum),
			zap.String("content", string(e.Content)),
			zap.Error(err),
		)
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) DeleteByOrderNum(ctx context.Context, orderNum string) (int64, error) {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx, `
		DELETE FROM mileages WHERE order_num = $1
	`, orderNum)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FindPoint returns the signed point of one entry, or zero when absent.
func (r *repository) FindPoint(ctx context.Context, orderNum string, content Content) (int64, error) {
	var point int64
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT point FROM mileages
		WHERE order_num = $1 AND content = $2
	`, orderNum, content).Scan(&point)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return point, nil
}

func (r *repository) SumByAuthID(ctx context.Context, authID string) (int64, error) {
	var total int64
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(point), 0) FROM mileages WHERE auth_id = $1
	`, authID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) ListByOrderNum(ctx context.Context, orderNum string) ([]Entry, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT id, order_num, auth_id, point, content, created_at
		FROM mileages
		WHERE order_num = $1
		ORDER BY id
	`, orderNum)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OrderNum, &e.AuthID, &e.Point, &e.Content, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
