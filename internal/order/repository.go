package order

import (
	"context"
	"database/sql"
	"errors"

	"shopmall-be/internal/db"
	"shopmall-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByOrderNum(ctx context.Context, orderNum string) (*Order, error)
	FindByOrderNumAndAuthID(ctx context.Context, orderNum, authID string) (*Order, error)
	UpdateStatus(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id int64) error
	ListByAuthID(ctx context.Context, authID string, limit, offset int) ([]*Order, error)
	CountByAuthID(ctx context.Context, authID string) (int64, error)
	ListTempOrderNums(ctx context.Context, authID string) ([]string, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, order_num, member_id, auth_id,
	orderer_name, orderer_phone, orderer_email,
	recipient, recipient_phone, post_code, road_address, detail_address, delivery_memo, delivery_status,
	delivery_amount, status, payment_num, created_at, updated_at`

func lockClause(ctx context.Context) string {
	if db.InTx(ctx) {
		return " FOR UPDATE"
	}
	return ""
}

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var (
		o          Order
		paymentNum sql.NullString
	)
	err := row.Scan(
		&o.ID, &o.OrderNum, &o.MemberID, &o.AuthID,
		&o.Orderer.Name, &o.Orderer.Phone, &o.Orderer.Email,
		&o.Delivery.Recipient, &o.Delivery.RecipientPhone, &o.Delivery.PostCode,
		&o.Delivery.RoadAddress, &o.Delivery.DetailAddress, &o.Delivery.Memo, &o.Delivery.Status,
		&o.DeliveryAmount, &o.Status, &paymentNum, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paymentNum.Valid {
		o.PaymentNum = &paymentNum.String
	}
	return &o, nil
}

// Create inserts the order in TEMP status together with its lines.
func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.For(ctx, "repository", "Create").With(zap.String("order_num", o.OrderNum))
	conn := db.Conn(ctx, r.db)

	err := conn.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_num, member_id, auth_id,
			orderer_name, orderer_phone, orderer_email,
			recipient, recipient_phone, post_code, road_address, detail_address, delivery_memo, delivery_status,
			delivery_amount, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id, created_at, updated_at
	`,
		o.OrderNum, o.MemberID, o.AuthID,
		o.Orderer.Name, o.Orderer.Phone, o.Orderer.Email,
		o.Delivery.Recipient, o.Delivery.RecipientPhone, o.Delivery.PostCode,
		o.Delivery.RoadAddress, o.Delivery.DetailAddress, o.Delivery.Memo, o.Delivery.Status,
		o.DeliveryAmount, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	for _, it := range o.Items {
		line := it.Base()
		var size sql.NullString
		if label, ok := it.SizeLabel(); ok {
			size = sql.NullString{String: label, Valid: true}
		}

		err := conn.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, item_id, name, price, quantity, size_label)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, o.ID, line.ItemID, line.Name, line.Price, line.Quantity, size).Scan(&line.ID)
		if err != nil {
			log.Error("failed to insert order item", zap.Int64("item_id", line.ItemID), zap.Error(err))
			return err
		}
	}

	return nil
}

func (r *repository) FindByOrderNum(ctx context.Context, orderNum string) (*Order, error) {
	return r.findOne(ctx, `WHERE order_num = $1`, orderNum)
}

// FindByOrderNumAndAuthID scopes the lookup to the owning account. A foreign
// order is reported as not found.
func (r *repository) FindByOrderNumAndAuthID(ctx context.Context, orderNum, authID string) (*Order, error) {
	return r.findOne(ctx, `WHERE order_num = $1 AND auth_id = $2`, orderNum, authID)
}

func (r *repository) findOne(ctx context.Context, where string, args ...any) (*Order, error) {
	o, err := scanOrder(db.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders `+where+lockClause(ctx), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		logger.For(ctx, "repository", "findOne").Error("failed to query order", zap.Error(err))
		return nil, err
	}

	items, err := r.loadItems(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *repository) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]Item, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT id, order_id, item_id, name, price, quantity, size_label
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id
	`, pq.Array(orderIDs))
	if err != nil {
		logger.For(ctx, "repository", "loadItems").Error("failed to query order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]Item, len(orderIDs))
	for rows.Next() {
		var (
			line    ItemLine
			orderID int64
			size    sql.NullString
		)
		if err := rows.Scan(&line.ID, &orderID, &line.ItemID, &line.Name, &line.Price, &line.Quantity, &size); err != nil {
			return nil, err
		}

		if size.Valid {
			out[orderID] = append(out[orderID], &ClothesItem{ItemLine: line, Size: size.String})
		} else {
			out[orderID] = append(out[orderID], &PlainItem{ItemLine: line})
		}
	}
	return out, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, o *Order) error {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE orders
		SET status = $1, payment_num = $2, updated_at = NOW()
		WHERE id = $3
	`, o.Status, o.PaymentNum, o.ID)
	if err != nil {
		logger.For(ctx, "repository", "UpdateStatus").Error("failed to update order status",
			zap.String("order_num", o.OrderNum),
			zap.Error(err),
		)
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Delete removes the order. Lines go with it through the foreign key.
func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	return err
}

func (r *repository) ListByAuthID(ctx context.Context, authID string, limit, offset int) ([]*Order, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE auth_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, authID, limit, offset)
	if err != nil {
		logger.For(ctx, "repository", "ListByAuthID").Error("failed to list orders",
			zap.String("auth_id", authID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var (
		orders []*Order
		ids    []int64
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Items = items[o.ID]
	}
	return orders, nil
}

func (r *repository) CountByAuthID(ctx context.Context, authID string) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE auth_id = $1`, authID).Scan(&n)
	return n, err
}

func (r *repository) ListTempOrderNums(ctx context.Context, authID string) ([]string, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT order_num FROM orders WHERE auth_id = $1 AND status = $2 ORDER BY id`+lockClause(ctx),
		authID, StatusTemp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nums []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		nums = append(nums, n)
	}
	return nums, rows.Err()
}
