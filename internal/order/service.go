package order

import (
	"context"
	"errors"
	"fmt"

	"shopmall-be/internal/catalog"
	"shopmall-be/internal/db"
	"shopmall-be/internal/logger"
	"shopmall-be/internal/member"
	"shopmall-be/internal/mileage"
	"shopmall-be/internal/payment"
	"shopmall-be/internal/utils"

	"go.uber.org/zap"
)

const defaultPageSize = 10

type Service interface {
	Create(ctx context.Context, authID string, req CreateRequest) (string, error)
	Find(ctx context.Context, orderNum, authID string) (*Order, error)
	FindByOrderNum(ctx context.Context, orderNum string) (*Order, error)
	Pay(ctx context.Context, o *Order, paymentNum string) error
	Cancel(ctx context.Context, o *Order) error
	CancelMyOrder(ctx context.Context, orderNum, authID string) error
	DeleteTempOrder(ctx context.Context, orderNum, authID string) error
	DeleteAllTempOrders(ctx context.Context, authID string) (int, error)
	TotalAmount(ctx context.Context, o *Order) (int64, error)
	ListMyOrders(ctx context.Context, authID string, page int) (*Page, error)
	Detail(ctx context.Context, orderNum, authID string) (*Detail, error)
}

// Config holds the order tuning knobs.
type Config struct {
	DeliveryAmount int64
	PageSize       int
}

type service struct {
	repo     Repository
	members  member.Repository
	catalog  catalog.Repository
	mileage  mileage.Service
	payments payment.Repository
	tx       db.Transactor
	cfg      Config
}

func NewService(
	repo Repository,
	members member.Repository,
	c catalog.Repository,
	ledger mileage.Service,
	payments payment.Repository,
	tx db.Transactor,
	cfg Config,
) Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return &service{
		repo:     repo,
		members:  members,
		catalog:  c,
		mileage:  ledger,
		payments: payments,
		tx:       tx,
		cfg:      cfg,
	}
}

// Create persists a TEMP order and deducts the mileage it uses, atomically.
// Totals are not stored; see TotalAmount.
func (s *service) Create(ctx context.Context, authID string, req CreateRequest) (string, error) {
	log := logger.For(ctx, "service", "Create").With(zap.String("auth_id", authID))

	if authID == "" {
		return "", ErrUnauthorized
	}
	if len(req.Lines) == 0 {
		return "", ErrEmptyOrder
	}
	if req.UseMileage < 0 {
		return "", mileage.ErrInvalidPoint
	}

	m, err := s.members.FindByAuthID(ctx, authID)
	if err != nil {
		log.Warn("orderer lookup failed", zap.Error(err))
		return "", err
	}

	o := &Order{
		OrderNum: utils.GenerateOrderNumber(),
		MemberID: m.ID,
		AuthID:   authID,
		Orderer: Orderer{
			Name:  utils.FirstNonBlank(req.Orderer.Name, m.Name),
			Phone: utils.FirstNonBlank(req.Orderer.Phone, m.Phone),
			Email: utils.FirstNonBlank(req.Orderer.Email, m.Email),
		},
		Delivery:       req.Delivery,
		DeliveryAmount: s.cfg.DeliveryAmount,
		Status:         StatusTemp,
	}
	o.Delivery.Status = DeliveryReady
	log = log.With(zap.String("order_num", o.OrderNum))

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		items, err := s.resolveItems(ctx, req.Lines)
		if err != nil {
			return err
		}
		o.Items = items

		if req.UseMileage > 0 {
			available, err := s.mileage.AvailableFor(ctx, authID)
			if err != nil {
				return err
			}
			if req.UseMileage > available {
				return mileage.ErrInsufficientMileage
			}
			if req.UseMileage > o.ItemsAmount()+o.DeliveryAmount {
				return ErrMileageExceedsTotal
			}
		}

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("%w: %w", ErrFailedCreateOrder, err)
		}

		return s.mileage.Deduct(ctx, o.OrderNum, authID, req.UseMileage, mileage.ContentUsedDeduction)
	})
	if err != nil {
		log.Warn("failed to create order", zap.Error(err))
		return "", err
	}

	log.Info("order created",
		zap.Int("lines", len(o.Items)),
		zap.Int64("used_mileage", req.UseMileage),
	)
	return o.OrderNum, nil
}

func (s *service) resolveItems(ctx context.Context, lines []LineRequest) ([]Item, error) {
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		it, err := s.catalog.FindItem(ctx, l.ItemID)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", l.ItemID, err)
		}

		line := ItemLine{ItemID: it.ID, Name: it.Name, Price: it.Price, Quantity: l.Quantity}
		if !it.Sized() {
			items = append(items, &PlainItem{ItemLine: line})
			continue
		}

		v, err := s.catalog.FindSizedVariant(ctx, it.ID, l.Size)
		if err != nil {
			return nil, fmt.Errorf("item %d size %q: %w", l.ItemID, l.Size, err)
		}
		items = append(items, &ClothesItem{ItemLine: line, Size: v.SizeLabel})
	}
	return items, nil
}

// Find loads an order owned by authID. Inside a transaction the row is locked.
func (s *service) Find(ctx context.Context, orderNum, authID string) (*Order, error) {
	return s.repo.FindByOrderNumAndAuthID(ctx, orderNum, authID)
}

func (s *service) FindByOrderNum(ctx context.Context, orderNum string) (*Order, error) {
	return s.repo.FindByOrderNum(ctx, orderNum)
}

// Pay moves o from TEMP to PAID. Any other starting status fails with
// ErrInvalidOrderStatus and leaves o unchanged.
func (s *service) Pay(ctx context.Context, o *Order, paymentNum string) error {
	prev := *o
	if err := o.Pay(paymentNum); err != nil {
		logger.For(ctx, "service", "Pay").Warn("order is not payable",
			zap.String("order_num", o.OrderNum),
			zap.String("status", string(o.Status)),
		)
		return err
	}

	if err := s.repo.UpdateStatus(ctx, o); err != nil {
		*o = prev
		return err
	}

	logger.For(ctx, "service", "Pay").Info("order paid",
		zap.String("order_num", o.OrderNum),
		zap.String("payment_num", utils.PtrString(o.PaymentNum)),
	)
	return nil
}

// Cancel flips the status only. Mileage and refunds are up to the caller.
func (s *service) Cancel(ctx context.Context, o *Order) error {
	prev := o.Status
	if err := o.Cancel(); err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, o); err != nil {
		o.Status = prev
		return err
	}
	return nil
}

func (s *service) CancelMyOrder(ctx context.Context, orderNum, authID string) error {
	log := logger.For(ctx, "service", "CancelMyOrder").With(
		zap.String("order_num", orderNum),
		zap.String("auth_id", authID),
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.repo.FindByOrderNumAndAuthID(ctx, orderNum, authID)
		if err != nil {
			return err
		}
		if err := s.Cancel(ctx, o); err != nil {
			return err
		}
		return s.mileage.Reverse(ctx, orderNum)
	})
	if err != nil {
		log.Warn("failed to cancel order", zap.Error(err))
		return err
	}

	log.Info("order cancelled")
	return nil
}

// DeleteTempOrder drops a TEMP order and its mileage entries. An order that
// has moved past TEMP is kept.
func (s *service) DeleteTempOrder(ctx context.Context, orderNum, authID string) error {
	log := logger.For(ctx, "service", "DeleteTempOrder").With(
		zap.String("order_num", orderNum),
		zap.String("auth_id", authID),
	)

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.repo.FindByOrderNumAndAuthID(ctx, orderNum, authID)
		if err != nil {
			return err
		}
		if o.Status != StatusTemp {
			log.Warn("order is not temporary, keeping it", zap.String("status", string(o.Status)))
			return nil
		}

		if err := s.mileage.Reverse(ctx, orderNum); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, o.ID); err != nil {
			log.Error("failed to delete temp order", zap.Error(err))
			return err
		}

		log.Info("temp order deleted")
		return nil
	})
}

// DeleteAllTempOrders clears every TEMP order of the member, typically after
// the client reports a failed payment window.
func (s *service) DeleteAllTempOrders(ctx context.Context, authID string) (int, error) {
	log := logger.For(ctx, "service", "DeleteAllTempOrders").With(zap.String("auth_id", authID))

	var deleted int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		nums, err := s.repo.ListTempOrderNums(ctx, authID)
		if err != nil {
			return err
		}
		for _, n := range nums {
			if err := s.DeleteTempOrder(ctx, n, authID); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		log.Warn("failed to delete temp orders", zap.Error(err))
		return 0, err
	}

	log.Info("temp orders deleted", zap.Int("count", deleted))
	return deleted, nil
}

// TotalAmount is what the gateway must report for o: item amounts plus the
// delivery amount, less the mileage used on the order.
func (s *service) TotalAmount(ctx context.Context, o *Order) (int64, error) {
	used, err := s.mileage.BalanceFor(ctx, o.OrderNum, mileage.ContentUsedDeduction)
	if err != nil {
		return 0, err
	}
	return o.ItemsAmount() + o.DeliveryAmount - abs(used), nil
}

// ListMyOrders pages through a member's orders, newest first. page is
// 1-indexed; anything below 1 is the first page.
func (s *service) ListMyOrders(ctx context.Context, authID string, page int) (*Page, error) {
	idx := max(page-1, 0)
	size := s.cfg.PageSize

	orders, err := s.repo.ListByAuthID(ctx, authID, size, idx*size)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountByAuthID(ctx, authID)
	if err != nil {
		return nil, err
	}

	out := &Page{Orders: make([]Summary, 0, len(orders)), Page: idx + 1, Size: size, Total: total}
	for _, o := range orders {
		amount, err := s.TotalAmount(ctx, o)
		if err != nil {
			return nil, err
		}
		out.Orders = append(out.Orders, Summary{
			OrderNum:    o.OrderNum,
			Title:       summaryTitle(o.Items),
			Status:      o.Status,
			TotalAmount: amount,
			CreatedAt:   o.CreatedAt,
		})
	}
	return out, nil
}

func summaryTitle(items []Item) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0].Base().Name
	default:
		return fmt.Sprintf("%s and %d more", items[0].Base().Name, len(items)-1)
	}
}

func (s *service) Detail(ctx context.Context, orderNum, authID string) (*Detail, error) {
	o, err := s.repo.FindByOrderNumAndAuthID(ctx, orderNum, authID)
	if err != nil {
		return nil, err
	}

	entries, err := s.mileage.Entries(ctx, orderNum)
	if err != nil {
		return nil, err
	}
	var used, earned int64
	for _, e := range entries {
		switch e.Content {
		case mileage.ContentUsedDeduction:
			used += e.Point
		case mileage.ContentPaymentAccumulate:
			earned += e.Point
		}
	}

	d := &Detail{
		OrderNum:       o.OrderNum,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
		Orderer:        o.Orderer,
		Delivery:       o.Delivery,
		Items:          make([]DetailItem, 0, len(o.Items)),
		ItemsAmount:    o.ItemsAmount(),
		DeliveryAmount: o.DeliveryAmount,
		UsedMileage:    abs(used),
		EarnedMileage:  earned,
	}
	d.TotalAmount = d.ItemsAmount + d.DeliveryAmount - d.UsedMileage

	for _, it := range o.Items {
		line := it.Base()
		di := DetailItem{
			ItemID:   line.ItemID,
			Name:     line.Name,
			Price:    line.Price,
			Quantity: line.Quantity,
			Amount:   line.Amount(),
		}
		if size, ok := it.SizeLabel(); ok {
			di.Size = utils.StrPtr(size)
		}
		d.Items = append(d.Items, di)
	}

	p, err := s.payments.FindByOrderNum(ctx, orderNum)
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
	case err != nil:
		return nil, err
	default:
		d.Payment = &PaymentInfo{
			PaymentNum: p.PaymentNum,
			Method:     p.Method,
			Amount:     p.Amount,
			Status:     p.Status,
		}
	}

	return d, nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
