package mileage

import (
	"context"
	"fmt"

	"shopmall-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the per-order loyalty point ledger.
type Service interface {
	Deduct(ctx context.Context, orderNum, authID string, amount int64, content Content) error
	Accrue(ctx context.Context, orderNum, authID string, amount int64, content Content) (bool, error)
	Reverse(ctx context.Context, orderNum string) error
	BalanceFor(ctx context.Context, orderNum string, content Content) (int64, error)
	AvailableFor(ctx context.Context, authID string) (int64, error)
	AccrualFor(paidAmount int64) int64
	Entries(ctx context.Context, orderNum string) ([]Entry, error)
}

type service struct {
	repo Repository
	rate decimal.Decimal
}

// NewService builds the ledger. rate is the share of a paid amount credited
// back as points, e.g. 0.10.
func NewService(repo Repository, rate float64) Service {
	return &service{repo: repo, rate: decimal.NewFromFloat(rate)}
}

// Deduct records points spent on an order. The entry is stored negative
// whatever the sign of amount.
func (s *service) Deduct(ctx context.Context, orderNum, authID string, amount int64, content Content) error {
	log := logger.For(ctx, "service", "Deduct").With(
		zap.String("order_num", orderNum),
		zap.String("auth_id", authID),
		zap.Int64("amount", amount),
	)

	if amount == 0 {
		return nil
	}
	if amount < 0 {
		amount = -amount
	}

	if _, err := s.repo.Insert(ctx, Entry{
		OrderNum: orderNum,
		AuthID:   authID,
		Point:    -amount,
		Content:  content,
	}); err != nil {
		log.Error("failed to record deduction", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrFailedSaveEntry, err)
	}

	log.Info("mileage deducted")
	return nil
}

// Accrue credits points for an order. It reports false when the order already
// holds an entry for content, which makes repeated confirmations harmless.
func (s *service) Accrue(ctx context.Context, orderNum, authID string, amount int64, content Content) (bool, error) {
	log := logger.For(ctx, "service", "Accrue").With(
		zap.String("order_num", orderNum),
		zap.String("auth_id", authID),
		zap.Int64("amount", amount),
	)

	if amount < 0 {
		return false, ErrInvalidPoint
	}
	if amount == 0 {
		return false, nil
	}

	inserted, err := s.repo.Insert(ctx, Entry{
		OrderNum: orderNum,
		AuthID:   authID,
		Point:    amount,
		Content:  content,
	})
	if err != nil {
		log.Error("failed to record accrual", zap.Error(err))
		return false, fmt.Errorf("%w: %w", ErrFailedSaveEntry, err)
	}

	if !inserted {
		log.Warn("accrual already recorded")
		return false, nil
	}

	log.Info("mileage accrued")
	return true, nil
}

// Reverse removes every entry of the order. It is not undoable.
func (s *service) Reverse(ctx context.Context, orderNum string) error {
	log := logger.For(ctx, "service", "Reverse").With(zap.String("order_num", orderNum))

	n, err := s.repo.DeleteByOrderNum(ctx, orderNum)
	if err != nil {
		log.Error("failed to reverse mileage", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrFailedReverseOrder, err)
	}

	log.Info("mileage reversed", zap.Int64("entries", n))
	return nil
}

func (s *service) BalanceFor(ctx context.Context, orderNum string, content Content) (int64, error) {
	return s.repo.FindPoint(ctx, orderNum, content)
}

func (s *service) AvailableFor(ctx context.Context, authID string) (int64, error) {
	total, err := s.repo.SumByAuthID(ctx, authID)
	if err != nil {
		return 0, err
	}
	if total < 0 {
		return 0, nil
	}
	return total, nil
}

// AccrualFor is round(paidAmount × rate), half away from zero.
func (s *service) AccrualFor(paidAmount int64) int64 {
	if paidAmount <= 0 {
		return 0
	}
	return decimal.NewFromInt(paidAmount).Mul(s.rate).Round(0).IntPart()
}

func (s *service) Entries(ctx context.Context, orderNum string) ([]Entry, error) {
	return s.repo.ListByOrderNum(ctx, orderNum)
}
