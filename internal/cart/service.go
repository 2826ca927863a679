package cart

import (
	"context"
	"errors"

	"shopmall-be/internal/catalog"
	"shopmall-be/internal/db"
	"shopmall-be/internal/logger"

	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	AddCart(ctx context.Context, owner Owner, lines []Line) (*Cart, error)
	ModifyCart(ctx context.Context, owner Owner, lines []Line) (*Cart, error)
	GetCart(ctx context.Context, owner Owner) (*View, error)
	ToOrderSummary(ctx context.Context, owner Owner, itemID *int64) (*OrderSummary, error)
	ClearCart(ctx context.Context, owner Owner) error
	MergeOnLogin(ctx context.Context, cookieID string, memberID int64) (bool, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	merger  *Merger
	tx      db.Transactor
}

func NewService(repo Repository, c catalog.Repository, tx db.Transactor) Service {
	return &service{repo: repo, catalog: c, merger: NewMerger(c), tx: tx}
}

func ownerFields(owner Owner) []zap.Field {
	if owner.IsMember() {
		return []zap.Field{zap.Int64("member_id", owner.MemberID)}
	}
	return []zap.Field{zap.String("cookie_id", owner.CookieID)}
}

// AddCart merges lines into the owner's cart, creating the cart on first add.
func (s *service) AddCart(ctx context.Context, owner Owner, lines []Line) (*Cart, error) {
	log := logger.For(ctx, "service", "AddCart").With(ownerFields(owner)...)

	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	if len(lines) == 0 {
		return nil, ErrEmptyLines
	}

	var out *Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		incoming, err := s.merger.Build(ctx, lines)
		if err != nil {
			return err
		}

		c, err := s.repo.FindByOwner(ctx, owner)
		if errors.Is(err, ErrCartNotFound) {
			c, err = s.repo.Create(ctx, owner)
		}
		if err != nil {
			return err
		}

		c.Items = Merge(c.Items, incoming)
		if err := s.repo.ReplaceItems(ctx, c.ID, c.Items); err != nil {
			return err
		}

		out = c
		return nil
	})
	if err != nil {
		log.Warn("failed to add cart", zap.Error(err))
		return nil, err
	}

	log.Info("cart updated", zap.Int64("cart_id", out.ID), zap.Int("lines", len(out.Items)))
	return out, nil
}

// ModifyCart replaces the cart's items with the merged request lines.
func (s *service) ModifyCart(ctx context.Context, owner Owner, lines []Line) (*Cart, error) {
	log := logger.For(ctx, "service", "ModifyCart").With(ownerFields(owner)...)

	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}

	var out *Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.FindByOwner(ctx, owner)
		if err != nil {
			return err
		}

		items, err := s.merger.Build(ctx, lines)
		if err != nil {
			return err
		}

		if err := s.repo.ReplaceItems(ctx, c.ID, items); err != nil {
			return err
		}

		c.Items = items
		out = c
		return nil
	})
	if err != nil {
		log.Warn("failed to modify cart", zap.Error(err))
		return nil, err
	}

	return out, nil
}

// GetCart returns nil without error when the owner has no cart.
func (s *service) GetCart(ctx context.Context, owner Owner) (*View, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}

	c, err := s.repo.FindByOwner(ctx, owner)
	if errors.Is(err, ErrCartNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := s.catalog.FindItems(ctx, itemIDs(c.Items))
	if err != nil {
		return nil, err
	}

	return toView(c, items), nil
}

func (s *service) ToOrderSummary(ctx context.Context, owner Owner, itemID *int64) (*OrderSummary, error) {
	v, err := s.GetCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrCartNotFound
	}
	return toOrderSummary(v, itemID)
}

// ClearCart deletes the owner's cart. Clearing a missing cart is a no-op.
func (s *service) ClearCart(ctx context.Context, owner Owner) error {
	if !owner.Valid() {
		return ErrInvalidOwner
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.FindByOwner(ctx, owner)
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.repo.Delete(ctx, c.ID)
	})
}

// MergeOnLogin moves the anonymous cart's items into the member's cart and
// deletes the anonymous cart. No anonymous cart reports false with no error.
// A missing member cart fails with ErrCartNotFound and leaves the anonymous
// cart untouched.
func (s *service) MergeOnLogin(ctx context.Context, cookieID string, memberID int64) (bool, error) {
	log := logger.For(ctx, "service", "MergeOnLogin").With(
		zap.String("cookie_id", cookieID),
		zap.Int64("member_id", memberID),
	)

	if cookieID == "" {
		return false, nil
	}
	if memberID <= 0 {
		return false, ErrInvalidOwner
	}

	merged := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		anon, err := s.repo.FindByOwner(ctx, CookieOwner(cookieID))
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := s.repo.FindByOwner(ctx, MemberOwner(memberID))
		if err != nil {
			return err
		}

		if err := s.repo.ReplaceItems(ctx, target.ID, Merge(target.Items, anon.Items)); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, anon.ID); err != nil {
			return err
		}

		merged = true
		return nil
	})
	if err != nil {
		log.Warn("cart merge failed", zap.Error(err))
		return false, err
	}

	if merged {
		log.Info("anonymous cart merged")
	}
	return merged, nil
}
