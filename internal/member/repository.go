package member

import (
	"context"
	"database/sql"
	"errors"

	"shopmall-be/internal/db"
	"shopmall-be/internal/logger"

	"go.uber.org/zap"
)

var ErrMemberNotFound = errors.New("member not found")

// Repository reads member profiles. Registration and login are handled by
// the identity service.
type Repository interface {
	FindByAuthID(ctx context.Context, authID string) (*Member, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByAuthID(ctx context.Context, authID string) (*Member, error) {
	var m Member
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, auth_id, name, phone, email
		FROM members
		WHERE auth_id = $1
	`, authID).Scan(&m.ID, &m.AuthID, &m.Name, &m.Phone, &m.Email)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		logger.For(ctx, "repository", "FindByAuthID").Error("failed to query member",
			zap.String("auth_id", authID),
			zap.Error(err),
		)
		return nil, err
	}

	return &m, nil
}
