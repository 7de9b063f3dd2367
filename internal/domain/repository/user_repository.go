package repository

import (
	"context"

	"github.com/oksasatya/trainboard/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
// Lookups return domain.ErrNotFound when no row matches; Create returns
// domain.ErrAlreadyExists on a duplicate email.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}
