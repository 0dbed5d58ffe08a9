package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

// UserRepository is the account store contract. Email uniqueness is checked by
// callers with GetByEmail before Create; the store does not enforce it transactionally.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
}
