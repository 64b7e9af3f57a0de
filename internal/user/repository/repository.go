package repository

import (
	"context"

	"identity-service/internal/user/domain"
)

// Repository is the persistence surface for users. Lookups return
// (nil, nil) when no row matches; roles and their permissions are
// loaded eagerly on every read.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, user *domain.User, roleIDs []int64) error
	Update(ctx context.Context, user *domain.User) error
	ReplaceRoles(ctx context.Context, userID string, roleIDs []int64) error
	SetActive(ctx context.Context, id string, active bool) error
}
