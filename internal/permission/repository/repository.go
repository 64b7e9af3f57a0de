package repository

import (
	"context"

	"identity-service/internal/permission/domain"
)

// Repository defines persistence for permissions.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Permission, error)
	GetByName(ctx context.Context, name string) (*domain.Permission, error)
	// GetByIDs returns the active permissions among ids; missing or inactive ids are simply absent from the result.
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Permission, error)
	List(ctx context.Context) ([]domain.Permission, error)
	Create(ctx context.Context, p *domain.Permission) error
	Update(ctx context.Context, p *domain.Permission) error
	SetActive(ctx context.Context, id int64, active bool) error
}
