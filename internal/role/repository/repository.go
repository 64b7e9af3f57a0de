package repository

import (
	"context"

	"identity-service/internal/role/domain"
)

// Repository defines persistence for roles and their permission assignments.
type Repository interface {
	// GetByID returns the role with its permissions loaded, or nil if not found.
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	// GetByName returns the role with its permissions loaded, or nil if not found.
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	// GetByNames returns the active roles matching names; missing names are absent from the result.
	GetByNames(ctx context.Context, names []string) ([]domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Create(ctx context.Context, r *domain.Role) error
	Update(ctx context.Context, r *domain.Role) error
	SetActive(ctx context.Context, id int64, active bool) error
	// AssignPermissions adds the given permission ids to the role; already
	// assigned ids are skipped.
	AssignPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	// RemovePermissions removes the given permission ids from the role. No-op
	// for ids not assigned.
	RemovePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
}
