package domain

import (
	"errors"

	permissiondomain "identity-service/internal/permission/domain"
)

// Role is a named bundle of permissions assignable to users. Many-to-many with
// both users and permissions; the relation is carried as an id-set join, never
// as back-references, so the object graph stays acyclic.
type Role struct {
	ID          int64
	Name        string
	IsActive    bool
	Permissions []permissiondomain.Permission
}

// Validate validates the role for persistence.
func (r *Role) Validate() error {
	if r.Name == "" {
		return errors.New("role name is required")
	}
	return nil
}
