package bootstrap

import (
	"context"
	"fmt"
	"log"

	"identity-service/internal/accesscontrol"
	permissiondomain "identity-service/internal/permission/domain"
	roledomain "identity-service/internal/role/domain"
)

// PermissionRepo is the minimal permission repository needed for seeding.
type PermissionRepo interface {
	GetByName(ctx context.Context, name string) (*permissiondomain.Permission, error)
	Create(ctx context.Context, p *permissiondomain.Permission) error
}

// RoleRepo is the minimal role repository needed for seeding.
type RoleRepo interface {
	GetByName(ctx context.Context, name string) (*roledomain.Role, error)
	Create(ctx context.Context, r *roledomain.Role) error
	AssignPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
}

const adminRoleName = "admin"

// EnsureAccessControl seeds the access-control management permission and
// the admin role holding it. Safe to run on every startup; existing rows
// are reused.
func EnsureAccessControl(ctx context.Context, perms PermissionRepo, roles RoleRepo) error {
	perm, err := perms.GetByName(ctx, accesscontrol.PermissionManage)
	if err != nil {
		return fmt.Errorf("bootstrap: look up permission: %w", err)
	}
	if perm == nil {
		perm = &permissiondomain.Permission{Name: accesscontrol.PermissionManage, IsActive: true}
		if err := perms.Create(ctx, perm); err != nil {
			return fmt.Errorf("bootstrap: create permission: %w", err)
		}
		log.Printf("bootstrap: seeded permission %q", perm.Name)
	}

	role, err := roles.GetByName(ctx, adminRoleName)
	if err != nil {
		return fmt.Errorf("bootstrap: look up role: %w", err)
	}
	if role == nil {
		role = &roledomain.Role{Name: adminRoleName, IsActive: true}
		if err := roles.Create(ctx, role); err != nil {
			return fmt.Errorf("bootstrap: create role: %w", err)
		}
		log.Printf("bootstrap: seeded role %q", role.Name)
	}

	for _, p := range role.Permissions {
		if p.ID == perm.ID {
			return nil
		}
	}
	if err := roles.AssignPermissions(ctx, role.ID, []int64{perm.ID}); err != nil {
		return fmt.Errorf("bootstrap: assign permission to role: %w", err)
	}
	return nil
}
