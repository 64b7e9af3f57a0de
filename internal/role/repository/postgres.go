package repository

import (
	"context"
	"database/sql"
	"errors"

	permissiondomain "identity-service/internal/permission/domain"
	"identity-service/internal/role/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a role repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the role with its permissions, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	return r.getOne(ctx, `SELECT id, name, is_active FROM roles WHERE id = $1`, id)
}

// GetByName returns the role with its permissions, or nil if not found.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.getOne(ctx, `SELECT id, name, is_active FROM roles WHERE name = $1`, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*domain.Role, error) {
	role := &domain.Role{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&role.ID, &role.Name, &role.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	perms, err := r.loadPermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = perms
	return role, nil
}

// GetByNames returns the active roles matching names, permissions loaded.
func (r *PostgresRepository) GetByNames(ctx context.Context, names []string) ([]domain.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_active FROM roles WHERE name = ANY($1) AND is_active ORDER BY id`, names,
	)
	if err != nil {
		return nil, err
	}
	roles, err := scanRoles(rows)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		perms, err := r.loadPermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

// List returns all active roles with their permissions, ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_active FROM roles WHERE is_active ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	roles, err := scanRoles(rows)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		perms, err := r.loadPermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

// Create persists the role and assigns the generated id back to r.
func (r *PostgresRepository) Create(ctx context.Context, role *domain.Role) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO roles (name, is_active) VALUES ($1, $2) RETURNING id`,
		role.Name, role.IsActive,
	).Scan(&role.ID)
}

// Update updates the role's name. No-op when the row is missing.
func (r *PostgresRepository) Update(ctx context.Context, role *domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE roles SET name = $2 WHERE id = $1`, role.ID, role.Name,
	)
	return err
}

// SetActive toggles the role's is_active flag (soft delete / enable).
func (r *PostgresRepository) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE roles SET is_active = $2 WHERE id = $1`, id, active,
	)
	return err
}

// AssignPermissions adds permission ids to the role, skipping existing pairs.
func (r *PostgresRepository) AssignPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO role_permissions (role_id, permission_id)
		 SELECT $1, unnest($2::bigint[])
		 ON CONFLICT DO NOTHING`,
		roleID, permissionIDs,
	)
	return err
}

// RemovePermissions removes permission ids from the role.
func (r *PostgresRepository) RemovePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = ANY($2)`,
		roleID, permissionIDs,
	)
	return err
}

func (r *PostgresRepository) loadPermissions(ctx context.Context, roleID int64) ([]permissiondomain.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.is_active
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = $1
		 ORDER BY p.id`,
		roleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []permissiondomain.Permission
	for rows.Next() {
		var p permissiondomain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.IsActive); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanRoles(rows *sql.Rows) ([]domain.Role, error) {
	defer rows.Close()
	var out []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.IsActive); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
