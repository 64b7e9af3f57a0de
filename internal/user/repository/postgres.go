package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	permissiondomain "identity-service/internal/permission/domain"
	roledomain "identity-service/internal/role/domain"
	"identity-service/internal/user/domain"
)

const userSelect = `
SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash, u.is_active, u.created_at,
       r.id, r.name, r.is_active,
       p.id, p.name, p.is_active
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id
LEFT JOIN roles r ON r.id = ur.role_id AND r.is_active
LEFT JOIN role_permissions rp ON rp.role_id = r.id
LEFT JOIN permissions p ON p.id = rp.permission_id AND p.is_active
`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user with active roles and permissions loaded,
// or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, userSelect+`WHERE u.id = $1`, id)
}

// GetByEmail returns the user with active roles and permissions loaded,
// or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, userSelect+`WHERE u.email = $1`, email)
}

// GetByUsername returns the user with active roles and permissions
// loaded, or nil if not found.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, userSelect+`WHERE u.username = $1`, username)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	users, err := groupUsers(rows)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// List returns all users with their active roles and permissions.
func (r *PostgresRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, userSelect+`ORDER BY u.created_at, u.id`)
	if err != nil {
		return nil, err
	}
	return groupUsers(rows)
}

// Create persists the user and its role assignments in one transaction.
// An empty user ID is filled with a fresh uuid.
func (r *PostgresRepository) Create(ctx context.Context, user *domain.User, roleIDs []int64) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (id, username, email, first_name, last_name, password_hash, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.IsActive,
	).Scan(&user.CreatedAt)
	if err != nil {
		return err
	}
	if len(roleIDs) > 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) SELECT $1, unnest($2::bigint[])`,
			user.ID, roleIDs,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Update updates the user's profile fields and password hash.
func (r *PostgresRepository) Update(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = $2, email = $3, first_name = $4, last_name = $5, password_hash = $6
		 WHERE id = $1`,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash,
	)
	return err
}

// ReplaceRoles swaps the user's role assignments for the given set.
func (r *PostgresRepository) ReplaceRoles(ctx context.Context, userID string, roleIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if len(roleIDs) > 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) SELECT $1, unnest($2::bigint[])`,
			userID, roleIDs,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetActive toggles the user's is_active flag (soft delete / enable).
func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = $2 WHERE id = $1`, id, active,
	)
	return err
}

// groupUsers folds the joined user/role/permission rows back into
// domain users. Row order within a user is not assumed.
func groupUsers(rows *sql.Rows) ([]domain.User, error) {
	defer rows.Close()

	var (
		order []string
		byID  = map[string]*domain.User{}
	)
	for rows.Next() {
		var (
			u          domain.User
			roleID     sql.NullInt64
			roleName   sql.NullString
			roleActive sql.NullBool
			permID     sql.NullInt64
			permName   sql.NullString
			permActive sql.NullBool
		)
		err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsActive, &u.CreatedAt,
			&roleID, &roleName, &roleActive,
			&permID, &permName, &permActive,
		)
		if err != nil {
			return nil, err
		}
		user, ok := byID[u.ID]
		if !ok {
			order = append(order, u.ID)
			byID[u.ID] = &u
			user = &u
		}
		if !roleID.Valid {
			continue
		}
		var role *roledomain.Role
		for i := range user.Roles {
			if user.Roles[i].ID == roleID.Int64 {
				role = &user.Roles[i]
				break
			}
		}
		if role == nil {
			user.Roles = append(user.Roles, roledomain.Role{
				ID:       roleID.Int64,
				Name:     roleName.String,
				IsActive: roleActive.Bool,
			})
			role = &user.Roles[len(user.Roles)-1]
		}
		if permID.Valid {
			seen := false
			for _, p := range role.Permissions {
				if p.ID == permID.Int64 {
					seen = true
					break
				}
			}
			if !seen {
				role.Permissions = append(role.Permissions, permissiondomain.Permission{
					ID:       permID.Int64,
					Name:     permName.String,
					IsActive: permActive.Bool,
				})
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}
